/*
subvol is an offline preprocessor for out-of-core volume rendering.  Given a large raw
scalar volume and a transfer function, it partitions the volume into a regular grid of
blocks, scores each block by its average transfer function output, and writes an index
that renderers use to decide which blocks to stream and at what level of detail.

Documentation can be found nicely formatted at http://godoc.org/github.com/janelia-flyem/subvol

Inputs

A raw volume is a headerless file of little-endian elements laid out x fastest, then y,
then z.  Its dims and element type come from flags, a TOML configuration file, or a .dat
descriptor:

	ObjectFileName: skull.raw
	Resolution:     256 256 256
	Format:         UCHAR

A transfer function file skips its first line and then lists one "x y" control point per
line with x ascending over [0,1]:

	4
	0.0  0.0
	0.3  0.1
	0.6  0.9
	1.0  1.0

Generating an index

	% subvol -raw skull.raw -dtype uint8 -vx 256 -vy 256 -vz 256 \
	         -bx 16 -by 16 -bz 16 -tf skull.1dt -out skull.json generate

The run sweeps the memory-mapped volume twice: once for the global scalar range and once
to accumulate transfer function output per block.  Voxels past the last whole block along
an axis are ignored.  The index is written only after both sweeps succeed.

Output can also be binary (-format binary, optionally -compress snappy|zstd|gzip), an
ascii dump (-format ascii), or sent to a bucket URL (gs://, s3://, file://).  -arrow
additionally exports the block table as an Arrow IPC stream.

Reading an index

	% subvol read skull.json
	% subvol -format json read skull.bin
	% subvol -out skull.bin -format binary -compress zstd read skull.json
*/
package main
