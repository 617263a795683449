// Package volume provides read-only, memory-mapped access to raw voxel volumes and
// parsing of .dat volume descriptors.
package volume

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/edsrzf/mmap-go"

	"github.com/janelia-flyem/subvol/subvol"
)

// Accessor is a flat, read-only view of a raw volume file.  Samples are decoded on demand
// from a memory mapping so the volume never has to be resident in memory.
type Accessor struct {
	path   string
	dtype  subvol.DataType
	dims   subvol.Point3d
	count  uint64
	stride int
	decode subvol.Decoder

	f    *os.File
	data mmap.MMap
}

// Open maps the raw volume at path holding voxels of the given type and dimensions.
// The file must hold at least dims.Prod() elements; trailing bytes are ignored.
func Open(path string, dtype subvol.DataType, dims subvol.Point3d) (*Accessor, error) {
	if dims[0] <= 0 || dims[1] <= 0 || dims[2] <= 0 {
		return nil, &subvol.ConfigError{Field: "volume dims", Value: dims, Msg: "each dimension must be positive"}
	}
	decode := dtype.Decoder()
	if decode == nil {
		return nil, &subvol.ConfigError{Field: "dtype", Value: dtype, Msg: "unsupported data type"}
	}
	count := uint64(dims.Prod())
	stride := int(dtype.Bytes())
	required := count * uint64(stride)

	f, err := os.Open(path)
	if err != nil {
		return nil, &subvol.IOError{Op: "open volume", Path: path, Err: err}
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &subvol.IOError{Op: "stat volume", Path: path, Err: err}
	}
	if uint64(fi.Size()) < required {
		f.Close()
		return nil, &subvol.IOError{Op: "open volume", Path: path,
			Err: fmt.Errorf("file is %d bytes but %d voxels of %s need %d bytes", fi.Size(), count, dtype, required)}
	}
	m, err := mmap.MapRegion(f, int(required), mmap.RDONLY, 0, 0)
	if err != nil {
		f.Close()
		return nil, &subvol.IOError{Op: "mmap volume", Path: path, Err: err}
	}
	adviseSequential(m)

	subvol.Debugf("Mapped %s of %s volume %s with dims %s\n", humanize.Bytes(required), dtype, path, dims)
	return &Accessor{
		path:   path,
		dtype:  dtype,
		dims:   dims,
		count:  count,
		stride: stride,
		decode: decode,
		f:      f,
		data:   m,
	}, nil
}

// Path returns the path of the mapped raw file.
func (a *Accessor) Path() string { return a.path }

// DataType returns the element type of the volume.
func (a *Accessor) DataType() subvol.DataType { return a.dtype }

// Dims returns the voxel dimensions of the volume.
func (a *Accessor) Dims() subvol.Point3d { return a.dims }

// NumVoxels returns the number of voxels in the volume.
func (a *Accessor) NumVoxels() uint64 { return a.count }

// TypeMin returns the smallest value of the element type, for seeding a maximum.
func (a *Accessor) TypeMin() float64 { return a.dtype.Min() }

// TypeMax returns the largest value of the element type, for seeding a minimum.
func (a *Accessor) TypeMax() float64 { return a.dtype.Max() }

// Sample returns the scalar value of the voxel at flat index i.  Indices at or past
// NumVoxels panic.
func (a *Accessor) Sample(i uint64) float64 {
	off := int(i) * a.stride
	return a.decode(a.data[off : off+a.stride])
}

// ReadRange decodes len(dst) consecutive samples starting at flat index start into dst
// and returns the number decoded, which is short only at the end of the volume.
func (a *Accessor) ReadRange(start uint64, dst []float64) int {
	if start >= a.count {
		return 0
	}
	n := len(dst)
	if remain := a.count - start; uint64(n) > remain {
		n = int(remain)
	}
	off := int(start) * a.stride
	for i := 0; i < n; i++ {
		dst[i] = a.decode(a.data[off:])
		off += a.stride
	}
	return n
}

// Close unmaps the volume and closes the file.
func (a *Accessor) Close() error {
	if a.data != nil {
		if err := a.data.Unmap(); err != nil {
			return &subvol.IOError{Op: "unmap volume", Path: a.path, Err: err}
		}
		a.data = nil
	}
	if a.f != nil {
		err := a.f.Close()
		a.f = nil
		if err != nil {
			return &subvol.IOError{Op: "close volume", Path: a.path, Err: err}
		}
	}
	return nil
}
