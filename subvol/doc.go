/*
	Package subvol provides types, constants, and functions that have no other dependencies
	and can be used by all packages within the subvol preprocessor.  This includes the
	voxel and block coordinate types, element data types, the error taxonomy, leveled
	logging, and the compression/checksum serialization used by binary index files.

	Whenever the units of a type are different, e.g., a voxel coordinate versus a block
	coordinate, we use a separate type to reinforce the distinct natures of the values.
	Conversions between the two are explicit and take the block size or block counts.
*/
package subvol
