package analysis

import (
	"fmt"

	"github.com/janelia-flyem/subvol/subvol"
)

// BlockGrid is a regular partitioning of a volume into Counts blocks of BlockDims voxels.
// When a volume dimension is not a multiple of its block count the trailing voxels lie
// outside every block.
type BlockGrid struct {
	VolumeDims subvol.Point3d
	Counts     subvol.ChunkPoint3d
	BlockDims  subvol.Point3d
}

// NewBlockGrid returns the grid of the given block counts over a volume.  Each count must
// lie within [1, volume dim].
func NewBlockGrid(volumeDims subvol.Point3d, counts subvol.ChunkPoint3d) (BlockGrid, error) {
	axes := [3]string{"x", "y", "z"}
	for i := 0; i < 3; i++ {
		if volumeDims[i] <= 0 {
			return BlockGrid{}, &subvol.ConfigError{Field: "volume " + axes[i] + " dim", Value: volumeDims[i],
				Msg: "must be positive"}
		}
		if counts[i] < 1 {
			return BlockGrid{}, &subvol.ConfigError{Field: "block count " + axes[i], Value: counts[i],
				Msg: "must be at least 1"}
		}
		if counts[i] > volumeDims[i] {
			return BlockGrid{}, &subvol.ConfigError{Field: "block count " + axes[i], Value: counts[i],
				Msg: fmt.Sprintf("exceeds volume dim %d", volumeDims[i])}
		}
	}
	return BlockGrid{
		VolumeDims: volumeDims,
		Counts:     counts,
		BlockDims:  volumeDims.Div(subvol.Point3d(counts)),
	}, nil
}

// NumBlocks returns the total number of blocks.
func (g BlockGrid) NumBlocks() int {
	return int(g.Counts.Prod())
}

// BlockVoxels returns the nominal number of voxels in one block.
func (g BlockGrid) BlockVoxels() int64 {
	return g.BlockDims.Prod()
}

// Extent returns the voxel extent covered by the grid, i.e. block dims times block counts.
func (g BlockGrid) Extent() subvol.Point3d {
	return g.BlockDims.Mult(subvol.Point3d(g.Counts))
}

// Covers returns true if every voxel of the volume belongs to a block.
func (g BlockGrid) Covers() bool {
	return g.Extent() == g.VolumeDims
}

func (g BlockGrid) String() string {
	return fmt.Sprintf("%s blocks of %s voxels over %s", g.Counts, g.BlockDims, g.VolumeDims)
}
