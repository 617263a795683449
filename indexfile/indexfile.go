/*
Package indexfile assembles the block relevance index of a volume and reads and writes it
in JSON, binary and ascii encodings.

An index describes a raw volume (voxel dims, normalized world dims, element type, scalar
statistics), the regular block grid laid over it, and one record per block holding its
position, world-space placement, byte layout and average relevance.  Renderers use the
relevance to decide which blocks to load and at what level of detail.
*/
package indexfile

import (
	"fmt"
	"time"

	"github.com/blang/semver"
	"github.com/twinj/uuid"

	"github.com/janelia-flyem/subvol/subvol"
)

// Version is the current index format version.  Readers accept any index with the same
// major version.
const Version = "2.0.0"

var formatVersion = semver.MustParse(Version)

// VolumeInfo describes the source volume of an index.
type VolumeInfo struct {
	Name      string          `json:"name"`
	Path      string          `json:"path"`
	VoxDims   subvol.Point3d  `json:"vox_dims"`
	WorldDims subvol.Vector3d `json:"world_dims"`

	// RelevanceMin and RelevanceMax bound the block relevances, not the raw scalars.
	RelevanceMin float64 `json:"rov_min"`
	RelevanceMax float64 `json:"rov_max"`
}

// FileBlock is the record of one block of the grid.
type FileBlock struct {
	Index     uint64              `json:"index"`
	IJK       subvol.ChunkPoint3d `json:"ijk"`
	VoxDims   subvol.Point3d      `json:"vox_dims"`
	Dims      subvol.Vector3d     `json:"dims"`
	Origin    subvol.Vector3d     `json:"origin"`
	Offset    uint64              `json:"offset"`
	DataBytes uint64              `json:"data_bytes"`
	Relevance float64             `json:"rel"`
	Empty     bool                `json:"empty"`
}

func (b FileBlock) String() string {
	return fmt.Sprintf("block %d ijk %s voxels %s-%s origin %s offset %d bytes %d rel %g empty %t",
		b.Index, b.IJK, b.IJK.MinPoint(b.VoxDims), b.IJK.MaxPoint(b.VoxDims), b.Origin, b.Offset, b.DataBytes,
		b.Relevance, b.Empty)
}

// IndexFile is the complete index of a volume.  Blocks are ordered by flat block index.
type IndexFile struct {
	Version string    `json:"version"`
	RunID   string    `json:"run_id"`
	Created time.Time `json:"created"`

	WorldDims        subvol.Vector3d     `json:"world_dims"`
	Stats            subvol.VolumeStats  `json:"vol_stats"`
	Volume           VolumeInfo          `json:"volume"`
	TransferFunction string              `json:"tr_func"`
	DataType         subvol.DataType     `json:"dtype"`
	NumBlocks        subvol.ChunkPoint3d `json:"num_blocks"`
	BlocksExtent     subvol.Point3d      `json:"blocks_extent"`
	Blocks           []FileBlock         `json:"blocks"`
}

// Relevance returns the flat per-block relevance array.
func (idx *IndexFile) Relevance() []float64 {
	rel := make([]float64, len(idx.Blocks))
	for i, b := range idx.Blocks {
		rel[i] = b.Relevance
	}
	return rel
}

// NonEmpty returns the blocks whose relevance lies within the empty thresholds.
func (idx *IndexFile) NonEmpty() []FileBlock {
	var blocks []FileBlock
	for _, b := range idx.Blocks {
		if !b.Empty {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// BlockDims returns the voxel dims of every block.
func (idx *IndexFile) BlockDims() subvol.Point3d {
	return idx.BlocksExtent.Div(subvol.Point3d(idx.NumBlocks))
}

// Inputs are the finalized results of a run that make up an index.
type Inputs struct {
	Stats      subvol.VolumeStats
	VolumeDims subvol.Point3d
	DataType   subvol.DataType

	// RawPath is the path of the raw volume; its base name and directory are recorded.
	RawPath string

	// TransferFunction is the name of the transfer function file.
	TransferFunction string

	Counts    subvol.ChunkPoint3d
	BlockDims subvol.Point3d

	// Relevance holds one value per block in flat block order.
	Relevance []float64

	// Blocks with relevance below TMin or above TMax are marked empty.
	TMin, TMax float64
}

// WorldDims returns the volume dims normalized by the largest dimension.
func WorldDims(dims subvol.Point3d) subvol.Vector3d {
	max := float64(dims.MaxComponent())
	return subvol.Vector3d{float64(dims[0]) / max, float64(dims[1]) / max, float64(dims[2]) / max}
}

// Assemble builds the index of a run.  The volume is centered on the world origin, so
// block origins are the world-space centers of each block.
func Assemble(in Inputs) (*IndexFile, error) {
	numBlocks := in.Counts.Prod()
	if numBlocks <= 0 {
		return nil, &subvol.ConfigError{Field: "block counts", Value: in.Counts, Msg: "must be positive"}
	}
	if int64(len(in.Relevance)) != numBlocks {
		return nil, fmt.Errorf("got %d relevance values for %d blocks", len(in.Relevance), numBlocks)
	}
	if in.VolumeDims.MaxComponent() <= 0 {
		return nil, &subvol.ConfigError{Field: "volume dims", Value: in.VolumeDims, Msg: "must be positive"}
	}

	worldDims := WorldDims(in.VolumeDims)
	counts := subvol.Vector3d{float64(in.Counts[0]), float64(in.Counts[1]), float64(in.Counts[2])}
	blockWorld := subvol.Vector3d{worldDims[0] / counts[0], worldDims[1] / counts[1], worldDims[2] / counts[2]}
	halfWorld := worldDims.DivideScalar(2)
	halfBlock := blockWorld.DivideScalar(2)
	dataBytes := uint64(in.BlockDims.Prod()) * uint64(in.DataType.Bytes())

	relMin, relMax := in.Relevance[0], in.Relevance[0]
	blocks := make([]FileBlock, numBlocks)
	for i, rel := range in.Relevance {
		ijk := subvol.ChunkPoint3dFromIndex(uint64(i), in.Counts)
		corner := blockWorld.Mult(subvol.Vector3d{float64(ijk[0]), float64(ijk[1]), float64(ijk[2])}).Subtract(halfWorld)
		blocks[i] = FileBlock{
			Index:     uint64(i),
			IJK:       ijk,
			VoxDims:   in.BlockDims,
			Dims:      blockWorld,
			Origin:    corner.Add(halfBlock),
			Offset:    uint64(i) * dataBytes,
			DataBytes: dataBytes,
			Relevance: rel,
			Empty:     rel < in.TMin || rel > in.TMax,
		}
		if rel < relMin {
			relMin = rel
		}
		if rel > relMax {
			relMax = rel
		}
	}

	dir, name := subvol.SplitPath(in.RawPath)
	idx := &IndexFile{
		Version:   Version,
		RunID:     uuid.NewV4().String(),
		Created:   time.Now().UTC().Truncate(time.Second),
		WorldDims: worldDims,
		Stats:     in.Stats,
		Volume: VolumeInfo{
			Name:         name,
			Path:         dir,
			VoxDims:      in.VolumeDims,
			WorldDims:    worldDims,
			RelevanceMin: relMin,
			RelevanceMax: relMax,
		},
		TransferFunction: in.TransferFunction,
		DataType:         in.DataType,
		NumBlocks:        in.Counts,
		BlocksExtent:     in.BlockDims.Mult(subvol.Point3d(in.Counts)),
		Blocks:           blocks,
	}
	return idx, nil
}

// checkVersion returns a FormatError if an index version is not readable.
func checkVersion(version, path string) error {
	v, err := semver.Parse(version)
	if err != nil {
		return &subvol.FormatError{Path: path, Msg: fmt.Sprintf("bad index version %q: %v", version, err)}
	}
	if v.Major != formatVersion.Major {
		return &subvol.FormatError{Path: path,
			Msg: fmt.Sprintf("index version %s is incompatible with supported version %s", v, formatVersion)}
	}
	return nil
}
