package analysis

import (
	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/subvol/subvol"
)

// Evaluator maps a normalized scalar in [0,1] to a relevance value.
type Evaluator interface {
	Evaluate(x float64) float64
}

// BlockSums holds one running relevance sum per block in flat block order.
type BlockSums []float64

// MergeBlockSums adds b into a element-wise and returns a.  Both must have the same length.
func MergeBlockSums(a, b BlockSums) BlockSums {
	for i, v := range b {
		a[i] += v
	}
	return a
}

// ComputeRelevance returns the average transfer function output of every block of grid,
// indexed by flat block index.  Each voxel scalar is normalized by the global range in
// stats before evaluation.  Voxels outside the grid extent are skipped.  Block sums are
// divided by the nominal block voxel count, so a grid that does not cover the volume
// still divides by the full block size.
//
// A volume with min == max has no defined normalization and every relevance is zero.
func ComputeRelevance(src Source, stats subvol.VolumeStats, tf Evaluator, grid BlockGrid, opts Options) ([]float64, error) {
	numBlocks := grid.NumBlocks()
	relevance := make([]float64, numBlocks)
	if stats.Degenerate() {
		subvol.Warningf("Volume is uniform with value %g; all %d block relevances are zero\n", stats.Min, numBlocks)
		return relevance, nil
	}

	timedLog := subvol.NewTimeLog()
	dims := src.Dims()
	width := stats.Max - stats.Min
	spans := opts.spans(src.NumVoxels())
	partials := make([]BlockSums, len(spans))
	err := opts.sweep(spans, func(part int, s span) error {
		sums := make(BlockSums, numBlocks)
		buf := make([]float64, minUint64(samplesPerRead, s.end-s.start))
		pos := subvol.Point3dFromIndex(s.start, dims)
		err := readSpan(src, s, buf, func(_ uint64, samples []float64) {
			for _, v := range samples {
				block := pos.Chunk(grid.BlockDims)
				if block.Within(grid.Counts) {
					sums[block.Index(grid.Counts)] += tf.Evaluate((v - stats.Min) / width)
				}
				pos = pos.Next(dims)
			}
		})
		partials[part] = sums
		return err
	})
	if err != nil {
		return nil, err
	}
	subvol.Debugf("Relevance pass used %d partitions with %s of block sums\n", len(spans),
		humanize.Bytes(uint64(size.Of(partials))))

	total := BlockSums(relevance)
	for _, p := range partials {
		total = MergeBlockSums(total, p)
	}
	blockVoxels := float64(grid.BlockVoxels())
	for i := range total {
		total[i] /= blockVoxels
	}
	timedLog.Infof("Computed relevance of %d blocks (%s)", numBlocks, grid)
	return total, nil
}
