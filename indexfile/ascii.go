package indexfile

import (
	"bufio"
	"fmt"
	"io"
)

// WriteASCII writes a human readable dump of the index header followed by one line per
// block.
func WriteASCII(w io.Writer, idx *IndexFile) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "version: %s\n", idx.Version)
	fmt.Fprintf(bw, "run_id: %s\n", idx.RunID)
	fmt.Fprintf(bw, "created: %s\n", idx.Created.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(bw, "world_dims: %s\n", idx.WorldDims)
	fmt.Fprintf(bw, "vol_stats: min %g max %g avg %g tot %g\n",
		idx.Stats.Min, idx.Stats.Max, idx.Stats.Avg, idx.Stats.Total)
	fmt.Fprintf(bw, "volume: name %s path %s vox_dims %s rov_min %g rov_max %g\n",
		idx.Volume.Name, idx.Volume.Path, idx.Volume.VoxDims, idx.Volume.RelevanceMin, idx.Volume.RelevanceMax)
	fmt.Fprintf(bw, "tr_func: %s\n", idx.TransferFunction)
	fmt.Fprintf(bw, "dtype: %s\n", idx.DataType)
	fmt.Fprintf(bw, "num_blocks: %s\n", idx.NumBlocks)
	fmt.Fprintf(bw, "blocks_extent: %s\n", idx.BlocksExtent)
	fmt.Fprintf(bw, "blocks: %d\n", len(idx.Blocks))
	for _, b := range idx.Blocks {
		fmt.Fprintln(bw, b)
	}
	return bw.Flush()
}
