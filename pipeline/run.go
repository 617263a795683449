/*
Package pipeline runs the block relevance preprocessor: it validates a configuration,
loads the transfer function, maps the raw volume, runs the statistics and relevance
passes and writes the resulting index.
*/
package pipeline

import (
	"context"

	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/subvol/analysis"
	"github.com/janelia-flyem/subvol/indexfile"
	"github.com/janelia-flyem/subvol/subvol"
	"github.com/janelia-flyem/subvol/tfunc"
	"github.com/janelia-flyem/subvol/volume"
)

// Run executes a full preprocessing run for the configuration and returns the index it
// wrote.  Nothing is written unless both passes and assembly succeed.
func Run(ctx context.Context, c *Config) (*indexfile.IndexFile, error) {
	timedLog := subvol.NewTimeLog()
	if err := c.ApplyDescriptor(); err != nil {
		return nil, err
	}
	s, err := c.Validate()
	if err != nil {
		return nil, err
	}

	// The transfer function is loaded before any voxel is touched.
	tf, err := tfunc.Load(s.Transfer)
	if err != nil {
		return nil, err
	}
	subvol.Infof("Loaded transfer function %s with %d control points\n", tf.Name(), tf.Len())

	stats, relevance, err := analyze(s, tf)
	if err != nil {
		return nil, err
	}

	idx, err := indexfile.Assemble(indexfile.Inputs{
		Stats:            stats,
		VolumeDims:       s.Grid.VolumeDims,
		DataType:         s.DataType,
		RawPath:          s.Raw,
		TransferFunction: tf.Name(),
		Counts:           s.Grid.Counts,
		BlockDims:        s.Grid.BlockDims,
		Relevance:        relevance,
		TMin:             s.TMin,
		TMax:             s.TMax,
	})
	if err != nil {
		return nil, err
	}

	// Both outputs are encoded before anything is written, and the index is written last
	// so a failed export never leaves an index behind.
	data, err := indexfile.Encode(idx, s.Format, s.Compress)
	if err != nil {
		return nil, err
	}
	if s.Arrow != "" {
		table, err := indexfile.EncodeArrow(idx)
		if err != nil {
			return nil, err
		}
		if err := indexfile.WriteBytes(ctx, s.Arrow, table); err != nil {
			return nil, err
		}
		subvol.Infof("Exported block table to %s (%s)\n", s.Arrow, humanize.Bytes(uint64(len(table))))
	}
	if err := indexfile.WriteBytes(ctx, s.Output, data); err != nil {
		return nil, err
	}
	subvol.Infof("Wrote %s index of %d blocks to %s (%s)\n", s.Format, len(idx.Blocks), s.Output, humanize.Bytes(uint64(len(data))))
	timedLog.Infof("Indexed %s with %d blocks into %s", s.Raw, len(idx.Blocks), s.Output)
	return idx, nil
}

// analyze maps the volume for the duration of both passes.
func analyze(s *Settings, tf *tfunc.TransferFunction) (subvol.VolumeStats, []float64, error) {
	acc, err := volume.Open(s.Raw, s.DataType, s.Grid.VolumeDims)
	if err != nil {
		return subvol.VolumeStats{}, nil, err
	}
	defer acc.Close()

	volBytes := acc.NumVoxels() * uint64(s.DataType.Bytes())
	subvol.Infof("Analyzing %s (%s, %s %s) as %s\n", s.Raw, humanize.Bytes(volBytes), s.Grid.VolumeDims, s.DataType, s.Grid)
	if !s.Grid.Covers() {
		subvol.Warningf("Block grid extent %s does not cover volume %s; trailing voxels are ignored\n",
			s.Grid.Extent(), s.Grid.VolumeDims)
	}

	stats, err := analysis.ComputeStats(acc, s.Analysis)
	if err != nil {
		return subvol.VolumeStats{}, nil, err
	}
	relevance, err := analysis.ComputeRelevance(acc, stats, tf, s.Grid, s.Analysis)
	if err != nil {
		return subvol.VolumeStats{}, nil, err
	}
	return stats, relevance, nil
}
