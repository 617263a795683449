package analysis

import (
	"math"

	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/subvol/subvol"
)

// compensatedSum is a Neumaier-compensated float64 accumulator.
type compensatedSum struct {
	sum float64
	c   float64
}

func (k *compensatedSum) add(x float64) {
	t := k.sum + x
	if math.Abs(k.sum) >= math.Abs(x) {
		k.c += (k.sum - t) + x
	} else {
		k.c += (x - t) + k.sum
	}
	k.sum = t
}

func (k compensatedSum) merge(o compensatedSum) compensatedSum {
	k.add(o.sum)
	k.c += o.c
	return k
}

func (k compensatedSum) value() float64 {
	return k.sum + k.c
}

// StatsPartial accumulates scalar statistics over part of a volume.
type StatsPartial struct {
	Min   float64
	Max   float64
	Count uint64
	sum   compensatedSum
}

// NewStatsPartial returns an empty accumulator whose min is seeded with the largest
// value of the element type and whose max is seeded with the smallest.
func NewStatsPartial(typeMin, typeMax float64) StatsPartial {
	return StatsPartial{Min: typeMax, Max: typeMin}
}

// Add folds one sample into the accumulator.
func (p *StatsPartial) Add(v float64) {
	if v < p.Min {
		p.Min = v
	}
	if v > p.Max {
		p.Max = v
	}
	p.sum.add(v)
	p.Count++
}

// Sum returns the compensated total of all added samples.
func (p StatsPartial) Sum() float64 {
	return p.sum.value()
}

// Stats returns the volume statistics of the accumulated samples.
func (p StatsPartial) Stats() subvol.VolumeStats {
	s := subvol.VolumeStats{
		Min:   p.Min,
		Max:   p.Max,
		Total: p.sum.value(),
		Count: p.Count,
	}
	if p.Count > 0 {
		s.Avg = s.Total / float64(p.Count)
	}
	return s
}

// MergeStats combines two partial accumulators: pairwise min and max, compensated
// addition of sums, and addition of counts.
func MergeStats(a, b StatsPartial) StatsPartial {
	out := StatsPartial{
		Min:   math.Min(a.Min, b.Min),
		Max:   math.Max(a.Max, b.Max),
		Count: a.Count + b.Count,
		sum:   a.sum.merge(b.sum),
	}
	return out
}

// ComputeStats sweeps every voxel of src once and returns its global min, max, total and
// average.
func ComputeStats(src Source, opts Options) (subvol.VolumeStats, error) {
	timedLog := subvol.NewTimeLog()
	spans := opts.spans(src.NumVoxels())
	partials := make([]StatsPartial, len(spans))
	err := opts.sweep(spans, func(part int, s span) error {
		acc := NewStatsPartial(src.TypeMin(), src.TypeMax())
		buf := make([]float64, minUint64(samplesPerRead, s.end-s.start))
		err := readSpan(src, s, buf, func(_ uint64, samples []float64) {
			for _, v := range samples {
				acc.Add(v)
			}
		})
		partials[part] = acc
		return err
	})
	if err != nil {
		return subvol.VolumeStats{}, err
	}

	total := NewStatsPartial(src.TypeMin(), src.TypeMax())
	for _, p := range partials {
		total = MergeStats(total, p)
	}
	stats := total.Stats()
	subvol.Debugf("Stats pass used %d partitions with %s of accumulators\n", len(spans),
		humanize.Bytes(uint64(size.Of(partials))))
	timedLog.Infof("Computed stats over %d voxels (%s)", stats.Count, stats)
	return stats, nil
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
