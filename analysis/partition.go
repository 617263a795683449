package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/subvol/subvol"
)

// samplesPerRead is the number of samples decoded from the source per ReadRange call.
const samplesPerRead = 64 * 1024

// Source is a flat, read-only view of voxel scalars.
type Source interface {
	Dims() subvol.Point3d
	NumVoxels() uint64
	TypeMin() float64
	TypeMax() float64

	// ReadRange decodes consecutive samples starting at a flat index into dst and
	// returns the number decoded.
	ReadRange(start uint64, dst []float64) int
}

// Options controls the parallel decomposition of a pass.  Zero values select defaults.
type Options struct {
	// Workers is the maximum number of goroutines sweeping partitions.  Defaults to the
	// number of CPUs.
	Workers int

	// Partitions is the number of contiguous voxel ranges the volume is split into.
	// Defaults to 4 times the number of workers and never exceeds the voxel count.
	Partitions int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return subvol.NumCPU
}

// span is a half-open range [start, end) of flat voxel indices.
type span struct {
	start, end uint64
}

// spans splits count voxels into contiguous, nearly equal partitions.
func (o Options) spans(count uint64) []span {
	n := uint64(o.Partitions)
	if n == 0 {
		n = uint64(4 * o.workers())
	}
	if n > count {
		n = count
	}
	if n == 0 {
		return nil
	}
	spans := make([]span, n)
	per, extra := count/n, count%n
	var start uint64
	for i := uint64(0); i < n; i++ {
		end := start + per
		if i < extra {
			end++
		}
		spans[i] = span{start, end}
		start = end
	}
	return spans
}

// sweep runs fn over every partition on at most o.workers() goroutines.  fn receives the
// partition number so it can write into a private accumulator slot.
func (o Options) sweep(spans []span, fn func(part int, s span) error) error {
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(o.workers())
	for i, s := range spans {
		part, s := i, s
		g.Go(func() error {
			return fn(part, s)
		})
	}
	return g.Wait()
}

// readSpan streams the samples of s from src in chunks, calling fn with each chunk and
// the flat index of its first sample.
func readSpan(src Source, s span, buf []float64, fn func(start uint64, samples []float64)) error {
	for pos := s.start; pos < s.end; {
		want := s.end - pos
		if want > uint64(len(buf)) {
			want = uint64(len(buf))
		}
		n := src.ReadRange(pos, buf[:want])
		if n == 0 {
			return &subvol.IOError{Op: "read voxels", Path: fmt.Sprintf("[%d,%d)", s.start, s.end),
				Err: fmt.Errorf("source ended at voxel %d", pos)}
		}
		fn(pos, buf[:n])
		pos += uint64(n)
	}
	return nil
}
