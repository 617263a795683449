package subvol

import "fmt"

// VolumeStats holds global statistics of the raw scalars of a volume.
type VolumeStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Total float64 `json:"tot"`

	// Count is the number of voxels visited.  It is not persisted in index files.
	Count uint64 `json:"-"`
}

// Degenerate returns true if every voxel holds the same value, in which case
// normalization is undefined.
func (s VolumeStats) Degenerate() bool {
	return s.Min == s.Max
}

func (s VolumeStats) String() string {
	return fmt.Sprintf("min %g, max %g, avg %g, total %g over %d voxels", s.Min, s.Max, s.Avg, s.Total, s.Count)
}
