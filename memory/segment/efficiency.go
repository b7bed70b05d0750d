package segment

import (
	"github.com/montanaflynn/stats"
)

// FreeBlockStats summarizes the distribution of free segment sizes.
type FreeBlockStats struct {
	Count   int     `json:"count"`
	Total   int     `json:"total"`
	Largest int     `json:"largest"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"std_dev"`
}

// FreeBlockStats reports how free memory is spread across free segments.
// A single free block means no external fragmentation.
func (a *Allocator) FreeBlockStats() FreeBlockStats {
	var sizes stats.Float64Data
	for _, s := range a.segs {
		if !s.Allocated {
			sizes = append(sizes, float64(s.Size))
		}
	}
	if len(sizes) == 0 {
		return FreeBlockStats{}
	}

	// Errors only arise from empty input, ruled out above.
	total, _ := sizes.Sum()
	largest, _ := sizes.Max()
	mean, _ := sizes.Mean()
	median, _ := sizes.Median()
	sd, _ := sizes.StandardDeviation()

	return FreeBlockStats{
		Count:   len(sizes),
		Total:   int(total),
		Largest: int(largest),
		Mean:    mean,
		Median:  median,
		StdDev:  sd,
	}
}
