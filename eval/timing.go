// Package eval - Per-frame latency statistics.
package eval

import (
	"math"
	"sort"
	"time"
)

// TimingStats captures per-frame processing latency for a run.
type TimingStats struct {
	Samples         int           `json:"samples"`
	Total           time.Duration `json:"total"`
	Mean            time.Duration `json:"mean"`
	P50             time.Duration `json:"p50"`
	P90             time.Duration `json:"p90"`
	P99             time.Duration `json:"p99"`
	FramesPerSecond float64       `json:"frames_per_second"`
}

// NewTimingStats summarizes a slice of per-frame durations. The input is
// not modified.
func NewTimingStats(samples []time.Duration) TimingStats {
	if len(samples) == 0 {
		return TimingStats{}
	}

	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	stats := TimingStats{
		Samples: len(sorted),
		Total:   total,
		Mean:    total / time.Duration(len(sorted)),
		P50:     percentile(sorted, 0.50),
		P90:     percentile(sorted, 0.90),
		P99:     percentile(sorted, 0.99),
	}
	if total > 0 {
		stats.FramesPerSecond = float64(len(sorted)) / total.Seconds()
	}
	return stats
}

// percentile picks the nearest-rank percentile from an ascending slice.
func percentile(sorted []time.Duration, q float64) time.Duration {
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
