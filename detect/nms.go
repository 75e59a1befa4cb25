// Package detect - Non-Maximum Suppression over detection results.
package detect

import (
	"sync"

	"github.com/JoDeMiro/go-detlab/boxes"
)

// NMS filters overlapping detections using Non-Maximum Suppression.
//
// Detections are sorted by descending score, then each surviving anchor
// suppresses every lower-scored detection whose IoU with it exceeds the
// configured threshold. With ClassAware set, suppression only applies
// between detections of the same class, and classes are processed
// independently, across a worker pool when NumWorkers allows it.
//
// The input slice is reordered in place by score; the returned slice holds
// the survivors, highest score first.
//
// Arguments:
//   - detections: The candidate detections, in any order.
//   - config: Suppression parameters.
//
// Returns:
//   - Filtered slice of detections. If no detections are provided, returns nil.
func NMS(detections []Detection, config Config) []Detection {
	if len(detections) == 0 {
		return nil
	}

	SortByScore(detections)

	if !config.ClassAware {
		return greedySuppress(detections, config.IoUThreshold)
	}

	// Partition by class, preserving score order within each group.
	groups := make(map[int][]Detection)
	order := make([]int, 0)
	for _, d := range detections {
		if _, seen := groups[d.Class]; !seen {
			order = append(order, d.Class)
		}
		groups[d.Class] = append(groups[d.Class], d)
	}

	workers := config.NumWorkers
	if workers <= 1 || len(groups) == 1 {
		filtered := make([]Detection, 0, len(detections))
		for _, class := range order {
			filtered = append(filtered, greedySuppress(groups[class], config.IoUThreshold)...)
		}
		SortByScore(filtered)
		return filtered
	}

	// Each class group is independent, so suppression parallelizes cleanly.
	type result struct {
		slot int
		kept []Detection
	}
	jobs := make(chan int, len(order))
	results := make(chan result, len(order))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for slot := range jobs {
				results <- result{
					slot: slot,
					kept: greedySuppress(groups[order[slot]], config.IoUThreshold),
				}
			}
		}()
	}

	for slot := range order {
		jobs <- slot
	}
	close(jobs)
	wg.Wait()
	close(results)

	filtered := make([]Detection, 0, len(detections))
	for r := range results {
		filtered = append(filtered, r.kept...)
	}
	SortByScore(filtered)
	return filtered
}

// greedySuppress performs standard greedy Non-Maximum Suppression on a
// slice already sorted by descending score.
//
// Arguments:
//   - detections: Slice of detections sorted by descending score.
//   - iouThreshold: IoU threshold above which overlapping boxes are suppressed.
//
// Returns:
//   - Filtered slice of detections.
func greedySuppress(detections []Detection, iouThreshold float32) []Detection {
	n := len(detections)
	if n == 0 {
		return nil
	}

	filtered := make([]Detection, 0, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := detections[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}

			// Suppress if IoU exceeds threshold.
			if boxes.IoU(anchor.Box, detections[j].Box) > iouThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}
