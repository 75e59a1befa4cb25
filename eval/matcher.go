// Package eval - Scoring detections against ground truth annotations.
package eval

import (
	"sort"

	"github.com/JoDeMiro/go-detlab/boxes"
	"github.com/JoDeMiro/go-detlab/dataset"
	"github.com/JoDeMiro/go-detlab/detect"
)

// Match pairs one detection with the annotation it claimed.
type Match struct {
	// Index into the frame's detections.
	Detection int `json:"detection"`
	// Index into the frame's annotations.
	Truth int `json:"truth"`
	// The overlap score of the pair.
	IoU float32 `json:"iou"`
}

// MatchResult holds the outcome of matching one frame.
type MatchResult struct {
	Matches        []Match `json:"matches"`
	UnmatchedDets  []int   `json:"unmatched_detections"`
	UnmatchedTruth []int   `json:"unmatched_truth"`
}

// MatchFrame greedily pairs detections with ground truth boxes.
//
// Detections are visited in descending score order. Each one claims the
// still-unclaimed annotation it overlaps best, provided that IoU reaches
// the threshold; anything else becomes a false positive, and annotations
// left unclaimed become false negatives. With classAware set, only pairs
// of the same class may match.
//
// The input slices are not modified; indices in the result refer to the
// original order.
//
// Arguments:
//   - detections: The frame's detections, in any order.
//   - truth: The frame's ground truth annotations.
//   - iouThreshold: Minimum IoU for a detection to count as a hit.
//   - classAware: Restrict matching to same-class pairs.
//
// Returns:
//   - MatchResult: Matched pairs and both kinds of leftovers.
func MatchFrame(
	detections []detect.Detection,
	truth []dataset.Annotation,
	iouThreshold float32,
	classAware bool,
) MatchResult {
	order := make([]int, len(detections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return detections[order[a]].Score > detections[order[b]].Score
	})

	claimed := make([]bool, len(truth))
	var result MatchResult

	for _, di := range order {
		det := detections[di]

		best := -1
		var bestIoU float32
		for ti, ann := range truth {
			if claimed[ti] {
				continue
			}
			if classAware && det.Class != ann.Class {
				continue
			}
			if iou := boxes.IoU(det.Box, ann.Box); iou > bestIoU {
				bestIoU = iou
				best = ti
			}
		}

		if best >= 0 && bestIoU >= iouThreshold {
			claimed[best] = true
			result.Matches = append(result.Matches, Match{
				Detection: di,
				Truth:     best,
				IoU:       bestIoU,
			})
		} else {
			result.UnmatchedDets = append(result.UnmatchedDets, di)
		}
	}

	for ti := range truth {
		if !claimed[ti] {
			result.UnmatchedTruth = append(result.UnmatchedTruth, ti)
		}
	}

	return result
}
