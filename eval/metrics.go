// Package eval - Precision, recall and overlap metrics.
package eval

import (
	"github.com/JoDeMiro/go-detlab/dataset"
	"github.com/JoDeMiro/go-detlab/detect"
)

// Metrics summarizes detection quality at one IoU threshold.
type Metrics struct {
	IoUThreshold   float32 `json:"iou_threshold"`
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
	// MeanIoU is the average overlap of the matched pairs only.
	MeanIoU float64 `json:"mean_iou"`
}

// FrameResult pairs one frame's detections with its annotations, the unit
// the evaluator consumes.
type FrameResult struct {
	Image      string               `json:"image"`
	Detections []detect.Detection   `json:"detections"`
	Truth      []dataset.Annotation `json:"truth"`
}

// Evaluate scores all frames at a single IoU threshold.
//
// Arguments:
//   - frames: Per-frame detections paired with ground truth.
//   - iouThreshold: Minimum IoU for a detection to count as a hit.
//   - classAware: Restrict matching to same-class pairs.
//
// Returns:
//   - Metrics: Aggregated counts, precision, recall, F1 and mean IoU.
func Evaluate(frames []FrameResult, iouThreshold float32, classAware bool) Metrics {
	m := Metrics{IoUThreshold: iouThreshold}

	var iouSum float64
	for _, frame := range frames {
		result := MatchFrame(frame.Detections, frame.Truth, iouThreshold, classAware)
		m.TruePositives += len(result.Matches)
		m.FalsePositives += len(result.UnmatchedDets)
		m.FalseNegatives += len(result.UnmatchedTruth)
		for _, match := range result.Matches {
			iouSum += float64(match.IoU)
		}
	}

	if m.TruePositives > 0 {
		m.MeanIoU = iouSum / float64(m.TruePositives)
	}
	if m.TruePositives+m.FalsePositives > 0 {
		m.Precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}
	if m.TruePositives+m.FalseNegatives > 0 {
		m.Recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	return m
}

// Sweep evaluates the same frames at each of the given thresholds.
func Sweep(frames []FrameResult, thresholds []float32, classAware bool) []Metrics {
	sweep := make([]Metrics, 0, len(thresholds))
	for _, threshold := range thresholds {
		sweep = append(sweep, Evaluate(frames, threshold, classAware))
	}
	return sweep
}

// COCOThresholds returns the standard evaluation thresholds 0.50 to 0.95
// in steps of 0.05.
func COCOThresholds() []float32 {
	thresholds := make([]float32, 0, 10)
	for i := 0; i < 10; i++ {
		thresholds = append(thresholds, 0.50+float32(i)*0.05)
	}
	return thresholds
}
