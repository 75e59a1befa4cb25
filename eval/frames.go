package eval

import (
	"github.com/JoDeMiro/go-detlab/dataset"
	"github.com/JoDeMiro/go-detlab/detect"
)

// PairFrames aligns a prediction set with ground truth annotations into the
// per-frame units the evaluator consumes.
//
// Truth frames come first, in annotation order, each paired with the
// detections recorded for its image name. Prediction frames with no
// matching annotations are appended with empty truth, so stray detections
// on unannotated images still count as false positives.
func PairFrames(preds *detect.PredictionSet, truth *dataset.Set) []FrameResult {
	frames := make([]FrameResult, 0, len(truth.Frames))
	seen := make(map[string]bool, len(truth.Frames))

	for _, annotated := range truth.Frames {
		frame := FrameResult{Image: annotated.Image, Truth: annotated.Objects}
		if preds != nil {
			if detections, ok := preds.FrameByImage(annotated.Image); ok {
				frame.Detections = detections
			}
		}
		seen[annotated.Image] = true
		frames = append(frames, frame)
	}

	if preds != nil {
		for _, predicted := range preds.Frames {
			if seen[predicted.Image] || len(predicted.Detections) == 0 {
				continue
			}
			frames = append(frames, FrameResult{
				Image:      predicted.Image,
				Detections: predicted.Detections,
			})
		}
	}

	return frames
}
