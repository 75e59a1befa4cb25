// Package inference - Raw model output decoding.
package inference

import (
	"github.com/JoDeMiro/go-detlab/boxes"
	"github.com/JoDeMiro/go-detlab/detect"
)

// DecodeOutput converts a raw YOLO-style [1 x (4+classes) x anchors] output
// tensor into detections in the original image's coordinate space.
//
// The tensor is laid out channel-major: the first four channels hold the
// box center, width and height in model input coordinates, followed by one
// score channel per class. Each anchor takes the class with the highest
// score; anchors below the configured score threshold are dropped here so
// NMS only sees plausible candidates.
//
// Arguments:
//   - output: The flattened output tensor data.
//   - cfg: The detector configuration the output was produced with.
//   - origWidth, origHeight: The dimensions of the original image.
//
// Returns:
//   - The decoded detections, clipped to the image, without labels.
func DecodeOutput(output []float32, cfg Config, origWidth, origHeight int) []detect.Detection {
	anchors := cfg.AnchorCount()
	numClasses := cfg.NumClasses()
	if len(output) < anchors*(4+numClasses) {
		return nil
	}

	sx := float32(origWidth) / float32(cfg.InputSize)
	sy := float32(origHeight) / float32(cfg.InputSize)
	frame := boxes.New(0, 0, float32(origWidth)-1, float32(origHeight)-1)

	detections := make([]detect.Detection, 0, 64)
	for idx := 0; idx < anchors; idx++ {
		// Find the class with the highest score for this anchor.
		classID := 0
		score := float32(-1e9)
		for col := 0; col < numClasses; col++ {
			if prob := output[anchors*(col+4)+idx]; prob > score {
				score = prob
				classID = col
			}
		}
		if score < cfg.Detect.ScoreThreshold {
			continue
		}

		xc, yc := output[idx], output[anchors+idx]
		w, h := output[2*anchors+idx], output[3*anchors+idx]
		box := boxes.FromCenter(xc, yc, w, h).Scale(sx, sy).Clip(frame)
		if box.Empty() {
			continue
		}

		detections = append(detections, detect.Detection{
			Box:   box,
			Score: score,
			Class: classID,
		})
	}
	return detections
}
