package detect

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// PredictionFrame groups the detections of one image.
type PredictionFrame struct {
	// Image is the file name or path the detections belong to.
	Image string `json:"image" yaml:"image"`
	// Detections are the detector outputs for the image.
	Detections []Detection `json:"detections" yaml:"detections"`
}

// PredictionSet is a detection run written to disk, the counterpart of a
// ground truth annotation set. Keeping the score threshold low when
// producing one preserves the raw candidates, so postprocessing can be
// re-tuned later without re-running the detector.
type PredictionSet struct {
	// Model names the detector that produced the set.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// Labels maps class indices to label strings in index order.
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	// Config records the detection config the run used.
	Config Config `json:"config" yaml:"config"`
	// Frames holds the per-image detections.
	Frames []PredictionFrame `json:"frames" yaml:"frames"`
}

// FrameByImage returns the detections recorded for the given image name.
func (p *PredictionSet) FrameByImage(image string) ([]Detection, bool) {
	for _, frame := range p.Frames {
		if frame.Image == image {
			return frame.Detections, true
		}
	}
	return nil, false
}

// TotalDetections counts detections across all frames.
func (p *PredictionSet) TotalDetections() int {
	total := 0
	for _, frame := range p.Frames {
		total += len(frame.Detections)
	}
	return total
}

// LoadPredictions reads a prediction set from a JSON file.
func LoadPredictions(path string) (*PredictionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading predictions %s", path)
	}

	var set PredictionSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, errors.Wrapf(err, "parsing predictions %s", path)
	}
	return &set, nil
}

// Save writes the prediction set as indented JSON.
func (p *PredictionSet) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding predictions")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing predictions %s", path)
	}
	return nil
}
