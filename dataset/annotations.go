// Package dataset - Ground truth annotation sets for detection evaluation.
package dataset

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/JoDeMiro/go-detlab/boxes"
)

// Annotation is one labeled object inside a frame.
type Annotation struct {
	// The class label of the object.
	Label string `json:"label" yaml:"label"`
	// The class index of the object, resolved against Set.Labels.
	Class int `json:"class" yaml:"class"`
	// The ground truth bounding box, inclusive pixel coordinates.
	Box boxes.Box `json:"box" yaml:"box"`
}

// Frame groups the annotations of one image.
type Frame struct {
	// Image is the file name or path the annotations belong to.
	Image string `json:"image" yaml:"image"`
	// Objects are the annotated boxes in the image.
	Objects []Annotation `json:"objects" yaml:"objects"`
}

// Set is a full annotation set, the unit the evaluator consumes.
type Set struct {
	// Optional name for reports.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Labels maps class indices to label strings in index order.
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	// Frames holds the per-image annotations.
	Frames []Frame `json:"frames" yaml:"frames"`
}

// ClassIndex resolves a label to its class index, registering it at the
// next free index when unseen. CSV loading builds the label table this way,
// first seen first.
func (s *Set) ClassIndex(label string) int {
	for i, known := range s.Labels {
		if known == label {
			return i
		}
	}
	s.Labels = append(s.Labels, label)
	return len(s.Labels) - 1
}

// FrameByImage returns the frame annotated for the given image name.
func (s *Set) FrameByImage(image string) (Frame, bool) {
	for _, frame := range s.Frames {
		if frame.Image == image {
			return frame, true
		}
	}
	return Frame{}, false
}

// TotalObjects counts annotations across all frames.
func (s *Set) TotalObjects() int {
	total := 0
	for _, frame := range s.Frames {
		total += len(frame.Objects)
	}
	return total
}

// LoadSet reads an annotation set from a JSON file.
//
// Arguments:
//   - path: The annotation file path.
//
// Returns:
//   - *Set: The parsed annotation set.
//   - error: An error if reading or parsing fails.
func LoadSet(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading annotations %s", path)
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, errors.Wrapf(err, "parsing annotations %s", path)
	}
	return &set, nil
}

// Save writes the annotation set as indented JSON.
func (s *Set) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding annotations")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing annotations %s", path)
	}
	return nil
}
