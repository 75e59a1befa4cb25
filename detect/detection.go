// Package detect - Detection results, filtering and Non-Maximum Suppression.
package detect

import (
	"fmt"
	"sort"

	"github.com/JoDeMiro/go-detlab/boxes"
)

// Detection represents a single detected object.
type Detection struct {
	// The bounding box of the detection.
	Box boxes.Box `json:"box" yaml:"box"`
	// The confidence score of the detection.
	Score float32 `json:"score" yaml:"score"`
	// The predicted class index of the detection.
	Class int `json:"class" yaml:"class"`
	// The human-readable label for the class, when known.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

func (d Detection) String() string {
	return fmt.Sprintf("Object %s (score %f): %s", d.Label, d.Score, d.Box)
}

// SortByScore orders detections by descending score in place. NMS and the
// evaluation matcher both expect this ordering.
func SortByScore(detections []Detection) {
	sort.Slice(detections, func(i, j int) bool {
		return detections[i].Score > detections[j].Score
	})
}

// FilterByScore returns the detections scoring at or above the threshold.
//
// Arguments:
//   - detections: The candidate detections.
//   - threshold: The minimum score to keep.
//
// Returns:
//   - The surviving detections, in their original order.
func FilterByScore(detections []Detection, threshold float32) []Detection {
	filtered := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if d.Score >= threshold {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// Labeled fills in the Label field of each detection from the given class
// name table. Unknown class indices keep an empty label.
func Labeled(detections []Detection, names []string) []Detection {
	for i := range detections {
		if detections[i].Class >= 0 && detections[i].Class < len(names) {
			detections[i].Label = names[detections[i].Class]
		}
	}
	return detections
}
