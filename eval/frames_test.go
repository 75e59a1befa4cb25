package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoDeMiro/go-detlab/boxes"
	"github.com/JoDeMiro/go-detlab/dataset"
	"github.com/JoDeMiro/go-detlab/detect"
)

// TestPairFrames aligns predictions with truth by image name.
func TestPairFrames(t *testing.T) {
	truth := &dataset.Set{
		Frames: []dataset.Frame{
			{Image: "a.jpg", Objects: []dataset.Annotation{{Label: "airplane", Box: boxes.Box{X1: 10, Y1: 10, X2: 50, Y2: 50}}}},
			{Image: "b.jpg", Objects: []dataset.Annotation{{Label: "truck", Box: boxes.Box{X1: 5, Y1: 5, X2: 25, Y2: 25}}}},
		},
	}
	preds := &detect.PredictionSet{
		Frames: []detect.PredictionFrame{
			{Image: "b.jpg", Detections: []detect.Detection{{Box: boxes.Box{X1: 6, Y1: 6, X2: 26, Y2: 26}, Score: 0.9, Class: 1}}},
			{Image: "stray.jpg", Detections: []detect.Detection{{Box: boxes.Box{X1: 1, Y1: 1, X2: 9, Y2: 9}, Score: 0.8, Class: 0}}},
			{Image: "empty.jpg"},
		},
	}

	frames := PairFrames(preds, truth)
	require.Len(t, frames, 3)

	assert.Equal(t, "a.jpg", frames[0].Image)
	assert.Empty(t, frames[0].Detections, "no predictions recorded for a.jpg")
	assert.Len(t, frames[0].Truth, 1)

	assert.Equal(t, "b.jpg", frames[1].Image)
	assert.Len(t, frames[1].Detections, 1)
	assert.Len(t, frames[1].Truth, 1)

	assert.Equal(t, "stray.jpg", frames[2].Image, "unannotated detections still count")
	assert.Len(t, frames[2].Detections, 1)
	assert.Empty(t, frames[2].Truth)
}

// TestPairFramesNilPredictions pairs truth against nothing, leaving every
// frame all-misses.
func TestPairFramesNilPredictions(t *testing.T) {
	truth := &dataset.Set{
		Frames: []dataset.Frame{
			{Image: "a.jpg", Objects: []dataset.Annotation{{Label: "airplane", Box: boxes.Box{X1: 10, Y1: 10, X2: 50, Y2: 50}}}},
		},
	}

	frames := PairFrames(nil, truth)
	require.Len(t, frames, 1)
	assert.Empty(t, frames[0].Detections)

	m := Evaluate(frames, 0.5, false)
	assert.Equal(t, 0, m.TruePositives)
	assert.Equal(t, 1, m.FalseNegatives)
}
