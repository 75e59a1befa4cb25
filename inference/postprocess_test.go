package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoDeMiro/go-detlab/detect"
)

// testConfig is a small 32x32 model with three classes, giving 21 anchors
// (16 + 4 + 1 across the three strides).
func testConfig() Config {
	return Config{
		ModelPath:  "model.onnx",
		InputName:  "images",
		OutputName: "output0",
		InputSize:  32,
		Labels:     []string{"person", "car", "dog"},
		Detect: detect.Config{
			ScoreThreshold: 0.5,
			IoUThreshold:   0.45,
			ClassAware:     true,
		},
	}
}

// setAnchor writes one candidate box into a channel-major output tensor.
func setAnchor(output []float32, anchors, idx int, xc, yc, w, h float32, scores ...float32) {
	output[idx] = xc
	output[anchors+idx] = yc
	output[2*anchors+idx] = w
	output[3*anchors+idx] = h
	for class, score := range scores {
		output[anchors*(4+class)+idx] = score
	}
}

func TestAnchorCount(t *testing.T) {
	assert.Equal(t, 8400, Config{InputSize: 640}.AnchorCount())
	assert.Equal(t, 2100, Config{InputSize: 320}.AnchorCount())
	assert.Equal(t, 21, Config{InputSize: 32}.AnchorCount())
}

func TestDecodeOutput(t *testing.T) {
	cfg := testConfig()
	anchors := cfg.AnchorCount()
	require.Equal(t, 21, anchors)

	output := make([]float32, anchors*(4+cfg.NumClasses()))
	// A 16x16 box centered in the 32x32 model space, class "car".
	setAnchor(output, anchors, 3, 16, 16, 16, 16, 0, 0.9, 0)

	// Original image is 64x64, so every coordinate doubles.
	detections := DecodeOutput(output, cfg, 64, 64)
	require.Len(t, detections, 1)

	d := detections[0]
	assert.Equal(t, 1, d.Class)
	assert.InDelta(t, 0.9, float64(d.Score), 1e-6)
	assert.InDelta(t, 16, float64(d.Box.X1), 1e-4)
	assert.InDelta(t, 16, float64(d.Box.Y1), 1e-4)
	assert.InDelta(t, 48, float64(d.Box.X2), 1e-4)
	assert.InDelta(t, 48, float64(d.Box.Y2), 1e-4)
	assert.Empty(t, d.Label, "decode leaves labeling to the caller")
}

func TestDecodeOutputPicksBestClass(t *testing.T) {
	cfg := testConfig()
	anchors := cfg.AnchorCount()

	output := make([]float32, anchors*(4+cfg.NumClasses()))
	setAnchor(output, anchors, 0, 10, 10, 4, 4, 0.2, 0.7, 0.6)

	detections := DecodeOutput(output, cfg, 32, 32)
	require.Len(t, detections, 1)
	assert.Equal(t, 1, detections[0].Class)
	assert.InDelta(t, 0.7, float64(detections[0].Score), 1e-6)
}

func TestDecodeOutputScoreThreshold(t *testing.T) {
	cfg := testConfig()
	anchors := cfg.AnchorCount()

	output := make([]float32, anchors*(4+cfg.NumClasses()))
	setAnchor(output, anchors, 0, 10, 10, 4, 4, 0.49, 0, 0)
	setAnchor(output, anchors, 1, 20, 20, 4, 4, 0.51, 0, 0)

	detections := DecodeOutput(output, cfg, 32, 32)
	require.Len(t, detections, 1)
	assert.InDelta(t, 0.51, float64(detections[0].Score), 1e-6)
}

func TestDecodeOutputClipsToImage(t *testing.T) {
	cfg := testConfig()
	anchors := cfg.AnchorCount()

	output := make([]float32, anchors*(4+cfg.NumClasses()))
	// Box hangs past the right edge of the model space.
	setAnchor(output, anchors, 0, 30, 16, 12, 8, 0.8, 0, 0)

	detections := DecodeOutput(output, cfg, 64, 64)
	require.Len(t, detections, 1)

	d := detections[0]
	assert.InDelta(t, 48, float64(d.Box.X1), 1e-4)
	assert.InDelta(t, 24, float64(d.Box.Y1), 1e-4)
	assert.InDelta(t, 63, float64(d.Box.X2), 1e-4, "clipped to the last pixel column")
	assert.InDelta(t, 40, float64(d.Box.Y2), 1e-4)
}

func TestDecodeOutputEmptyAndShort(t *testing.T) {
	cfg := testConfig()
	anchors := cfg.AnchorCount()

	// All-zero output decodes to nothing.
	output := make([]float32, anchors*(4+cfg.NumClasses()))
	assert.Empty(t, DecodeOutput(output, cfg, 64, 64))

	// A truncated tensor is rejected rather than read out of bounds.
	assert.Nil(t, DecodeOutput(output[:10], cfg, 64, 64))
}

func BenchmarkDecodeOutput(b *testing.B) {
	cfg := DefaultConfig("model.onnx")
	anchors := cfg.AnchorCount()
	output := make([]float32, anchors*(4+cfg.NumClasses()))
	for idx := 0; idx < anchors; idx += 100 {
		setAnchor(output, anchors, idx, 320, 320, 40, 40, 0.9)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DecodeOutput(output, cfg, 1920, 1080)
	}
}
