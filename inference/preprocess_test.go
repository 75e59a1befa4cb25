package inference

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFillInputUniformColor(t *testing.T) {
	const size = 16
	img := uniformImage(32, 24, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	data := make([]float32, size*size*3)
	require.NoError(t, fillInput(img, data, size))

	channelSize := size * size
	// Resampling a constant image keeps it constant, so every pixel of
	// each plane lands on its channel's value.
	for i := 0; i < channelSize; i++ {
		assert.InDelta(t, 200.0/255.0, float64(data[i]), 0.02)
		assert.InDelta(t, 100.0/255.0, float64(data[channelSize+i]), 0.02)
		assert.InDelta(t, 50.0/255.0, float64(data[2*channelSize+i]), 0.02)
	}
}

func TestFillInputRange(t *testing.T) {
	const size = 8
	white := uniformImage(8, 8, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	black := uniformImage(8, 8, color.RGBA{A: 255})

	data := make([]float32, size*size*3)
	require.NoError(t, fillInput(white, data, size))
	for _, v := range data {
		assert.InDelta(t, 1.0, float64(v), 1e-6)
	}

	require.NoError(t, fillInput(black, data, size))
	for _, v := range data {
		assert.InDelta(t, 0.0, float64(v), 1e-6)
	}
}

func TestFillInputShortBuffer(t *testing.T) {
	img := uniformImage(4, 4, color.RGBA{A: 255})
	err := fillInput(img, make([]float32, 10), 16)
	assert.ErrorContains(t, err, "needs 768")
}
