// Package inference - Model input preparation.
package inference

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// PrepareInput resizes the image to the model resolution and writes it
// into the destination tensor as planar CHW float32 in the range [0, 1].
//
// Arguments:
//   - img: The image to prepare.
//   - dst: The destination tensor to populate.
//   - size: The square model input resolution in pixels.
//
// Returns:
//   - error: An error if the tensor is too small for the requested size.
func PrepareInput(img image.Image, dst *ort.Tensor[float32], size int) error {
	return fillInput(img, dst.GetData(), size)
}

// fillInput is the tensor-free core of PrepareInput.
func fillInput(img image.Image, data []float32, size int) error {
	channelSize := size * size
	if len(data) < channelSize*3 {
		return errors.Errorf("destination tensor holds %d floats, needs %d (wrong shape?)",
			len(data), channelSize*3)
	}
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	// Resize to the model resolution using the Lanczos3 kernel.
	img = resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return nil
}
