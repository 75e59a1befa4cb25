// Package boxes - Bounding box geometry and overlap metrics.
package boxes

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
)

// Box is an axis-aligned bounding box in pixel coordinates.
//
// X1,Y1 is the top-left corner and X2,Y2 the bottom-right corner. Both
// corners are part of the box, so a box with X1 == X2 and Y1 == Y2 still
// covers a single pixel. See IoU for the overlap math this implies.
type Box struct {
	X1 float32 `json:"x1" yaml:"x1"`
	Y1 float32 `json:"y1" yaml:"y1"`
	X2 float32 `json:"x2" yaml:"x2"`
	Y2 float32 `json:"y2" yaml:"y2"`
}

// New returns a box spanning the two given corners.
func New(x1, y1, x2, y2 float32) Box {
	return Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// FromCenter builds a box from a center point and a width and height,
// the layout used by YOLO-style model outputs.
//
// Arguments:
//   - cx, cy: The center of the box.
//   - w, h: The full width and height.
//
// Returns:
//   - Box: The corner-form box.
func FromCenter(cx, cy, w, h float32) Box {
	return Box{
		X1: cx - w/2,
		Y1: cy - h/2,
		X2: cx + w/2,
		Y2: cy + h/2,
	}
}

// FromRect converts an image.Rectangle to a Box.
//
// image.Rectangle treats Max as exclusive while Box corners are inclusive,
// so the bottom-right corner moves in by one pixel.
func FromRect(r image.Rectangle) Box {
	r = r.Canon()
	return Box{
		X1: float32(r.Min.X),
		Y1: float32(r.Min.Y),
		X2: float32(r.Max.X - 1),
		Y2: float32(r.Max.Y - 1),
	}
}

// ToRect converts the box to an image.Rectangle.
//
// This method converts floating-point coordinates to integer coordinates
// suitable for image processing operations. The exclusive Max corner of
// image.Rectangle sits one pixel past the inclusive bottom-right corner.
//
// Returns:
//   - An image.Rectangle with canonicalized coordinates.
func (b Box) ToRect() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2)+1, int(b.Y2)+1).Canon()
}

// Canon returns the box with its corners swapped as needed so that
// X1 <= X2 and Y1 <= Y2. Inverted input boxes are tolerated everywhere
// in this package, but callers that persist boxes should canonicalize
// them first.
func (b Box) Canon() Box {
	if b.X1 > b.X2 {
		b.X1, b.X2 = b.X2, b.X1
	}
	if b.Y1 > b.Y2 {
		b.Y1, b.Y2 = b.Y2, b.Y1
	}
	return b
}

// Width returns the pixel width of the box, counting both edge columns.
// Inverted boxes clamp to zero.
func (b Box) Width() float32 {
	return math32.Max(0, b.X2-b.X1+1)
}

// Height returns the pixel height of the box, counting both edge rows.
// Inverted boxes clamp to zero.
func (b Box) Height() float32 {
	return math32.Max(0, b.Y2-b.Y1+1)
}

// Area returns the pixel area of the box under the inclusive-corner
// convention, so a single-pixel box has area 1.
//
// Returns:
//   - The area in pixels as float32, zero for inverted boxes.
func (b Box) Area() float32 {
	return b.Width() * b.Height()
}

// Empty reports whether the box covers no pixels.
func (b Box) Empty() bool {
	return b.X2 < b.X1 || b.Y2 < b.Y1
}

// Intersect returns the overlapping region of the two boxes.
//
// The result may be inverted when the boxes do not overlap; check
// Empty before using it.
//
// Arguments:
//   - o: The other box to intersect with.
//
// Returns:
//   - Box: The intersection region.
func (b Box) Intersect(o Box) Box {
	return Box{
		X1: math32.Max(b.X1, o.X1),
		Y1: math32.Max(b.Y1, o.Y1),
		X2: math32.Min(b.X2, o.X2),
		Y2: math32.Min(b.Y2, o.Y2),
	}
}

// Clip constrains the box to the given bounds, typically the image frame.
//
// Arguments:
//   - bounds: The region to clip against.
//
// Returns:
//   - Box: The clipped box. It may be empty when the box lies fully
//     outside the bounds.
func (b Box) Clip(bounds Box) Box {
	return Box{
		X1: math32.Max(b.X1, bounds.X1),
		Y1: math32.Max(b.Y1, bounds.Y1),
		X2: math32.Min(b.X2, bounds.X2),
		Y2: math32.Min(b.Y2, bounds.Y2),
	}
}

// Scale multiplies all coordinates by the given factors. Used to map
// boxes between model input resolution and the original image.
func (b Box) Scale(sx, sy float32) Box {
	return Box{
		X1: b.X1 * sx,
		Y1: b.Y1 * sy,
		X2: b.X2 * sx,
		Y2: b.Y2 * sy,
	}
}

// Translate shifts the box by the given offsets.
func (b Box) Translate(dx, dy float32) Box {
	return Box{
		X1: b.X1 + dx,
		Y1: b.Y1 + dy,
		X2: b.X2 + dx,
		Y2: b.Y2 + dy,
	}
}

func (b Box) String() string {
	return fmt.Sprintf("(%f, %f), (%f, %f)", b.X1, b.Y1, b.X2, b.Y2)
}
