// Package boxes - Intersection over Union scoring.
package boxes

import "github.com/chewxy/math32"

// IoU (Intersection over Union) measures the extent of overlap between two
// bounding boxes as a value between 0.0 and 1.0.
//
// See also:
//   - https://pyimagesearch.com/2016/11/07/intersection-over-union-iou-for-object-detection/
//
// It is defined by the formula:
//
//	IoU = Area of Intersection / Area of Union
//
//	- A value of 1.0 means the boxes are identical; they overlap perfectly.
//	- A value of 0.0 means the boxes don't overlap at all.
//
// This implementation uses the pixel-inclusive convention: both corners of a
// Box are part of the box, so every width and height carries a +1 term. A
// box whose corners coincide covers one pixel and has IoU 1.0 with itself,
// and two boxes that merely share an edge still overlap by one pixel row or
// column. Detection benchmarks that annotate boxes as inclusive pixel
// coordinates (the Pascal VOC style) expect exactly this arithmetic; for
// the continuous convention where X2,Y2 are exclusive, use IoUContinuous.
//
// The computation runs in three steps:
//
//  1. The intersection corners come from the maximum of the top-left corners
//     and the minimum of the bottom-right corners. A zero or negative
//     inclusive width or height means the boxes are disjoint and the result
//     clamps to 0.0.
//
//  2. The union area follows the Principle of Inclusion-Exclusion:
//
//     Union(A, B) = Area(A) + Area(B) - Intersection(A, B)
//
//  3. The ratio of the two areas is the score. A degenerate union of zero
//     area (both boxes inverted past the clamp) returns 0.0 rather than
//     dividing by zero, so the result is never NaN.
//
// Inverted boxes (X2 < X1 or Y2 < Y1) are not an error; their clamped area
// is zero and they score 0.0 against everything.
//
// Arguments:
//   - a: The first box.
//   - b: The other box to compare against.
//
// Returns:
//   - float32: A value between 0.0 and 1.0 representing the IoU score.
func IoU(a, b Box) float32 {
	// The intersection corners: maximum of the starting coordinates and
	// minimum of the ending coordinates.
	ix1 := math32.Max(a.X1, b.X1)
	iy1 := math32.Max(a.Y1, b.Y1)
	ix2 := math32.Min(a.X2, b.X2)
	iy2 := math32.Min(a.Y2, b.Y2)

	// Inclusive widths carry the +1 term. Disjoint boxes produce a zero or
	// negative extent, clamped here so the intersection area is never
	// negative.
	interW := math32.Max(0, ix2-ix1+1)
	interH := math32.Max(0, iy2-iy1+1)
	interArea := interW * interH
	if interArea == 0 {
		return 0.0
	}

	// Inclusion-Exclusion for the union.
	unionArea := a.Area() + b.Area() - interArea
	if unionArea == 0 {
		return 0.0
	}

	return interArea / unionArea
}

// IoUContinuous computes Intersection over Union under the exclusive-corner
// convention where X2,Y2 mark one past the box, like image.Rectangle. Boxes
// that only touch along an edge score 0.0 here, and zero-area boxes score
// 0.0 against everything.
//
// Arguments:
//   - a: The first box.
//   - b: The other box to compare against.
//
// Returns:
//   - float32: A value between 0.0 and 1.0 representing the IoU score.
func IoUContinuous(a, b Box) float32 {
	ix1 := math32.Max(a.X1, b.X1)
	iy1 := math32.Max(a.Y1, b.Y1)
	ix2 := math32.Min(a.X2, b.X2)
	iy2 := math32.Min(a.Y2, b.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	areaA := math32.Max(0, a.X2-a.X1) * math32.Max(0, a.Y2-a.Y1)
	areaB := math32.Max(0, b.X2-b.X1) * math32.Max(0, b.Y2-b.Y1)
	unionArea := areaA + areaB - interArea
	if unionArea == 0 {
		return 0.0
	}

	return interArea / unionArea
}

// IntersectionArea returns the overlapping pixel area of the two boxes
// under the inclusive-corner convention.
func IntersectionArea(a, b Box) float32 {
	w := math32.Max(0, math32.Min(a.X2, b.X2)-math32.Max(a.X1, b.X1)+1)
	h := math32.Max(0, math32.Min(a.Y2, b.Y2)-math32.Max(a.Y1, b.Y1)+1)
	return w * h
}

// UnionArea returns the combined pixel area of the two boxes under the
// inclusive-corner convention, counting the overlap once.
func UnionArea(a, b Box) float32 {
	return a.Area() + b.Area() - IntersectionArea(a, b)
}
