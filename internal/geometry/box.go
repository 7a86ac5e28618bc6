package geometry

import (
	"fmt"
	"math"
)

// Point is a location in original (challenge surface) space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle. (X1, Y1) is the top-left corner and
// (X2, Y2) the bottom-right; both edges are part of the rectangle.
type Rect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns X2 - X1.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns Y2 - Y1.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// Finite reports whether every coordinate is a finite number.
func (r Rect) Finite() bool {
	return finite(r.X1) && finite(r.Y1) && finite(r.X2) && finite(r.Y2)
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.1f,%.1f)-(%.1f,%.1f)", r.X1, r.Y1, r.X2, r.Y2)
}

// Box is a detection box in model space, in the detector's (y1, x1, y2, x2)
// order.
type Box struct {
	Y1 float64 `json:"y1"`
	X1 float64 `json:"x1"`
	Y2 float64 `json:"y2"`
	X2 float64 `json:"x2"`
}

// BoxFromSlice reads a box from four consecutive detector values
// (y1, x1, y2, x2). It panics if v has fewer than four elements.
func BoxFromSlice(v []float64) Box {
	return Box{Y1: v[0], X1: v[1], Y2: v[2], X2: v[3]}
}

// DisplayRatio holds the per-axis factors that map model space onto the
// rendered image.
type DisplayRatio struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both factors are finite and non-zero.
func (r DisplayRatio) Valid() bool {
	return finite(r.X) && finite(r.Y) && r.X != 0 && r.Y != 0
}

// LetterboxRatio returns the ratio produced by padding a width x height
// image to a square of side max(width, height) before it is resized to the
// model input. Non-positive sizes give a zero ratio.
func LetterboxRatio(width, height int) DisplayRatio {
	if width <= 0 || height <= 0 {
		return DisplayRatio{}
	}
	side := float64(width)
	if height > width {
		side = float64(height)
	}
	return DisplayRatio{X: side / float64(width), Y: side / float64(height)}
}

// Normalized carries a model box expressed in both target spaces.
type Normalized struct {
	// Scaled is the box in display space, used for drawing.
	Scaled Rect `json:"scaled"`

	// Original is the box in challenge surface space, used for matching.
	Original Rect `json:"original"`
}

// Normalize maps a model-space box into display and original space.
// Non-finite results from a degenerate ratio are returned as is.
func Normalize(b Box, r DisplayRatio) Normalized {
	return Normalized{
		Scaled: Rect{
			X1: b.X1 * r.X,
			Y1: b.Y1 * r.Y,
			X2: b.X2 * r.X,
			Y2: b.Y2 * r.Y,
		},
		Original: Rect{
			X1: b.X1 / r.X,
			Y1: b.Y1 / r.Y,
			X2: b.X2 / r.X,
			Y2: b.Y2 / r.Y,
		},
	}
}

// Denormalize maps a display-space rectangle back into model space.
func Denormalize(scaled Rect, r DisplayRatio) Box {
	return Box{
		Y1: scaled.Y1 / r.Y,
		X1: scaled.X1 / r.X,
		Y2: scaled.Y2 / r.Y,
		X2: scaled.X2 / r.X,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
