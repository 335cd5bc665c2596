// Package geom provides the planar geometry used by the canvas: points, sizes
// and the connector curve.
//
// All coordinates are canvas pixels with the origin at the top-left corner and
// y growing downwards, matching SVG user space.
package geom

import (
	"math"
	"strconv"
)

// Point is a position on the canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p translated by -q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// IsFinite reports whether both coordinates are finite.
func (p Point) IsFinite() bool { return isFinite(p.X) && isFinite(p.Y) }

// Size is a width/height pair, e.g. the measured body of a node.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// IsValid reports whether both dimensions are finite and non-negative.
func (s Size) IsValid() bool {
	return isFinite(s.W) && isFinite(s.H) && s.W >= 0 && s.H >= 0
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Num formats v in the shortest decimal form that round-trips, without an
// exponent. Negative zero prints as "0".
func Num(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Translate renders an SVG translate transform for p.
func Translate(p Point) string {
	return "translate(" + Num(p.X) + ", " + Num(p.Y) + ")"
}
