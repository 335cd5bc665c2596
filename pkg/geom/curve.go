package geom

import (
	"math"
	"strings"
)

// MaxCurveExtent caps how far the first control point may be pushed right of
// the source anchor on steep connectors.
const MaxCurveExtent = 104

// Curve is the structured form of a connector: a quadratic segment from Start
// through Control to Mid, continued by a smooth quadratic segment to End whose
// control point is the reflection of Control about Mid.
type Curve struct {
	Start   Point
	Control Point
	Mid     Point
	End     Point
}

// ControlX returns the x coordinate of the first control point for a
// connector from p1 to p2. The offset from p1.X is max(dx/4, min(104, |dy|/2)).
func ControlX(p1, p2 Point) float64 {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	return p1.X + math.Max(math.Min(MaxCurveExtent, math.Abs(dy/2)), dx/4)
}

// NewCurve computes the connector between two anchors.
func NewCurve(p1, p2 Point) Curve {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	return Curve{
		Start:   p1,
		Control: Point{X: ControlX(p1, p2), Y: p1.Y},
		Mid:     Point{X: p1.X + dx/2, Y: p1.Y + dy/2},
		End:     p2,
	}
}

// Path renders c as SVG path data: "M x1 y1 Q qx y1 mx my T x2 y2".
func (c Curve) Path() string {
	var b strings.Builder
	b.Grow(64)
	b.WriteString("M ")
	writePoint(&b, c.Start)
	b.WriteString(" Q ")
	writePoint(&b, c.Control)
	b.WriteByte(' ')
	writePoint(&b, c.Mid)
	b.WriteString(" T ")
	writePoint(&b, c.End)
	return b.String()
}

// CurvePath returns the SVG path data of the connector from p1 to p2.
// The path always starts with the literal coordinates of p1 and ends with
// those of p2, including the degenerate case p1 == p2.
func CurvePath(p1, p2 Point) string {
	return NewCurve(p1, p2).Path()
}

func writePoint(b *strings.Builder, p Point) {
	b.WriteString(Num(p.X))
	b.WriteByte(' ')
	b.WriteString(Num(p.Y))
}
