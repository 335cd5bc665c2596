package canvas

import (
	"math"

	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
)

// Snap rounds p to the nearest grid point and clamps it into the canvas.
//
// Each coordinate is rounded to the nearest grid index (halves away from
// zero) and the index is clamped to [0, ceil(extent/unit)-1], so the result
// is a multiple of unit within [0, extent). A non-positive unit or extent
// yields the origin.
func Snap(p geom.Point, unit float64, extent geom.Size) geom.Point {
	if !(unit > 0) || !(extent.W > 0) || !(extent.H > 0) {
		return geom.Point{}
	}
	return geom.Pt(snapAxis(p.X, unit, extent.W), snapAxis(p.Y, unit, extent.H))
}

func snapAxis(v, unit, extent float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	last := math.Ceil(extent/unit) - 1
	i := max(0, min(math.Round(v/unit), last))
	return i * unit
}

// DropPlacer turns a palette drop into a create-node request.
type DropPlacer struct {
	// Origin is the position of the canvas in the pointer's coordinate
	// space. It is subtracted from every drop offset.
	Origin geom.Point

	Unit   float64
	Extent geom.Size

	// Schema, when set, rejects drops of undeclared kinds.
	Schema graph.Schema
}

// Place converts a pointer position into a snapped canvas position.
func (d DropPlacer) Place(pointer geom.Point) geom.Point {
	return Snap(pointer.Sub(d.Origin), d.Unit, d.Extent)
}

// Drop resolves a palette drop. ok reports whether the gesture library could
// supply the pointer offset; when it could not, or when the kind is unknown,
// the drop is unresolvable and no intent should be emitted.
func (d DropPlacer) Drop(kind string, offset geom.Point, ok bool) (CreateNode, error) {
	if !ok || !offset.IsFinite() {
		return CreateNode{}, errors.New(errors.ErrCodeUnresolvableDrop, "drop of %q has no pointer offset", kind)
	}
	if d.Schema != nil {
		if _, known := d.Schema[kind]; !known {
			return CreateNode{}, errors.New(errors.ErrCodeUnresolvableDrop, "unknown palette kind %q", kind)
		}
	}
	return CreateNode{Kind: kind, Position: d.Place(offset)}, nil
}
