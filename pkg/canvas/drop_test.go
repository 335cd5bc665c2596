package canvas

import (
	"math"
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
)

func TestSnap(t *testing.T) {
	extent := geom.Size{W: 600, H: 400}
	tests := []struct {
		name string
		p    geom.Point
		unit float64
		ext  geom.Size
		want geom.Point
	}{
		{"palette drop", geom.Pt(133, 47), 40, extent, geom.Pt(120, 40)},
		{"exact grid point", geom.Pt(80, 80), 40, extent, geom.Pt(80, 80)},
		{"half rounds up", geom.Pt(20, 60), 40, extent, geom.Pt(40, 80)},
		{"negative clamps to zero", geom.Pt(-75, -1), 40, extent, geom.Pt(0, 0)},
		{"beyond extent clamps to last cell", geom.Pt(5000, 399), 40, extent, geom.Pt(560, 360)},
		{"uneven extent", geom.Pt(1000, 1000), 40, geom.Size{W: 610, H: 410}, geom.Pt(600, 400)},
		{"zero unit", geom.Pt(133, 47), 0, extent, geom.Point{}},
		{"negative unit", geom.Pt(133, 47), -40, extent, geom.Point{}},
		{"empty extent", geom.Pt(133, 47), 40, geom.Size{}, geom.Point{}},
		{"NaN coordinate", geom.Pt(math.NaN(), 47), 40, extent, geom.Pt(0, 40)},
		{"infinite coordinate", geom.Pt(math.Inf(1), math.Inf(-1)), 40, extent, geom.Pt(560, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Snap(tt.p, tt.unit, tt.ext); got != tt.want {
				t.Errorf("Snap(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestSnapOnGridWithinExtent(t *testing.T) {
	units := []float64{1, 7, 40, 60}
	extents := []geom.Size{{W: 600, H: 400}, {W: 13, H: 999}, {W: 1, H: 1}}

	for _, unit := range units {
		for _, ext := range extents {
			for x := -100.0; x <= 1100; x += 37.3 {
				for y := -100.0; y <= 1100; y += 41.9 {
					got := Snap(geom.Pt(x, y), unit, ext)
					if math.Mod(got.X, unit) != 0 || math.Mod(got.Y, unit) != 0 {
						t.Fatalf("Snap(%v, %v) = %v is off grid", geom.Pt(x, y), unit, got)
					}
					if got.X < 0 || got.X >= ext.W || got.Y < 0 || got.Y >= ext.H {
						t.Fatalf("Snap(%v, %v, %v) = %v is outside the extent", geom.Pt(x, y), unit, ext, got)
					}
				}
			}
		}
	}
}

func TestDropPlacer(t *testing.T) {
	d := DropPlacer{
		Origin: geom.Pt(10, 100),
		Unit:   40,
		Extent: geom.Size{W: 600, H: 400},
		Schema: testSchema(),
	}

	c, err := d.Drop("add", geom.Pt(143, 147), true)
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if c.Kind != "add" || c.Position != geom.Pt(120, 40) {
		t.Errorf("Drop() = %+v, want add at (120, 40)", c)
	}

	if _, err := d.Drop("add", geom.Point{}, false); !errors.Is(err, errors.ErrCodeUnresolvableDrop) {
		t.Errorf("missing offset: err = %v, want UNRESOLVABLE_DROP", err)
	}
	if _, err := d.Drop("mystery", geom.Pt(0, 0), true); !errors.Is(err, errors.ErrCodeUnresolvableDrop) {
		t.Errorf("unknown kind: err = %v, want UNRESOLVABLE_DROP", err)
	}
}
