// Package content provides the default body renderer for canvas nodes and
// the matching layout oracles.
//
// [Params] draws a header label and one text-input row per declared
// parameter into the embedded-content container of each node. Because the
// rows have a fixed height, the rendered size can be computed from the
// schema alone ([Measure]), which keeps headless rendering deterministic.
package content

import (
	"unicode/utf8"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
)

// Default body metrics, in pixels.
const (
	DefaultNodeWidth   = 120
	DefaultParamHeight = 24

	// MarginX is the horizontal padding inside the node body.
	MarginX = 8
	// CharWidth approximates the advance of one label character.
	CharWidth = 8
	// FontSize is the font size of labels.
	FontSize = 12
	// InputMargin is the vertical offset of a text input within its row.
	InputMargin = 2
)

// Metrics are the sizing constants of node bodies.
type Metrics struct {
	canvas.Layout
	NodeWidth   float64
	ParamHeight float64
}

// DefaultMetrics returns the default metrics with the default port layout.
func DefaultMetrics() Metrics {
	return Metrics{
		Layout:      canvas.DefaultLayout(),
		NodeWidth:   DefaultNodeWidth,
		ParamHeight: DefaultParamHeight,
	}
}

// ParamOffset returns the vertical offset of the parameter row at index.
func (m Metrics) ParamOffset(index int) float64 {
	return m.HeaderHeight + m.ParamHeight*float64(index)
}

// Measure returns the body size of a node of the given kind. The width fits
// the label and is at least NodeWidth. The height fits every parameter row
// and every port.
func Measure(kind string, spec graph.KindSpec, m Metrics) geom.Size {
	label := float64(utf8.RuneCountInString(spec.DisplayLabel(kind)))*CharWidth + 2*MarginX
	rows := m.ParamOffset(len(spec.Params))
	ports := m.PortOffset(max(len(spec.Inputs), len(spec.Outputs)))
	return geom.Size{W: max(m.NodeWidth, label), H: max(rows, ports)}
}

// SchemaOracle returns a layout oracle that measures nodes from their kind
// declaration. lookup resolves a node id against the current graph; unknown
// ids and undeclared kinds are reported as not measured.
func SchemaOracle(schema graph.Schema, m Metrics, lookup func(id int) (graph.Node, bool)) canvas.LayoutOracle {
	return func(id int) (geom.Size, bool) {
		n, ok := lookup(id)
		if !ok {
			return geom.Size{}, false
		}
		spec, ok := schema.Spec(n.Kind)
		if !ok {
			return geom.Size{}, false
		}
		return Measure(n.Kind, spec, m), true
	}
}
