// Package surface implements the retained vector canvas the engine renders into.
//
// A [Surface] is an SVG document with three persistent layer groups, drawn
// bottom to top:
//
//	g.edges    connectors
//	g.nodes    node groups, each with an embedded-content container
//	g.preview  the drag-preview connector
//
// Each layer is reconciled independently. Elements are plain retained nodes
// ([Element]); nothing is rebuilt between passes unless a reconciler removes it.
// The whole document can be serialized with [Surface.WriteSVG].
package surface

import (
	"bytes"
	"fmt"
	"io"

	"github.com/matzehuels/flowcanvas/pkg/geom"
)

// Layer names, in paint order.
const (
	LayerEdges   = "edges"
	LayerNodes   = "nodes"
	LayerPreview = "preview"
)

// Layers lists the persistent layers in paint order.
var Layers = []string{LayerEdges, LayerNodes, LayerPreview}

// DefaultStyle is the stylesheet embedded in every surface unless replaced
// with [WithStyle].
const DefaultStyle = `
    g.node > foreignObject { overflow: visible }
    g.node > g.frame circle.port { cursor: grab }
    g.node > g.frame circle.port.hidden { display: none }
    g.edge.hidden { display: none }
    g.edge > path.curve { fill: none }
    g.preview.hidden { display: none }
    g.preview > path.curve { stroke: gray; stroke-width: 6px; fill: none; stroke-dasharray: 8 6 }
    g.preview > circle { fill: white; stroke: dimgrey; stroke-width: 4px }`

// Option configures a Surface.
type Option func(*Surface)

// WithStyle replaces the embedded stylesheet. An empty string omits it.
func WithStyle(css string) Option { return func(s *Surface) { s.style = css } }

// WithGrid draws a dot grid background with the given unit spacing.
func WithGrid(unit float64) Option { return func(s *Surface) { s.grid = unit } }

// Surface is the render target of one canvas.
type Surface struct {
	root   *Element
	layers map[string]*Element
	size   geom.Size
	style  string
	grid   float64
}

// New creates a surface of the given pixel size with empty layers.
func New(size geom.Size, opts ...Option) *Surface {
	s := &Surface{style: DefaultStyle, size: size}
	for _, opt := range opts {
		opt(s)
	}
	s.root = NewElement("svg")
	s.root.SetAttr("xmlns", "http://www.w3.org/2000/svg")
	s.layers = make(map[string]*Element, len(Layers))
	for _, name := range Layers {
		s.layers[name] = s.root.Append("g").SetAttr("class", name)
	}
	s.applySize()
	return s
}

// Root returns the svg element.
func (s *Surface) Root() *Element { return s.root }

// Layer returns the persistent group for name, or nil for an unknown layer.
func (s *Surface) Layer(name string) *Element { return s.layers[name] }

// Size returns the pixel size of the surface.
func (s *Surface) Size() geom.Size { return s.size }

// Resize changes the pixel size without touching the layers.
func (s *Surface) Resize(size geom.Size) {
	s.size = size
	s.applySize()
}

// Reset removes everything from all layers. The layer groups themselves persist.
func (s *Surface) Reset() {
	for _, name := range Layers {
		s.layers[name].Clear()
	}
}

func (s *Surface) applySize() {
	w, h := geom.Num(s.size.W), geom.Num(s.size.H)
	s.root.SetAttr("width", w).
		SetAttr("height", h).
		SetAttr("viewBox", "0 0 "+w+" "+h)
}

// SVG returns the serialized document.
func (s *Surface) SVG() []byte {
	var buf bytes.Buffer
	_ = s.WriteSVG(&buf)
	return buf.Bytes()
}

// WriteSVG serializes the document to w.
func (s *Surface) WriteSVG(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("<svg")
	writeAttrs(ew, s.root)
	ew.printf(">\n")
	if s.style != "" {
		ew.printf("  <style>%s\n  </style>\n", s.style)
	}
	if s.grid > 0 {
		writeGrid(ew, s.grid, s.size)
	}
	for _, c := range s.root.children {
		writeElement(ew, c, 1)
	}
	ew.printf("</svg>\n")
	return ew.err
}

func writeGrid(ew *errWriter, unit float64, size geom.Size) {
	u := geom.Num(unit)
	ew.printf("  <defs><pattern id=\"grid\" width=\"%s\" height=\"%s\" patternUnits=\"userSpaceOnUse\">", u, u)
	ew.printf("<circle cx=\"0\" cy=\"0\" r=\"1\" fill=\"#000000\"/></pattern></defs>\n")
	ew.printf("  <rect class=\"grid\" width=\"%s\" height=\"%s\" fill=\"url(#grid)\"/>\n",
		geom.Num(size.W), geom.Num(size.H))
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
