package canvas

import (
	"math"

	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/surface"
)

// Default port layout constants, in pixels.
const (
	DefaultHeaderHeight = 20
	DefaultPortSpacing  = 24
)

// Layout holds the vertical port layout shared by every node kind.
// A port's anchor is HeaderHeight + PortSpacing*index below the node origin.
type Layout struct {
	HeaderHeight float64 `json:"header_height" toml:"header_height"`
	PortSpacing  float64 `json:"port_spacing" toml:"port_spacing"`
}

// DefaultLayout returns the default port layout.
func DefaultLayout() Layout {
	return Layout{HeaderHeight: DefaultHeaderHeight, PortSpacing: DefaultPortSpacing}
}

// PortOffset returns the vertical offset of the port at index.
func (l Layout) PortOffset(index int) float64 {
	return l.HeaderHeight + l.PortSpacing*float64(index)
}

// LayoutOracle reports the measured content size of a node, or false when
// the node has not been laid out yet.
type LayoutOracle func(id int) (geom.Size, bool)

// ParamUpdater reports a new parameter value for a node.
type ParamUpdater func(node int, param, value string)

// ContentRenderer draws the body of a node into its embedded-content
// container. The engine never inspects what was drawn. update is nil when no
// dispatcher is configured.
type ContentRenderer interface {
	Render(container *surface.Element, n graph.Node, spec graph.KindSpec, update ParamUpdater)
}

// ContentReleaser is implemented by content renderers that keep per-node
// state. Release is called when a node's render group is removed.
type ContentReleaser interface {
	Release(id int)
}

// ContentRendererFunc adapts a function to [ContentRenderer].
type ContentRendererFunc func(container *surface.Element, n graph.Node, spec graph.KindSpec, update ParamUpdater)

// Render calls f.
func (f ContentRendererFunc) Render(container *surface.Element, n graph.Node, spec graph.KindSpec, update ParamUpdater) {
	f(container, n, spec, update)
}

// Config is the structural configuration of a canvas.
type Config struct {
	// Unit is the grid spacing in pixels.
	Unit float64

	// Dimensions is the canvas size in grid units: [width, height].
	Dimensions [2]int

	// Schema declares the ports and parameters of every node kind.
	Schema graph.Schema

	// Layout holds the port layout constants. The zero value selects
	// [DefaultLayout].
	Layout Layout

	// OnChange is called after every pass with the current collections.
	// The maps must be treated as read-only.
	OnChange func(nodes map[int]graph.Node, edges map[int]graph.Edge)
}

// Extent returns the canvas size in pixels.
func (c Config) Extent() geom.Size {
	return geom.Size{W: c.Unit * float64(c.Dimensions[0]), H: c.Unit * float64(c.Dimensions[1])}
}

// Validate checks the unit, dimensions and schema.
func (c Config) Validate() error {
	if !(c.Unit > 0) || math.IsInf(c.Unit, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "unit must be a positive number, got %v", c.Unit)
	}
	if c.Dimensions[0] <= 0 || c.Dimensions[1] <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "dimensions must be positive, got %dx%d",
			c.Dimensions[0], c.Dimensions[1])
	}
	if c.Layout.HeaderHeight < 0 || c.Layout.PortSpacing < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout constants must not be negative")
	}
	return c.Schema.Validate()
}

func (c Config) withDefaults() Config {
	if c.Layout == (Layout{}) {
		c.Layout = DefaultLayout()
	}
	if c.Schema == nil {
		c.Schema = graph.Schema{}
	}
	return c
}

// structure identifies the parts of a Config that require a rebuild when
// they change.
type structure struct {
	unit       float64
	dimensions [2]int
	schema     string
	layout     Layout
}

func (c Config) structure() structure {
	return structure{unit: c.Unit, dimensions: c.Dimensions, schema: c.Schema.Hash(), layout: c.Layout}
}

// Context is the shared state of one live canvas. It is rebuilt when the
// structural configuration changes and mutated in place for model updates.
type Context struct {
	// ID identifies the canvas in logs and hooks.
	ID string

	Unit   float64
	Extent geom.Size
	Schema graph.Schema
	Layout Layout

	// Graph is the snapshot passed to the latest update. Never nil.
	Graph *graph.Graph

	// Dimensions caches measured content sizes by node id. An entry exists
	// only for nodes that are present and have been measured.
	Dimensions map[int]geom.Size

	// Surface is nil until the engine is attached.
	Surface *surface.Surface

	// DecorateNode and DecorateEdge run on created and retained render
	// groups, after the engine has updated them.
	DecorateNode func(g *surface.Element, n graph.Node)
	DecorateEdge func(g *surface.Element, e graph.Edge)

	degrade func(err error)
}

func newContext(id string, cfg Config) *Context {
	return &Context{
		ID:         id,
		Unit:       cfg.Unit,
		Extent:     cfg.Extent(),
		Schema:     cfg.Schema,
		Layout:     cfg.Layout,
		Graph:      graph.New(),
		Dimensions: make(map[int]geom.Size),
		degrade:    func(error) {},
	}
}

// Attached reports whether a render surface is available.
func (c *Context) Attached() bool { return c.Surface != nil }

// Measured returns the cached content size of a node.
func (c *Context) Measured(id int) (geom.Size, bool) {
	s, ok := c.Dimensions[id]
	return s, ok
}

// layer returns a persistent layer of the attached surface.
func (c *Context) layer(name string) *surface.Element {
	return c.Surface.Layer(name)
}
