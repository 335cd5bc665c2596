package canvas

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/reconcile"
	"github.com/matzehuels/flowcanvas/pkg/surface"
)

// maxPasses bounds the passes run for one Update call when OnChange keeps
// feeding new graphs back in.
const maxPasses = 16

// Stats summarizes the passes run by one call into the engine.
type Stats struct {
	Nodes reconcile.Stats `json:"nodes"`
	Edges EdgeStats       `json:"edges"`
}

// Changed reports whether any render element was created or removed.
func (s Stats) Changed() bool { return s.Nodes.Changed() || s.Edges.Changed() }

// Add returns the field-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Nodes: s.Nodes.Add(o.Nodes),
		Edges: EdgeStats{Stats: s.Edges.Stats.Add(o.Edges.Stats), Dangling: s.Edges.Dangling + o.Edges.Dangling},
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.base = l } }

// WithDispatcher sets where emitted intents go. Without one the engine emits
// nothing and content renderers receive no update callback.
func WithDispatcher(d Dispatcher) Option { return func(e *Engine) { e.dispatch = d } }

// WithOracle sets the layout oracle used to measure rendered content.
func WithOracle(o LayoutOracle) Option { return func(e *Engine) { e.oracle = o } }

// WithContent sets the renderer for the embedded-content containers.
func WithContent(c ContentRenderer) Option { return func(e *Engine) { e.content = c } }

// WithOrigin sets the canvas position in pointer coordinates, subtracted
// from palette drop offsets.
func WithOrigin(p geom.Point) Option { return func(e *Engine) { e.origin = p } }

// WithDecorators sets caller-controlled styling hooks for node and edge
// groups. Either may be nil.
func WithDecorators(node func(*surface.Element, graph.Node), edge func(*surface.Element, graph.Edge)) Option {
	return func(e *Engine) { e.decorateNode, e.decorateEdge = node, edge }
}

// Engine synchronizes a graph snapshot with a render surface.
type Engine struct {
	id     string
	base   *log.Logger
	logger *log.Logger

	cfg       Config
	structure structure
	ctx       *Context
	nodes     *NodeReconciler
	edges     *EdgeReconciler
	preview   *DragPreview

	dispatch     Dispatcher
	oracle       LayoutOracle
	content      ContentRenderer
	origin       geom.Point
	decorateNode func(*surface.Element, graph.Node)
	decorateEdge func(*surface.Element, graph.Edge)

	running bool
	pending *graph.Graph
}

// New creates an engine for cfg. The engine renders nothing until a surface
// is attached.
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{id: uuid.NewString()}
	for _, opt := range opts {
		opt(e)
	}
	if e.base == nil {
		e.base = log.Default()
	}
	e.logger = e.base.With("canvas", e.id[:8])
	e.rebuild(cfg, graph.New(), nil)
	return e, nil
}

// ID returns the canvas instance id.
func (e *Engine) ID() string { return e.id }

// Context returns the current render context. It is replaced when a
// structural configuration change rebuilds the engine.
func (e *Engine) Context() *Context { return e.ctx }

// Config returns the active configuration.
func (e *Engine) Config() Config { return e.cfg }

// Surface returns the attached surface, or nil.
func (e *Engine) Surface() *surface.Surface { return e.ctx.Surface }

// Preview returns the drag preview.
func (e *Engine) Preview() *DragPreview { return e.preview }

// Attach binds the engine to a render surface, resizes it to the canvas
// extent and renders the current graph into it.
func (e *Engine) Attach(s *surface.Surface) Stats {
	s.Reset()
	s.Resize(e.ctx.Extent)
	e.rebuild(e.cfg, e.ctx.Graph, s)
	e.logger.Debug("attached surface", "width", e.ctx.Extent.W, "height", e.ctx.Extent.H)
	return e.Update(e.ctx.Graph)
}

// Configure applies a new configuration. Changes to the unit, dimensions,
// schema or layout rebuild the context and re-render everything; any other
// change only swaps the OnChange callback.
func (e *Engine) Configure(cfg Config) error {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.structure() == e.structure {
		e.cfg.OnChange = cfg.OnChange
		return nil
	}
	s := e.ctx.Surface
	if s != nil {
		s.Reset()
		s.Resize(cfg.Extent())
	}
	e.rebuild(cfg, e.ctx.Graph, s)
	e.logger.Debug("rebuilt context", "unit", cfg.Unit, "kinds", len(cfg.Schema))
	if s != nil {
		e.Update(e.ctx.Graph)
	}
	return nil
}

func (e *Engine) rebuild(cfg Config, g *graph.Graph, s *surface.Surface) {
	e.cfg = cfg
	e.structure = cfg.structure()

	ctx := newContext(e.id, cfg)
	ctx.Graph = g
	ctx.Surface = s
	ctx.DecorateNode = e.decorateNode
	ctx.DecorateEdge = e.decorateEdge
	ctx.degrade = e.degrade
	e.ctx = ctx

	var update ParamUpdater
	if e.dispatch != nil {
		update = e.updateParam
	}
	e.nodes = newNodeReconciler(ctx, e.content, e.oracle, update)
	e.edges = newEdgeReconciler(ctx)
	e.preview = newDragPreview(ctx)
}

// Update synchronizes the surface with g: nodes first, including
// measurement, then edges. A nil g renders an empty graph.
//
// Update is not reentrant. A call made while a pass is running (for example
// from OnChange or a dispatcher that feeds the store synchronously) records
// g and returns immediately; the outer call then runs one more pass with the
// newest recorded graph.
func (e *Engine) Update(g *graph.Graph) Stats {
	if g == nil {
		g = graph.New()
	}
	if e.running {
		e.pending = g
		return Stats{}
	}
	e.running = true
	defer func() { e.running = false }()

	var st Stats
	for passes := 0; g != nil; passes++ {
		if passes == maxPasses {
			e.logger.Warn("dropping update, too many passes", "passes", passes)
			e.pending = nil
			break
		}
		e.pending = nil
		st = st.Add(e.pass(g))
		g = e.pending
	}
	return st
}

func (e *Engine) pass(g *graph.Graph) Stats {
	e.ctx.Graph = g
	defer e.notify()

	if !e.ctx.Attached() {
		e.degrade(errors.New(errors.ErrCodeUnattachedSurface, "update before a surface was attached"))
		return Stats{}
	}

	var st Stats
	start := time.Now()
	st.Nodes = e.nodes.Update()
	observability.Engine().OnNodesReconciled(e.id, st.Nodes.Created, st.Nodes.Retained, st.Nodes.Removed, time.Since(start))

	st.Edges = e.syncEdges()
	e.preview.refresh()

	e.logger.Debug("reconciled",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"created", st.Nodes.Created+st.Edges.Created,
		"removed", st.Nodes.Removed+st.Edges.Removed,
		"dangling", st.Edges.Dangling,
		"pending", len(e.nodes.pending),
	)
	return st
}

func (e *Engine) syncEdges() EdgeStats {
	start := time.Now()
	st := e.edges.Update()
	observability.Engine().OnEdgesReconciled(e.id, st.Created, st.Retained, st.Removed, st.Dangling, time.Since(start))
	return st
}

func (e *Engine) notify() {
	if e.cfg.OnChange != nil {
		e.cfg.OnChange(e.ctx.Graph.Nodes, e.ctx.Graph.Edges)
	}
}

// ContentMeasured stores a size reported for a node's content after it was
// painted, and re-routes the edges. Nodes and their content are left alone.
// Reports for unknown nodes or invalid sizes are ignored. A report made while
// a pass is running, for example from OnChange, queues one more pass of the
// current graph when the size changed.
func (e *Engine) ContentMeasured(id int, size geom.Size) EdgeStats {
	if !size.IsValid() {
		e.degrade(errors.New(errors.ErrCodeStaleGeometry, "invalid size %vx%v for node %d", size.W, size.H, id))
		return EdgeStats{}
	}
	prev, had := e.ctx.Dimensions[id]
	if !e.nodes.SetSize(id, size) {
		return EdgeStats{}
	}
	if e.running {
		if !had || prev != size {
			e.requeue()
		}
		return EdgeStats{}
	}
	st := e.syncEdges()
	e.preview.refresh()
	return st
}

// Invalidate renders a node's content again, measures it and re-routes the
// edges. Use it when the content renderer's output changed for reasons the
// graph does not show. While a pass is running the node is marked and one
// more pass of the current graph is queued.
func (e *Engine) Invalidate(id int) {
	if e.running {
		if e.nodes.Invalidate(id) {
			e.requeue()
		}
		return
	}
	if !e.nodes.Rerender(id) {
		return
	}
	e.nodes.Measure()
	e.syncEdges()
	e.preview.refresh()
}

// requeue makes the running Update run another pass. A graph already queued
// by a reentrant Update is newer and wins.
func (e *Engine) requeue() {
	if e.pending == nil {
		e.pending = e.ctx.Graph
	}
}

// NodeElement returns the render group of a node.
func (e *Engine) NodeElement(id int) (*surface.Element, bool) { return e.nodes.Handle(id) }

// NodeContainer returns the embedded-content container of a node.
func (e *Engine) NodeContainer(id int) (*surface.Element, bool) { return e.nodes.Container(id) }

// EdgeElement returns the connector group of an edge.
func (e *Engine) EdgeElement(id int) (*surface.Element, bool) { return e.edges.Handle(id) }

// =============================================================================
// Gestures
// =============================================================================

// BeginConnect starts a connect gesture at port.
func (e *Engine) BeginConnect(port graph.PortRef, pointer geom.Point) bool {
	if !e.preview.Start(port, pointer) {
		e.logger.Debug("ignored connect start", "node", port.Node, "port", port.Index, "kind", port.Kind)
		return false
	}
	return true
}

// MoveConnect moves the preview connector to pointer.
func (e *Engine) MoveConnect(pointer geom.Point) { e.preview.Move(pointer) }

// EndConnect ends the gesture over port over (nil for empty canvas) and
// emits a Connect intent when the ports are compatible.
func (e *Engine) EndConnect(over *graph.PortRef) bool {
	c, ok := e.preview.Drop(over)
	if !ok {
		return false
	}
	e.emit(c)
	return true
}

// CancelConnect aborts a running connect gesture without emitting anything.
func (e *Engine) CancelConnect() { e.preview.Cancel() }

// DropPalette places a palette item dropped at offset (in pointer
// coordinates) and emits a CreateNode intent. ok is false when the gesture
// library could not report an offset; the drop is then dropped silently.
func (e *Engine) DropPalette(kind string, offset geom.Point, ok bool) (geom.Point, bool) {
	placer := DropPlacer{
		Origin: e.origin,
		Unit:   e.ctx.Unit,
		Extent: e.ctx.Extent,
		Schema: e.ctx.Schema,
	}
	c, err := placer.Drop(kind, offset, ok)
	if err != nil {
		e.degrade(err)
		return geom.Point{}, false
	}
	e.emit(c)
	return c.Position, true
}

func (e *Engine) updateParam(node int, param, value string) {
	e.emit(UpdateParam{Node: node, Param: param, Value: value})
}

func (e *Engine) emit(i Intent) {
	if e.dispatch == nil {
		return
	}
	e.logger.Debug("emit", "intent", i.Name())
	observability.Engine().OnIntent(e.id, i.Name())
	e.dispatch(i)
}

func (e *Engine) degrade(err error) {
	code := errors.GetCode(err)
	e.logger.Debug("degraded", "code", code, "err", errors.UserMessage(err))
	observability.Engine().OnDegraded(e.id, string(code), err)
}
