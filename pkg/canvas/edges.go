package canvas

import (
	"strconv"

	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/reconcile"
	"github.com/matzehuels/flowcanvas/pkg/surface"
)

// Connector stroke styles. The outer stroke is drawn first and shows as an
// outline around the inner one.
const (
	OuterStrokeWidth = 8
	OuterStroke      = "dimgrey"
	InnerStrokeWidth = 6
	InnerStroke      = "lightgrey"
)

// edgeHandle is the render state kept per edge id.
type edgeHandle struct {
	group *surface.Element // g.edge
	outer *surface.Element // path.outer.curve
	inner *surface.Element // path.inner.curve
}

// EdgeStats summarizes one edge pass. Dangling counts edges that were not
// drawn because an endpoint is missing, whether they were skipped on
// creation or hidden while retained.
type EdgeStats struct {
	reconcile.Stats
	Dangling int `json:"dangling"`
}

// EdgeReconciler keeps one connector per edge of the current graph.
//
// A connector lives exactly as long as its edge is in the graph. When an
// endpoint node disappears while the edge stays, the connector is kept with
// the "hidden" class and its data-source and data-target still name the
// missing node, so it can outlive that node. It is removed once the edge
// itself is gone; store.Reduce prunes edges together with their nodes.
type EdgeReconciler struct {
	ctx   *Context
	keyed reconcile.Keyed[int, *edgeHandle]
}

func newEdgeReconciler(ctx *Context) *EdgeReconciler {
	return &EdgeReconciler{ctx: ctx}
}

// Update reconciles the edges layer against the current graph. Both anchors
// of every drawn edge are resolved again, so connectors follow moved and
// newly measured nodes. It is a no-op while no surface is attached.
func (r *EdgeReconciler) Update() EdgeStats {
	if !r.ctx.Attached() {
		return EdgeStats{}
	}
	layer := r.ctx.layer(surface.LayerEdges)
	var hidden int
	st := reconcile.Sync(&r.keyed, r.ctx.Graph.Edges, reconcile.Ops[int, graph.Edge, *edgeHandle]{
		Enter: func(id int, e graph.Edge) (*edgeHandle, bool) {
			src, dst, ok := r.anchors(e)
			if !ok {
				return nil, false
			}
			return r.create(layer, e, src, dst), true
		},
		Update: func(id int, e graph.Edge, h *edgeHandle) {
			tag(h.group, e)
			src, dst, ok := r.anchors(e)
			h.group.Classed("hidden", !ok)
			if !ok {
				hidden++
				return
			}
			setPath(h, geom.CurvePath(src, dst))
			if r.ctx.DecorateEdge != nil {
				r.ctx.DecorateEdge(h.group, e)
			}
		},
		Exit: func(id int, h *edgeHandle) {
			h.group.Remove()
		},
	})
	return EdgeStats{Stats: st, Dangling: st.Skipped + hidden}
}

// Handle returns the connector group of an edge.
func (r *EdgeReconciler) Handle(id int) (*surface.Element, bool) {
	h, ok := r.keyed.Get(id)
	if !ok {
		return nil, false
	}
	return h.group, true
}

// Reset forgets every handle without touching the surface.
func (r *EdgeReconciler) Reset() {
	r.keyed.Reset(nil)
}

// anchors resolves both endpoints of e. It reports false, after logging the
// reason, when either endpoint cannot be drawn.
func (r *EdgeReconciler) anchors(e graph.Edge) (src, dst geom.Point, ok bool) {
	for _, ref := range []graph.PortRef{e.Source.Ref(), e.Target.Ref()} {
		if err := r.ctx.checkPort(ref); err != nil {
			r.ctx.degrade(errors.Wrap(errors.ErrCodeDanglingReference, err, "edge %d", e.ID))
			return src, dst, false
		}
	}
	src, _ = r.ctx.Resolve(e.Source.Ref())
	dst, _ = r.ctx.Resolve(e.Target.Ref())
	return src, dst, true
}

func (r *EdgeReconciler) create(layer *surface.Element, e graph.Edge, src, dst geom.Point) *edgeHandle {
	g := layer.Append("g").
		SetAttr("class", "edge").
		SetAttr("data-id", strconv.Itoa(e.ID))
	tag(g, e)

	d := geom.CurvePath(src, dst)
	h := &edgeHandle{
		group: g,
		outer: stroke(g, "outer curve", OuterStrokeWidth, OuterStroke, d),
		inner: stroke(g, "inner curve", InnerStrokeWidth, InnerStroke, d),
	}
	if r.ctx.DecorateEdge != nil {
		r.ctx.DecorateEdge(g, e)
	}
	return h
}

func stroke(g *surface.Element, class string, width int, color, d string) *surface.Element {
	return g.Append("path").
		SetAttr("class", class).
		SetAttr("stroke-width", strconv.Itoa(width)).
		SetAttr("stroke", color).
		SetAttr("fill", "none").
		SetAttr("d", d)
}

func setPath(h *edgeHandle, d string) {
	h.outer.SetAttr("d", d)
	h.inner.SetAttr("d", d)
}

// tag writes the endpoint attributes. Retained edges are tagged again since
// the store may retarget an edge without changing its id.
func tag(g *surface.Element, e graph.Edge) {
	g.SetAttr("data-source", strconv.Itoa(e.Source.Node)).
		SetAttr("data-target", strconv.Itoa(e.Target.Node)).
		SetAttr("data-output", strconv.Itoa(e.Source.Index)).
		SetAttr("data-input", strconv.Itoa(e.Target.Index))
}
