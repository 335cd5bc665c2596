package canvas

import (
	"maps"
	"slices"
	"strconv"

	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/reconcile"
	"github.com/matzehuels/flowcanvas/pkg/surface"
)

// PortRadius is the radius of a port circle, in pixels.
const PortRadius = 6

// nodeHandle is the render state kept per node id.
type nodeHandle struct {
	group     *surface.Element // g.node
	body      *surface.Element // rect.body, sized once measured
	inputs    *surface.Element // g.inputs
	outputs   *surface.Element // g.outputs, shifted to the measured width
	container *surface.Element // embedded-content container

	kind   string
	params map[string]string
}

// NodeReconciler keeps one render group per node of the current graph.
type NodeReconciler struct {
	ctx     *Context
	content ContentRenderer
	oracle  LayoutOracle
	update  ParamUpdater

	keyed   reconcile.Keyed[int, *nodeHandle]
	pending map[int]bool // rendered but not yet measured
	stale   map[int]bool // content must be rendered again
}

func newNodeReconciler(ctx *Context, content ContentRenderer, oracle LayoutOracle, update ParamUpdater) *NodeReconciler {
	return &NodeReconciler{
		ctx:     ctx,
		content: content,
		oracle:  oracle,
		update:  update,
		pending: make(map[int]bool),
		stale:   make(map[int]bool),
	}
}

// Update reconciles the nodes layer against the current graph and then
// measures every node whose content is not measured yet. It is a no-op
// while no surface is attached.
func (r *NodeReconciler) Update() reconcile.Stats {
	if !r.ctx.Attached() {
		return reconcile.Stats{}
	}
	layer := r.ctx.layer(surface.LayerNodes)
	st := reconcile.Sync(&r.keyed, r.ctx.Graph.Nodes, reconcile.Ops[int, graph.Node, *nodeHandle]{
		Enter: func(id int, n graph.Node) (*nodeHandle, bool) {
			h := r.create(layer, id, n)
			return h, true
		},
		Update: r.refresh,
		Exit: func(id int, h *nodeHandle) {
			h.group.Remove()
			if rel, ok := r.content.(ContentReleaser); ok {
				rel.Release(id)
			}
			delete(r.ctx.Dimensions, id)
			delete(r.pending, id)
			delete(r.stale, id)
		},
	})
	r.Measure()
	return st
}

// Handle returns the render group of a node.
func (r *NodeReconciler) Handle(id int) (*surface.Element, bool) {
	h, ok := r.keyed.Get(id)
	if !ok {
		return nil, false
	}
	return h.group, true
}

// Container returns the embedded-content container of a node.
func (r *NodeReconciler) Container(id int) (*surface.Element, bool) {
	h, ok := r.keyed.Get(id)
	if !ok {
		return nil, false
	}
	return h.container, true
}

// Pending returns the ids of rendered nodes still waiting for a measurement.
func (r *NodeReconciler) Pending() []int {
	return slices.Sorted(maps.Keys(r.pending))
}

// Invalidate marks the content of a node as changed. The next pass renders
// it again and measures it anew. It reports whether the node is rendered.
func (r *NodeReconciler) Invalidate(id int) bool {
	if _, ok := r.keyed.Get(id); !ok {
		return false
	}
	r.stale[id] = true
	return true
}

// Rerender renders the content of a node again immediately and queues it
// for measurement.
func (r *NodeReconciler) Rerender(id int) bool {
	h, ok := r.keyed.Get(id)
	if !ok {
		return false
	}
	n, ok := r.ctx.Graph.Nodes[id]
	if !ok {
		return false
	}
	r.renderContent(id, n, h)
	return true
}

// Measure queries the layout oracle for every pending node and applies the
// sizes it knows. Nodes it does not know stay pending. It returns the number
// of nodes measured.
func (r *NodeReconciler) Measure() int {
	measured := 0
	for _, id := range r.Pending() {
		if r.oracle == nil {
			break
		}
		size, ok := r.oracle(id)
		if !ok || !size.IsValid() {
			r.ctx.degrade(errors.New(errors.ErrCodeStaleGeometry, "node %d is not measured yet", id))
			continue
		}
		r.SetSize(id, size)
		measured++
	}
	return measured
}

// SetSize stores a measured content size and resizes the node frame.
func (r *NodeReconciler) SetSize(id int, size geom.Size) bool {
	h, ok := r.keyed.Get(id)
	if !ok {
		return false
	}
	r.ctx.Dimensions[id] = size
	delete(r.pending, id)
	w, ht := geom.Num(size.W), geom.Num(size.H)
	h.body.SetAttr("width", w).SetAttr("height", ht)
	h.container.SetAttr("width", w).SetAttr("height", ht)
	h.outputs.SetAttr("transform", geom.Translate(geom.Pt(size.W, 0)))
	return true
}

// Reset forgets every handle without touching the surface. Callers clear
// the layer themselves.
func (r *NodeReconciler) Reset() {
	r.keyed.Reset(nil)
	clear(r.pending)
	clear(r.stale)
}

func (r *NodeReconciler) create(layer *surface.Element, id int, n graph.Node) *nodeHandle {
	g := layer.Append("g").
		SetAttr("class", "node").
		SetAttr("data-id", strconv.Itoa(id)).
		SetAttr("transform", geom.Translate(n.Position))

	frame := g.Append("g").SetAttr("class", "frame")
	h := &nodeHandle{
		group: g,
		body: frame.Append("rect").
			SetAttr("class", "body").
			SetAttr("width", "0").
			SetAttr("height", "0").
			SetAttr("fill", "white").
			SetAttr("stroke", "dimgrey"),
		inputs:  frame.Append("g").SetAttr("class", "inputs"),
		outputs: frame.Append("g").SetAttr("class", "outputs"),
	}
	h.container = g.Append("foreignObject").
		SetAttr("data-id", strconv.Itoa(id)).
		SetAttr("width", "0").
		SetAttr("height", "0")

	r.drawPorts(h, n.Kind)
	r.renderContent(id, n, h)
	if r.ctx.DecorateNode != nil {
		r.ctx.DecorateNode(g, n)
	}
	return h
}

func (r *NodeReconciler) refresh(id int, n graph.Node, h *nodeHandle) {
	h.group.SetAttr("transform", geom.Translate(n.Position))
	switch {
	case n.Kind != h.kind:
		r.drawPorts(h, n.Kind)
		r.renderContent(id, n, h)
	case r.stale[id] || !maps.Equal(n.Params, h.params):
		r.renderContent(id, n, h)
	}
	if r.ctx.DecorateNode != nil {
		r.ctx.DecorateNode(h.group, n)
	}
}

func (r *NodeReconciler) drawPorts(h *nodeHandle, kind string) {
	h.inputs.Clear()
	h.outputs.Clear()
	spec, ok := r.ctx.Schema.Spec(kind)
	if !ok {
		r.ctx.degrade(errors.New(errors.ErrCodeUnknownKind, "unknown kind %q", kind))
	}
	for i := range spec.Inputs {
		circle(h.inputs, r.ctx.Layout.PortOffset(i)).SetAttr("data-input", strconv.Itoa(i))
	}
	for i := range spec.Outputs {
		circle(h.outputs, r.ctx.Layout.PortOffset(i)).SetAttr("data-output", strconv.Itoa(i))
	}
}

func circle(parent *surface.Element, cy float64) *surface.Element {
	return parent.Append("circle").
		SetAttr("class", "port").
		SetAttr("cx", "0").
		SetAttr("cy", geom.Num(cy)).
		SetAttr("r", strconv.Itoa(PortRadius))
}

func (r *NodeReconciler) renderContent(id int, n graph.Node, h *nodeHandle) {
	h.kind = n.Kind
	h.params = maps.Clone(n.Params)
	delete(r.stale, id)
	r.pending[id] = true
	if r.content == nil {
		return
	}
	h.container.Clear()
	spec, _ := r.ctx.Schema.Spec(n.Kind)
	r.content.Render(h.container, n, spec, r.update)
}
