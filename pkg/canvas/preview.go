package canvas

import (
	"strconv"

	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/surface"
)

// DragState is the state of a connect gesture.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
	DragConnected
	DragCancelled
)

// String returns the lower-case state name.
func (s DragState) String() string {
	switch s {
	case DragDragging:
		return "dragging"
	case DragConnected:
		return "connected"
	case DragCancelled:
		return "cancelled"
	}
	return "idle"
}

// PreviewRadius is the radius of the pointer marker of the drag preview.
const PreviewRadius = 9

// Gesture is the logical event stream of a pointer recognizer for connect
// gestures. [DragPreview] implements it; an external recognizer translates
// raw pointer events into these calls.
type Gesture interface {
	Start(port graph.PortRef, pointer geom.Point) bool
	Move(pointer geom.Point)
	Drop(over *graph.PortRef) (Connect, bool)
	Cancel()
}

var _ Gesture = (*DragPreview)(nil)

// DragPreview draws the connector of an in-progress connect gesture.
//
// It works directly on the preview layer: the layer carries the "hidden"
// class while no gesture is active, and holds one dashed path and one
// pointer marker that are created on attachment and never removed. Moves
// only rewrite those two elements and never touch the node or edge layers.
type DragPreview struct {
	ctx    *Context
	layer  *surface.Element
	path   *surface.Element
	cursor *surface.Element

	state   DragState
	origin  graph.PortRef
	pointer geom.Point
}

func newDragPreview(ctx *Context) *DragPreview {
	p := &DragPreview{ctx: ctx}
	if ctx.Attached() {
		p.attach(ctx.layer(surface.LayerPreview))
	}
	return p
}

func (p *DragPreview) attach(layer *surface.Element) {
	layer.Clear()
	layer.Classed("hidden", true)
	p.layer = layer
	p.path = layer.Append("path").SetAttr("class", "curve")
	p.cursor = layer.Append("circle").SetAttr("r", strconv.Itoa(PreviewRadius))
}

// State returns the current gesture state.
func (p *DragPreview) State() DragState { return p.state }

// Origin returns the port the current or last gesture started from.
func (p *DragPreview) Origin() (graph.PortRef, bool) {
	return p.origin, p.state != DragIdle
}

// Start begins a gesture from port. It fails when no surface is attached or
// the port cannot be drawn. Start is allowed from any state; a running
// gesture is abandoned.
func (p *DragPreview) Start(port graph.PortRef, pointer geom.Point) bool {
	if p.layer == nil || p.ctx.checkPort(port) != nil {
		return false
	}
	p.origin = port
	p.state = DragDragging
	p.pointer = pointer
	p.layer.Classed("hidden", false)
	p.draw()
	return true
}

// Move follows the pointer. It is ignored outside a gesture.
func (p *DragPreview) Move(pointer geom.Point) {
	if p.state != DragDragging {
		return
	}
	p.pointer = pointer
	p.draw()
}

// Drop ends the gesture over port over, or over nothing when over is nil.
// When over is compatible with the origin the gesture is connected and the
// returned Connect runs from the output to the input, whichever side the
// drag started from. Otherwise the gesture is cancelled.
func (p *DragPreview) Drop(over *graph.PortRef) (Connect, bool) {
	if p.state != DragDragging {
		return Connect{}, false
	}
	p.layer.Classed("hidden", true)
	if over == nil || !p.Compatible(*over) {
		p.state = DragCancelled
		return Connect{}, false
	}
	p.state = DragConnected
	out, in := p.origin, *over
	if out.Kind == graph.PortInput {
		out, in = in, out
	}
	return Connect{
		Source: graph.Output{Node: out.Node, Index: out.Index},
		Target: graph.Input{Node: in.Node, Index: in.Index},
	}, true
}

// Cancel aborts a running gesture.
func (p *DragPreview) Cancel() {
	if p.state != DragDragging {
		return
	}
	p.layer.Classed("hidden", true)
	p.state = DragCancelled
}

// Compatible reports whether a gesture started at the current origin may
// end at port: the opposite kind, on another node, and drawable.
func (p *DragPreview) Compatible(port graph.PortRef) bool {
	return port.Kind == p.origin.Kind.Opposite() &&
		port.Node != p.origin.Node &&
		p.ctx.checkPort(port) == nil
}

// refresh redraws a running gesture after the origin node moved.
func (p *DragPreview) refresh() {
	if p.state != DragDragging {
		return
	}
	if p.ctx.checkPort(p.origin) != nil {
		p.Cancel()
		return
	}
	p.draw()
}

func (p *DragPreview) draw() {
	anchor, _ := p.ctx.Resolve(p.origin)
	from, to := anchor, p.pointer
	if p.origin.Kind == graph.PortInput {
		from, to = p.pointer, anchor
	}
	p.path.SetAttr("d", geom.CurvePath(from, to))
	p.cursor.SetAttr("cx", geom.Num(p.pointer.X)).SetAttr("cy", geom.Num(p.pointer.Y))
}
