package canvas

import (
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
)

// ResolvePort returns the absolute anchor of a port.
//
// Input ports sit on the left edge of the node and output ports on the right
// edge, at the measured content width. Until the node has been measured the
// anchor is the node position itself, so first-frame connectors collapse
// onto the node origin instead of disappearing. The result is always finite.
//
// The boolean is false only when the node is absent from the current graph.
func (c *Context) ResolvePort(id, index int, kind graph.PortKind) (geom.Point, bool) {
	n, ok := c.Graph.Nodes[id]
	if !ok {
		return geom.Point{}, false
	}
	origin := n.Position
	if !origin.IsFinite() {
		origin = geom.Point{}
	}
	size, measured := c.Dimensions[id]
	if !measured {
		return origin, true
	}
	off := geom.Pt(0, c.Layout.PortOffset(index))
	if kind == graph.PortOutput {
		off.X = size.W
	}
	p := origin.Add(off)
	if !p.IsFinite() {
		return origin, true
	}
	return p, true
}

// Resolve is ResolvePort for a PortRef.
func (c *Context) Resolve(ref graph.PortRef) (geom.Point, bool) {
	return c.ResolvePort(ref.Node, ref.Index, ref.Kind)
}

// checkPort reports why ref cannot be drawn, or nil when it can: the node
// must exist and the index must be within the ports its kind declares.
func (c *Context) checkPort(ref graph.PortRef) *errors.Error {
	n, ok := c.Graph.Nodes[ref.Node]
	if !ok {
		return errors.New(errors.ErrCodeDanglingReference, "%s node %d does not exist", ref.Kind, ref.Node)
	}
	if count := c.Schema.PortCount(n.Kind, ref.Kind); ref.Index < 0 || ref.Index >= count {
		return errors.New(errors.ErrCodeInvalidPort, "node %d (%s) has no %s %d", ref.Node, n.Kind, ref.Kind, ref.Index)
	}
	return nil
}
