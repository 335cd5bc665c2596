package graph

import (
	"maps"
	"slices"

	"github.com/matzehuels/flowcanvas/pkg/geom"
)

// =============================================================================
// Ports
// =============================================================================

// PortKind distinguishes input ports (left edge) from output ports (right edge).
type PortKind int

const (
	PortInput PortKind = iota
	PortOutput
)

// String returns "input" or "output".
func (k PortKind) String() string {
	if k == PortOutput {
		return "output"
	}
	return "input"
}

// Opposite returns the other port kind.
func (k PortKind) Opposite() PortKind {
	if k == PortOutput {
		return PortInput
	}
	return PortOutput
}

// Output addresses an output port of a node.
type Output struct {
	Node  int `json:"node"`
	Index int `json:"output"`
}

// Input addresses an input port of a node.
type Input struct {
	Node  int `json:"node"`
	Index int `json:"input"`
}

// PortRef addresses a port of either kind.
type PortRef struct {
	Node  int      `json:"node"`
	Index int      `json:"index"`
	Kind  PortKind `json:"kind"`
}

// Ref returns o as a PortRef.
func (o Output) Ref() PortRef { return PortRef{Node: o.Node, Index: o.Index, Kind: PortOutput} }

// Ref returns i as a PortRef.
func (i Input) Ref() PortRef { return PortRef{Node: i.Node, Index: i.Index, Kind: PortInput} }

// =============================================================================
// Node & Edge
// =============================================================================

// Node is a placed block. Position is in canvas pixels and is a multiple of
// the grid unit when produced by the canvas.
type Node struct {
	ID       int
	Kind     string
	Position geom.Point
	Params   map[string]string
}

// Param returns the current value of a parameter, or "" when unset.
func (n Node) Param(name string) string {
	return n.Params[name]
}

// Clone returns a copy of n that does not share its Params map.
func (n Node) Clone() Node {
	n.Params = maps.Clone(n.Params)
	return n
}

// Edge connects an output port to an input port.
type Edge struct {
	ID     int    `json:"id"`
	Source Output `json:"source"`
	Target Input  `json:"target"`
}

// Touches reports whether the edge starts or ends at node id.
func (e Edge) Touches(id int) bool {
	return e.Source.Node == id || e.Target.Node == id
}

// =============================================================================
// Graph
// =============================================================================

// Graph is a snapshot of the model, keyed by id.
type Graph struct {
	Nodes map[int]Node
	Edges map[int]Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{Nodes: map[int]Node{}, Edges: map[int]Edge{}}
}

// NodeIDs returns node ids in ascending order.
func (g *Graph) NodeIDs() []int { return slices.Sorted(maps.Keys(g.Nodes)) }

// EdgeIDs returns edge ids in ascending order.
func (g *Graph) EdgeIDs() []int { return slices.Sorted(maps.Keys(g.Edges)) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Node returns the node with the given id.
func (g *Graph) Node(id int) (Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes: make(map[int]Node, len(g.Nodes)),
		Edges: maps.Clone(g.Edges),
	}
	if out.Edges == nil {
		out.Edges = map[int]Edge{}
	}
	for id, n := range g.Nodes {
		out.Nodes[id] = n.Clone()
	}
	return out
}

// MaxID returns the largest node or edge id in use, or 0 for an empty graph.
func (g *Graph) MaxID() int {
	m := 0
	for id := range g.Nodes {
		m = max(m, id)
	}
	for id := range g.Edges {
		m = max(m, id)
	}
	return m
}
