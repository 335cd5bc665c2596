package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
)

// =============================================================================
// Wire Types
// =============================================================================

type nodeJSON struct {
	ID       int               `json:"id"`
	Kind     string            `json:"kind"`
	Position [2]float64        `json:"position"`
	Params   map[string]string `json:"params,omitempty"`
}

type graphJSON struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// MarshalJSON encodes the position as an [x, y] pair.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeJSON{
		ID:       n.ID,
		Kind:     n.Kind,
		Position: [2]float64{n.Position.X, n.Position.Y},
		Params:   n.Params,
	})
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (n *Node) UnmarshalJSON(data []byte) error {
	var nj nodeJSON
	if err := json.Unmarshal(data, &nj); err != nil {
		return err
	}
	*n = Node{
		ID:       nj.ID,
		Kind:     nj.Kind,
		Position: geom.Pt(nj.Position[0], nj.Position[1]),
		Params:   nj.Params,
	}
	return nil
}

// MarshalJSON encodes g with nodes and edges sorted by id.
func (g *Graph) MarshalJSON() ([]byte, error) {
	out := graphJSON{
		Nodes: make([]Node, 0, len(g.Nodes)),
		Edges: make([]Edge, 0, len(g.Edges)),
	}
	for _, id := range g.NodeIDs() {
		out.Nodes = append(out.Nodes, g.Nodes[id])
	}
	for _, id := range g.EdgeIDs() {
		out.Edges = append(out.Edges, g.Edges[id])
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a graph, rejecting duplicate ids.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var gj graphJSON
	if err := json.Unmarshal(data, &gj); err != nil {
		return err
	}
	out := Graph{
		Nodes: make(map[int]Node, len(gj.Nodes)),
		Edges: make(map[int]Edge, len(gj.Edges)),
	}
	for _, n := range gj.Nodes {
		if _, dup := out.Nodes[n.ID]; dup {
			return errors.New(errors.ErrCodeDuplicateID, "duplicate node id %d", n.ID)
		}
		out.Nodes[n.ID] = n
	}
	for _, e := range gj.Edges {
		if _, dup := out.Edges[e.ID]; dup {
			return errors.New(errors.ErrCodeDuplicateID, "duplicate edge id %d", e.ID)
		}
		out.Edges[e.ID] = e
	}
	*g = out
	return nil
}

// =============================================================================
// Serialization API
// =============================================================================

// MarshalGraph converts a graph to indented JSON bytes.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalGraph decodes JSON bytes into a graph.
func UnmarshalGraph(data []byte) (*Graph, error) {
	g := New()
	if err := json.Unmarshal(data, g); err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}
	return g, nil
}

// WriteGraph writes g as indented JSON to w.
func WriteGraph(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

// ReadGraph decodes a graph from r.
func ReadGraph(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return UnmarshalGraph(data)
}

// WriteGraphFile writes g to a JSON file.
func WriteGraphFile(g *Graph, path string) error {
	data, err := MarshalGraph(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadGraphFile reads and decodes a JSON graph file.
func ReadGraphFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	g, err := UnmarshalGraph(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}
