package canvas

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/surface"
)

func testSchema() graph.Schema {
	return graph.Schema{
		"const": {Outputs: []string{"out"}, Params: []string{"value"}},
		"add":   {Inputs: []string{"a", "b"}, Outputs: []string{"sum"}},
		"print": {Inputs: []string{"in"}},
	}
}

func testConfig() Config {
	return Config{Unit: 60, Dimensions: [2]int{10, 10}, Schema: testSchema()}
}

// pair is node A (add) at the origin, node B (add) at (180, 0) and an edge
// from A's output to B's first input.
func pair() *graph.Graph {
	g := graph.New()
	g.Nodes[1] = graph.Node{ID: 1, Kind: "add", Position: geom.Pt(0, 0)}
	g.Nodes[2] = graph.Node{ID: 2, Kind: "add", Position: geom.Pt(180, 0)}
	g.Edges[3] = graph.Edge{ID: 3, Source: graph.Output{Node: 1}, Target: graph.Input{Node: 2}}
	return g
}

// fixedOracle measures every node at the same size.
func fixedOracle(size geom.Size) LayoutOracle {
	return func(int) (geom.Size, bool) { return size, true }
}

func quiet() Option {
	return WithLogger(log.NewWithOptions(io.Discard, log.Options{}))
}

func newTestEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, append([]Option{quiet()}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

// attached returns an engine attached to a fresh surface.
func attached(t *testing.T, opts ...Option) (*Engine, *surface.Surface) {
	t.Helper()
	e := newTestEngine(t, testConfig(), opts...)
	s := surface.New(geom.Size{})
	e.Attach(s)
	return e, s
}

func countIn(s *surface.Surface, layer, tag, classes string) int {
	return len(s.Layer(layer).SelectAll(tag, classes))
}
