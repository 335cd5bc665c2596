package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/config"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
)

func quiet() *log.Logger { return log.NewWithOptions(io.Discard, log.Options{}) }

func testGraph() *graph.Graph {
	g := graph.New()
	g.Nodes[1] = graph.Node{ID: 1, Kind: "const", Position: geom.Pt(0, 0), Params: map[string]string{"value": "2"}}
	g.Nodes[2] = graph.Node{ID: 2, Kind: "add", Position: geom.Pt(180, 0)}
	g.Edges[3] = graph.Edge{ID: 3, Source: graph.Output{Node: 1, Index: 0}, Target: graph.Input{Node: 2, Index: 1}}
	return g
}

func writeTestGraph(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := graph.WriteGraphFile(testGraph(), path); err != nil {
		t.Fatalf("WriteGraphFile() error: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := New(io.Discard, LogInfo).RootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestRenderCommand(t *testing.T) {
	input := writeTestGraph(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"canvas", nil, `T 180 44`},
		{"grid", []string{"--grid"}, `<svg`},
		{"nodelink", []string{"--type", "nodelink"}, `<svg`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out.svg")
			args := append([]string{"render", input, "--no-cache", "-o", out}, tt.args...)
			if err := execute(t, args...); err != nil {
				t.Fatalf("render error: %v", err)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("ReadFile() error: %v", err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("output does not contain %q", tt.want)
			}
		})
	}
}

func TestRenderCommandDefaultOutput(t *testing.T) {
	input := writeTestGraph(t)
	if err := execute(t, "render", input, "--no-cache"); err != nil {
		t.Fatalf("render error: %v", err)
	}
	if _, err := os.Stat(outputPath(input, ".svg")); err != nil {
		t.Errorf("default output missing: %v", err)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	input := writeTestGraph(t)

	if err := execute(t, "render", input, "--no-cache", "--type", "tower"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("invalid type: err = %v, want INVALID_INPUT", err)
	}
	if err := execute(t, "render", filepath.Join(t.TempDir(), "missing.json"), "--no-cache"); err == nil {
		t.Error("missing input should fail")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, ext, want string
	}{
		{"graph.json", ".svg", "graph.svg"},
		{"dir/graph.json", ".svg", "dir/graph.svg"},
		{"graph", ".svg", "graph.svg"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.ext); got != tt.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", tt.input, tt.ext, got, tt.want)
		}
	}
}

const testIntents = `# build a second adder
{"type":"create_node","kind":"add","position":[240,120]}

{"type":"connect","source":{"node":1,"output":0},"target":{"node":4,"input":0}}
{"type":"bogus"}
{"type":"update_param","node":1,"param":"value","value":"9"}
{"type":"delete_node","node":2}
`

func TestReplay(t *testing.T) {
	res, err := replay(config.Default(), testGraph(), strings.NewReader(testIntents), quiet())
	if err != nil {
		t.Fatalf("replay() error: %v", err)
	}

	if len(res.Steps) != 5 {
		t.Fatalf("len(Steps) = %d, want 5", len(res.Steps))
	}
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Failed)
	}

	create := res.Steps[0]
	if create.Line != 2 || create.Intent != "create_node" {
		t.Errorf("step 0 = line %d %q, want line 2 create_node", create.Line, create.Intent)
	}
	if create.Stats.Nodes.Created != 1 {
		t.Errorf("create_node created %d nodes, want 1", create.Stats.Nodes.Created)
	}

	bogus := res.Steps[2]
	if bogus.Line != 5 || bogus.Err == nil {
		t.Errorf("step 2 = line %d err %v, want line 5 with an error", bogus.Line, bogus.Err)
	}
	if bogus.Nodes != 3 {
		t.Errorf("rejected step sees %d nodes, want 3", bogus.Nodes)
	}

	del := res.Steps[4]
	if del.Stats.Nodes.Removed != 1 || del.Stats.Edges.Removed != 1 {
		t.Errorf("delete_node removed %d nodes and %d edges, want 1 and 1",
			del.Stats.Nodes.Removed, del.Stats.Edges.Removed)
	}

	if res.Graph.NodeCount() != 2 || res.Graph.EdgeCount() != 1 {
		t.Errorf("final graph has %d nodes and %d edges, want 2 and 1",
			res.Graph.NodeCount(), res.Graph.EdgeCount())
	}
	if !strings.Contains(string(res.SVG), `value="9"`) {
		t.Error("final canvas does not show the edited parameter")
	}
}

func TestReplayEmptyLog(t *testing.T) {
	res, err := replay(config.Default(), nil, strings.NewReader("\n# nothing\n"), quiet())
	if err != nil {
		t.Fatalf("replay() error: %v", err)
	}
	if len(res.Steps) != 0 || res.Graph.NodeCount() != 0 {
		t.Errorf("got %d steps and %d nodes, want none", len(res.Steps), res.Graph.NodeCount())
	}
}

func TestReplayCommand(t *testing.T) {
	input := writeTestGraph(t)
	dir := t.TempDir()
	logPath := filepath.Join(dir, "session.jsonl")
	if err := os.WriteFile(logPath, []byte(testIntents), 0o644); err != nil {
		t.Fatal(err)
	}
	graphOut := filepath.Join(dir, "final.json")
	svgOut := filepath.Join(dir, "final.svg")

	if err := execute(t, "replay", input, logPath, "-o", graphOut, "--svg", svgOut); err != nil {
		t.Fatalf("replay error: %v", err)
	}

	g, err := graph.ReadGraphFile(graphOut)
	if err != nil {
		t.Fatalf("ReadGraphFile() error: %v", err)
	}
	if g.NodeCount() != 2 {
		t.Errorf("final graph has %d nodes, want 2", g.NodeCount())
	}
	if _, err := os.Stat(svgOut); err != nil {
		t.Errorf("svg output missing: %v", err)
	}

	if err := execute(t, "replay", input, filepath.Join(dir, "missing.jsonl")); !errors.IsNotFound(err) {
		t.Errorf("missing log: err = %v, want not found", err)
	}
}

func TestReplayModel(t *testing.T) {
	res, err := replay(config.Default(), testGraph(), strings.NewReader(testIntents), quiet())
	if err != nil {
		t.Fatalf("replay() error: %v", err)
	}

	var m tea.Model = newReplayModel(res.Steps)
	down := tea.KeyMsg{Type: tea.KeyDown}
	for range 10 {
		m, _ = m.Update(down)
	}
	if got := m.(ReplayModel).Cursor; got != len(res.Steps)-1 {
		t.Errorf("Cursor = %d, want clamped to %d", got, len(res.Steps)-1)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	view := m.View()
	if !strings.Contains(view, "[3/5]") {
		t.Errorf("View() does not show the position:\n%s", view)
	}
	if !strings.Contains(view, "INVALID_INPUT") {
		t.Errorf("View() does not show the rejected step:\n%s", view)
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Error("q should quit")
	}
}

func TestReplayTable(t *testing.T) {
	out := replayTable([]replayStep{{Line: 1, Intent: "create_node", Nodes: 1}})
	for _, want := range []string{"Line", "create_node"} {
		if !strings.Contains(out, want) {
			t.Errorf("table does not contain %q:\n%s", want, out)
		}
	}
}

func TestRootCommand(t *testing.T) {
	cmd := New(io.Discard, LogInfo).RootCommand()
	want := []string{"render", "replay", "serve", "cache", "completion"}
	for _, name := range want {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig(\"\") error: %v", err)
	}
	if cfg.Canvas.Unit != config.DefaultUnit {
		t.Errorf("Unit = %v, want %v", cfg.Canvas.Unit, config.DefaultUnit)
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing config should fail")
	}
}

func TestExampleSession(t *testing.T) {
	dir := filepath.Join("..", "..", "examples", "pipeline")
	cfg, err := loadConfig(filepath.Join(dir, "canvas.toml"))
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	g, err := graph.ReadGraphFile(filepath.Join(dir, "graph.json"))
	if err != nil {
		t.Fatalf("ReadGraphFile() error: %v", err)
	}
	if ps := graph.Problems(g, cfg.Schema()); len(ps) > 0 {
		t.Fatalf("example graph has problems: %v", ps)
	}

	f, err := os.Open(filepath.Join(dir, "session.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	res, err := replay(cfg, g, f, quiet())
	if err != nil {
		t.Fatalf("replay() error: %v", err)
	}
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Failed)
	}
	last := res.Steps[len(res.Steps)-1]
	if !errors.Is(last.Err, errors.ErrCodeInvalidPort) {
		t.Errorf("last step err = %v, want INVALID_PORT", last.Err)
	}
	if res.Graph.NodeCount() != 5 || res.Graph.EdgeCount() != 5 {
		t.Errorf("final graph has %d nodes and %d edges, want 5 and 5",
			res.Graph.NodeCount(), res.Graph.EdgeCount())
	}
}
