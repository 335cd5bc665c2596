package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/buildinfo"
	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/config"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
)

func quiet() *log.Logger { return log.NewWithOptions(io.Discard, log.Options{}) }

func initialGraph() *graph.Graph {
	g := graph.New()
	g.Nodes[1] = graph.Node{ID: 1, Kind: "const", Position: geom.Pt(0, 0), Params: map[string]string{"value": "2"}}
	g.Nodes[2] = graph.Node{ID: 2, Kind: "add", Position: geom.Pt(180, 0)}
	return g
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(config.Default(), initialGraph(), append([]Option{WithLogger(quiet())}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, string(data)
}

func decodeGraph(t *testing.T, body string) *graph.Graph {
	t.Helper()
	g, err := graph.UnmarshalGraph([]byte(body))
	if err != nil {
		t.Fatalf("decode graph: %v\n%s", err, body)
	}
	return g
}

func TestHealth(t *testing.T) {
	s, ts := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, s.Engine().ID()) {
		t.Errorf("body = %s", body)
	}
	if !strings.Contains(body, `"version":"`+buildinfo.Version+`"`) {
		t.Errorf("body does not report the build version: %s", body)
	}
	if id := resp.Header.Get(RequestIDHeader); len(id) != 36 {
		t.Errorf("request id = %q, want a uuid", id)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	_, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestGraphAndCanvas(t *testing.T) {
	_, ts := newTestServer(t)

	_, body := do(t, http.MethodGet, ts.URL+"/graph", "")
	if g := decodeGraph(t, body); g.NodeCount() != 2 {
		t.Errorf("nodes = %d, want 2", g.NodeCount())
	}

	resp, svg := do(t, http.MethodGet, ts.URL+"/canvas.svg", "")
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	for _, want := range []string{`class="node" data-id="1"`, `class="node" data-id="2"`} {
		if !strings.Contains(svg, want) {
			t.Errorf("canvas missing %q", want)
		}
	}
}

func TestIntents(t *testing.T) {
	s, ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/intents",
		`{"type":"connect","source":{"node":1,"output":0},"target":{"node":2,"input":1}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("connect status = %d: %s", resp.StatusCode, body)
	}
	g := decodeGraph(t, body)
	if g.EdgeCount() != 1 {
		t.Fatalf("edges = %d, want 1", g.EdgeCount())
	}

	if _, ok := s.Engine().EdgeElement(3); !ok {
		t.Error("engine should render the new edge")
	}
	_, svg := do(t, http.MethodGet, ts.URL+"/canvas.svg", "")
	if !strings.Contains(svg, "M 120 20") || !strings.Contains(svg, "T 180 44") {
		t.Errorf("edge path not found in canvas")
	}

	resp, body = do(t, http.MethodPost, ts.URL+"/intents", `{"type":"move_node","node":2,"position":[240,60]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move status = %d: %s", resp.StatusCode, body)
	}
	if n := decodeGraph(t, body).Nodes[2]; n.Position != geom.Pt(240, 60) {
		t.Errorf("position = %v", n.Position)
	}

	resp, body = do(t, http.MethodPost, ts.URL+"/intents", `{"type":"delete_node","node":2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d: %s", resp.StatusCode, body)
	}
	if _, ok := s.Engine().EdgeElement(3); ok {
		t.Error("edge of a deleted node should be removed")
	}
}

func TestIntentErrors(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"type":`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown type", `{"type":"explode"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing node", `{"type":"move_node","node":42,"position":[0,0]}`, http.StatusNotFound, "NOT_FOUND"},
		{"unknown kind", `{"type":"create_node","kind":"nope","position":[0,0]}`, http.StatusBadRequest, "UNKNOWN_KIND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.URL+"/intents", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
			var e errorBody
			if err := json.Unmarshal([]byte(body), &e); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if e.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
			if e.Error == "" {
				t.Error("error message should not be empty")
			}
		})
	}
}

func TestConnectGesture(t *testing.T) {
	s, ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/connect",
		`{"source":{"node":1,"output":0},"target":{"node":2,"input":0}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	g := decodeGraph(t, body)
	if g.EdgeCount() != 1 {
		t.Fatalf("edges = %d, want 1", g.EdgeCount())
	}
	for _, e := range g.Edges {
		if e.Source != (graph.Output{Node: 1, Index: 0}) || e.Target != (graph.Input{Node: 2, Index: 0}) {
			t.Errorf("edge = %+v", e)
		}
	}
	if st := s.Engine().Preview().State(); st != canvas.DragConnected {
		t.Errorf("preview state = %v, want connected", st)
	}

	resp, _ = do(t, http.MethodPost, ts.URL+"/connect",
		`{"source":{"node":1,"output":0},"target":{"node":1,"input":0}}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("self connect status = %d, want 400", resp.StatusCode)
	}
}

func TestPalette(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/palette", `{"kind":"add","offset":[133,47]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var got paletteResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if got.Position != [2]float64{120, 60} {
		t.Errorf("position = %v, want [120 60]", got.Position)
	}

	_, body = do(t, http.MethodGet, ts.URL+"/graph", "")
	g := decodeGraph(t, body)
	if n, ok := g.Nodes[3]; !ok || n.Kind != "add" || n.Position != geom.Pt(120, 60) {
		t.Errorf("created node = %+v, %v", n, ok)
	}

	resp, _ = do(t, http.MethodPost, ts.URL+"/palette", `{"kind":"nope","offset":[0,0]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", resp.StatusCode)
	}
}

func TestMeasure(t *testing.T) {
	s, ts := newTestServer(t)
	do(t, http.MethodPost, ts.URL+"/intents",
		`{"type":"connect","source":{"node":1,"output":0},"target":{"node":2,"input":0}}`)

	resp, body := do(t, http.MethodPost, ts.URL+"/nodes/1/measure", `{"width":200,"height":60}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if size, _ := s.Engine().Context().Measured(1); size != (geom.Size{W: 200, H: 60}) {
		t.Errorf("measured = %v", size)
	}
	_, svg := do(t, http.MethodGet, ts.URL+"/canvas.svg", "")
	if !strings.Contains(svg, "M 200 20") {
		t.Error("edge should start at the new width")
	}

	tests := []struct {
		path   string
		body   string
		status int
	}{
		{"/nodes/99/measure", `{"width":10,"height":10}`, http.StatusNotFound},
		{"/nodes/x/measure", `{"width":10,"height":10}`, http.StatusBadRequest},
		{"/nodes/1/measure", `{"width":-1,"height":10}`, http.StatusBadRequest},
		{"/nodes/1/measure", `{"depth":3}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, body := do(t, http.MethodPost, ts.URL+tt.path, tt.body)
		if resp.StatusCode != tt.status {
			t.Errorf("POST %s %s: status = %d, want %d (%s)", tt.path, tt.body, resp.StatusCode, tt.status, body)
		}
	}
}

func TestParamEdit(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, http.MethodPut, ts.URL+"/nodes/1/params/value", `{"value":"7"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if v := decodeGraph(t, body).Nodes[1].Param("value"); v != "7" {
		t.Errorf("value = %q, want 7", v)
	}

	_, svg := do(t, http.MethodGet, ts.URL+"/canvas.svg", "")
	if !strings.Contains(svg, `value="7"`) {
		t.Error("widget should show the new value")
	}

	resp, _ = do(t, http.MethodPut, ts.URL+"/nodes/2/params/value", `{"value":"1"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("undeclared param status = %d, want 404", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodPut, ts.URL+"/nodes/1/params/value", `{"value":"a\nb"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("control characters status = %d, want 400", resp.StatusCode)
	}
}

func TestNodelinkExport(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, ts := newTestServer(t, WithRunner(pipeline.NewRunner(fc, nil, quiet())))

	resp, svg := do(t, http.MethodGet, ts.URL+"/canvas.svg?type=nodelink", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, svg)
	}
	if resp.Header.Get("X-Cache") != "miss" {
		t.Errorf("first export X-Cache = %q, want miss", resp.Header.Get("X-Cache"))
	}
	resp, _ = do(t, http.MethodGet, ts.URL+"/canvas.svg?type=nodelink", "")
	if resp.Header.Get("X-Cache") != "hit" {
		t.Errorf("second export X-Cache = %q, want hit", resp.Header.Get("X-Cache"))
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/canvas.svg?type=tower", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad type status = %d, want 400", resp.StatusCode)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu        sync.Mutex
	requests  int
	responses []int
	errors    int
}

func (h *recordingHTTPHooks) OnRequest(context.Context, string, string, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests++
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, status)
}

func (h *recordingHTTPHooks) OnError(context.Context, string, string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors++
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	_, ts := newTestServer(t)
	do(t, http.MethodGet, ts.URL+"/healthz", "")
	do(t, http.MethodPost, ts.URL+"/intents", `{"type":"explode"}`)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if hooks.requests != 2 {
		t.Errorf("requests = %d, want 2", hooks.requests)
	}
	if len(hooks.responses) != 2 || hooks.responses[0] != 200 || hooks.responses[1] != 400 {
		t.Errorf("responses = %v", hooks.responses)
	}
	if hooks.errors != 1 {
		t.Errorf("errors = %d, want 1", hooks.errors)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s, err := New(config.Default(), nil, WithLogger(quiet()))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
