package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowcanvas/pkg/buildinfo"
	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
)

// =============================================================================
// Read
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"canvas":  s.engine.ID(),
		"version": buildinfo.Version,
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.writeGraph(w, s.store.State())
}

func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	if typ == "" || typ == pipeline.TypeCanvas {
		s.mu.Lock()
		svg := s.engine.Surface().SVG()
		s.mu.Unlock()
		writeSVG(w, svg)
		return
	}

	opts := pipeline.Options{Type: typ, Detailed: r.URL.Query().Get("detailed") == "true"}
	res, err := s.runner.Render(r.Context(), s.store.State(), s.cfg, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	writeSVG(w, res.SVG)
}

// =============================================================================
// Write
// =============================================================================

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	intent, err := canvas.UnmarshalIntent(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	g, err := s.store.Apply(intent)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("applied intent", "id", RequestID(r.Context()), "intent", intent.Name())
	s.writeGraph(w, g)
}

type connectRequest struct {
	Source graph.Output `json:"source"`
	Target graph.Input  `json:"target"`
}

// handleConnect replays a connect gesture from the source port's anchor to
// the target port, so the engine decides compatibility exactly as it would
// for a pointer drag.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	src := req.Source.Ref()
	anchor, ok := s.engine.Context().Resolve(src)
	connected := ok && s.engine.BeginConnect(src, anchor)
	if connected {
		target := req.Target.Ref()
		connected = s.engine.EndConnect(&target)
	}
	s.mu.Unlock()

	if !connected {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidPort, "cannot connect node %d output %d to node %d input %d",
			req.Source.Node, req.Source.Index, req.Target.Node, req.Target.Index))
		return
	}
	s.writeGraph(w, s.store.State())
}

type paletteRequest struct {
	Kind   string     `json:"kind"`
	Offset [2]float64 `json:"offset"`
}

type paletteResponse struct {
	Position [2]float64 `json:"position"`
}

func (s *Server) handlePalette(w http.ResponseWriter, r *http.Request) {
	var req paletteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	p, ok := s.engine.DropPalette(req.Kind, geom.Pt(req.Offset[0], req.Offset[1]), true)
	s.mu.Unlock()
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeUnknownKind, "cannot place kind %q", req.Kind))
		return
	}
	writeJSON(w, http.StatusCreated, paletteResponse{Position: [2]float64{p.X, p.Y}})
}

type measureRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleMeasure(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req measureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	size := geom.Size{W: req.Width, H: req.Height}
	if !size.IsValid() {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid size %vx%v", req.Width, req.Height))
		return
	}

	s.mu.Lock()
	_, exists := s.engine.NodeElement(id)
	var stats canvas.EdgeStats
	if exists {
		stats = s.engine.ContentMeasured(id, size)
	}
	s.mu.Unlock()

	if !exists {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "node %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type paramRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleParam(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	param := chi.URLParam(r, "param")
	var req paramRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := errors.ValidateParamValue(req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	ok := s.params.Set(id, param, req.Value)
	s.mu.Unlock()
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "node %d has no parameter %q", id, param))
		return
	}
	s.writeGraph(w, s.store.State())
}

// =============================================================================
// Helpers
// =============================================================================

func nodeID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid node id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request")
	}
	return nil
}

func (s *Server) writeGraph(w http.ResponseWriter, g *graph.Graph) {
	data, err := graph.MarshalGraph(g)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Code: string(errors.ErrCodeInternal)})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeSVG(w http.ResponseWriter, svg []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	id := RequestID(r.Context())
	observability.HTTP().OnError(r.Context(), id, r.Method, r.URL.Path, err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", id, "err", err)
	} else {
		s.logger.Debug("request rejected", "id", id, "code", errors.GetCode(err), "err", errors.UserMessage(err))
	}
	writeJSON(w, status, errorBody{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))})
}
