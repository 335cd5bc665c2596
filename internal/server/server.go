// Package server exposes a live canvas over HTTP.
//
// One Server owns a graph store, a canvas engine subscribed to it and the
// default parameter widget. Requests either read the rendered surface or
// feed intents and measurements into the engine and the store, under one
// mutex, so every response reflects a fully reconciled canvas.
//
// Routes:
//
//	GET  /healthz                      liveness probe
//	GET  /graph                        current graph as JSON
//	GET  /canvas.svg                   live canvas (?type=nodelink for Graphviz)
//	POST /intents                      apply one intent ({"type": ...})
//	POST /connect                      run a connect gesture between two ports
//	POST /palette                      drop a palette item at a pointer offset
//	POST /nodes/{id}/measure           report a node's painted content size
//	PUT  /nodes/{id}/params/{param}    edit a parameter through its widget
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/config"
	"github.com/matzehuels/flowcanvas/pkg/content"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
	"github.com/matzehuels/flowcanvas/pkg/store"
	"github.com/matzehuels/flowcanvas/pkg/surface"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// Server serves one canvas.
type Server struct {
	mu     sync.Mutex
	cfg    *config.File
	store  *store.Store
	engine *canvas.Engine
	params *content.Params
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithRunner sets the runner used for nodelink exports. Defaults to an
// uncached runner.
func WithRunner(r *pipeline.Runner) Option { return func(s *Server) { s.runner = r } }

// New builds a server for cfg, starting from initial (nil for an empty
// canvas).
func New(cfg *config.File, initial *graph.Graph, opts ...Option) (*Server, error) {
	s := &Server{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}

	s.store = store.New(initial,
		store.WithSchema(cfg.Schema()),
		store.WithErrorHandler(func(i canvas.Intent, err error) {
			s.logger.Warn("intent rejected", "intent", i.Name(), "err", err)
		}),
	)
	s.params = content.NewParams(cfg.Metrics())

	eng, err := canvas.New(cfg.CanvasConfig(),
		canvas.WithLogger(s.logger),
		canvas.WithContent(s.params),
		canvas.WithOracle(s.params.Measure),
		canvas.WithDispatcher(s.store.Dispatch),
	)
	if err != nil {
		return nil, err
	}
	s.engine = eng
	s.store.Subscribe(func(g *graph.Graph) { s.engine.Update(g) })
	s.engine.Attach(surface.New(eng.Context().Extent, surface.WithGrid(cfg.Canvas.Unit)))
	s.engine.Update(s.store.State())

	s.router = s.routes()
	return s, nil
}

// Engine returns the canvas engine. Callers must not use it concurrently
// with requests.
func (s *Server) Engine() *canvas.Engine { return s.engine }

// Store returns the graph store.
func (s *Server) Store() *store.Store { return s.store }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/graph", s.handleGraph)
	r.Get("/canvas.svg", s.handleCanvas)
	r.Post("/intents", s.handleIntent)
	r.Post("/connect", s.handleConnect)
	r.Post("/palette", s.handlePalette)
	r.Route("/nodes/{id}", func(r chi.Router) {
		r.Post("/measure", s.handleMeasure)
		r.Put("/params/{param}", s.handleParam)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr, "canvas", s.engine.ID())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
