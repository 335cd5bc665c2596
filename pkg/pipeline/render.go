package pipeline

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/config"
	"github.com/matzehuels/flowcanvas/pkg/content"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/render/nodelink"
	"github.com/matzehuels/flowcanvas/pkg/surface"
)

// Render produces the artifact selected by opts without touching a cache.
func Render(ctx context.Context, g *graph.Graph, cfg *config.File, opts Options, logger *log.Logger) ([]byte, canvas.Stats, error) {
	if err := opts.Validate(); err != nil {
		return nil, canvas.Stats{}, err
	}
	if opts.Type == TypeNodelink {
		svg, err := RenderNodelink(ctx, g, cfg.Schema(), opts)
		return svg, canvas.Stats{}, err
	}
	return RenderCanvas(g, cfg, opts, logger)
}

// RenderCanvas reconciles g onto a new surface and serializes it. Node
// bodies are drawn by the default parameter widget and measured from
// what it drew, so the output is deterministic.
func RenderCanvas(g *graph.Graph, cfg *config.File, opts Options, logger *log.Logger) ([]byte, canvas.Stats, error) {
	params := content.NewParams(cfg.Metrics())
	eng, err := canvas.New(cfg.CanvasConfig(),
		canvas.WithLogger(logger),
		canvas.WithContent(params),
		canvas.WithOracle(params.Measure),
	)
	if err != nil {
		return nil, canvas.Stats{}, err
	}

	var sopts []surface.Option
	if opts.Grid {
		sopts = append(sopts, surface.WithGrid(cfg.Canvas.Unit))
	}
	stats := eng.Attach(surface.New(eng.Context().Extent, sopts...))
	stats = stats.Add(eng.Update(g))
	return eng.Surface().SVG(), stats, nil
}

// RenderNodelink exports g through Graphviz.
func RenderNodelink(ctx context.Context, g *graph.Graph, schema graph.Schema, opts Options) ([]byte, error) {
	dot := nodelink.ToDOT(g, schema, nodelink.Options{Detailed: opts.Detailed})
	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, fmt.Errorf("nodelink: %w", err)
	}
	return svg, nil
}
