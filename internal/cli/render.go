package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	config   string
	output   string
	typ      string
	grid     bool
	detailed bool
	refresh  bool
	cache    cacheOpts
}

// renderCommand creates the render command for turning graph files into SVG.
func (c *CLI) renderCommand() *cobra.Command {
	opts := &renderOpts{}

	cmd := &cobra.Command{
		Use:   "render <graph.json>",
		Short: "Render a graph file to SVG",
		Long: `Render a graph file to SVG.

The canvas type runs the full reconciliation engine headlessly: nodes are
placed at their stored positions, bodies are drawn by the parameter widget
and every edge is drawn as a curved connector between port anchors.

The nodelink type exports the graph through Graphviz instead, with one
record per node and one slot per port.`,
		Example: `  flowcanvas render graph.json
  flowcanvas render graph.json --grid -o canvas.svg
  flowcanvas render graph.json --type nodelink --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "canvas config file (TOML)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <input>.svg, - for stdout)")
	cmd.Flags().StringVarP(&opts.typ, "type", "t", pipeline.TypeCanvas, "render type: canvas, nodelink")
	cmd.Flags().BoolVar(&opts.grid, "grid", false, "draw the placement grid (canvas only)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node ids and parameters (nodelink only)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	popts := pipeline.Options{
		Type:     opts.typ,
		Grid:     opts.grid,
		Detailed: opts.detailed,
		Refresh:  opts.refresh,
	}
	if err := popts.Validate(); err != nil {
		return err
	}

	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}
	for _, p := range graph.Problems(g, cfg.Schema()) {
		logger.Warn("graph problem", "err", p)
	}

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", filepath.Base(input)))
	spinner.Start()
	result, err := runner.Render(ctx, g, cfg, popts)
	spinner.Stop()
	if err != nil {
		return fmt.Errorf("render %s: %w", input, err)
	}

	path := opts.output
	if path == "" {
		path = outputPath(input, ".svg")
	}
	if err := writeOutput(path, result.SVG); err != nil {
		return err
	}
	if path == "-" {
		return nil
	}

	printSuccess("Rendered %s", popts.Type)
	printStats(g.NodeCount(), g.EdgeCount(), result.Cached)
	printFile(path)
	if popts.Type == pipeline.TypeCanvas {
		printNextStep("Edit it live", "flowcanvas serve --graph "+input)
	}
	return nil
}

// outputPath derives an output file name from the input by swapping its
// extension.
func outputPath(input, ext string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

// writeOutput writes data to path via openOutput.
func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
