package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/internal/server"
	"github.com/matzehuels/flowcanvas/pkg/graph"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr   string
	config string
	graph  string
	cache  cacheOpts
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := &serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live canvas over HTTP",
		Long: `Serve a live canvas over HTTP.

The server keeps one graph in memory and reconciles the canvas after every
intent. GET /canvas.svg returns the current drawing, POST /intents applies
an intent, and the gesture endpoints (/connect, /palette) drive the drag
preview and the drop placer.`,
		Example: `  flowcanvas serve
  flowcanvas serve --graph graph.json --addr :9090
  flowcanvas serve -c canvas.toml --redis-addr localhost:6379`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "canvas config file (TOML)")
	cmd.Flags().StringVar(&opts.graph, "graph", "", "initial graph file (default empty canvas)")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	var initial *graph.Graph
	if opts.graph != "" {
		if initial, err = graph.ReadGraphFile(opts.graph); err != nil {
			return err
		}
		for _, p := range graph.Problems(initial, cfg.Schema()) {
			logger.Warn("graph problem", "err", p)
		}
	}

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv, err := server.New(cfg, initial, server.WithLogger(logger), server.WithRunner(runner))
	if err != nil {
		return err
	}

	printInfo("Serving canvas %s", StyleHighlight.Render(srv.Engine().ID()))
	printKeyValue("Listening", opts.addr)
	return srv.ListenAndServe(ctx, opts.addr)
}
