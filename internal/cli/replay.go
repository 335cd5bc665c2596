package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/config"
	"github.com/matzehuels/flowcanvas/pkg/content"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/store"
	"github.com/matzehuels/flowcanvas/pkg/surface"
)

// maxIntentLine bounds a single line of an intent log.
const maxIntentLine = 1 << 20

// replayOpts holds the flags of the replay command.
type replayOpts struct {
	config string
	output string
	svg    string
	tui    bool
}

// replayStep records what one intent did to the canvas.
type replayStep struct {
	Line   int
	Intent string
	Err    error
	Stats  canvas.Stats
	Nodes  int
	Edges  int
}

// replayResult is the outcome of a replay.
type replayResult struct {
	Steps  []replayStep
	Graph  *graph.Graph
	SVG    []byte
	Failed int
}

// replayCommand creates the replay command.
func (c *CLI) replayCommand() *cobra.Command {
	opts := &replayOpts{}

	cmd := &cobra.Command{
		Use:   "replay <graph.json> <intents.jsonl>",
		Short: "Replay an intent log against a graph",
		Long: `Replay an intent log against a graph.

Each non-empty line of the log is one intent as JSON, for example:

  {"type":"create_node","kind":"add","position":[120,60]}
  {"type":"connect","source":{"node":1,"output":0},"target":{"node":3,"input":0}}

Lines starting with # are comments. Every intent goes through the store
and the canvas engine, exactly as it would in a live session. Rejected
intents are reported and skipped.`,
		Example: `  flowcanvas replay graph.json session.jsonl
  flowcanvas replay graph.json session.jsonl -o final.json --svg final.svg
  flowcanvas replay graph.json session.jsonl --tui`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReplay(cmd.Context(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "canvas config file (TOML)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the final graph as JSON")
	cmd.Flags().StringVar(&opts.svg, "svg", "", "write the final canvas as SVG")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "browse the steps interactively")

	return cmd
}

func (c *CLI) runReplay(ctx context.Context, graphPath, logPath string, opts *replayOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	g, err := graph.ReadGraphFile(graphPath)
	if err != nil {
		return err
	}
	if err := errors.ValidatePath(logPath, false); err != nil {
		return err
	}
	f, err := os.Open(logPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", logPath)
	}
	defer f.Close()

	prog := newProgress(logger)
	res, err := replay(cfg, g, f, logger)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Replayed %d intents", len(res.Steps)))

	if opts.output != "" {
		if err := graph.WriteGraphFile(res.Graph, opts.output); err != nil {
			return err
		}
	}
	if opts.svg != "" {
		if err := writeOutput(opts.svg, res.SVG); err != nil {
			return err
		}
	}

	if opts.tui {
		if _, err := tea.NewProgram(newReplayModel(res.Steps), tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("tui: %w", err)
		}
	} else {
		fmt.Println(replayTable(res.Steps))
	}

	if res.Failed > 0 {
		printWarning("%d of %d intents rejected", res.Failed, len(res.Steps))
	} else {
		printSuccess("Replayed %d intents", len(res.Steps))
	}
	printStats(res.Graph.NodeCount(), res.Graph.EdgeCount(), false)
	for _, path := range []string{opts.output, opts.svg} {
		if path != "" && path != "-" {
			printFile(path)
		}
	}
	return nil
}

// replay applies every intent read from r to a store seeded with initial.
// An engine subscribed to the store reconciles a headless surface after
// each accepted intent. Malformed lines and rejected intents are recorded
// as failed steps.
func replay(cfg *config.File, initial *graph.Graph, r io.Reader, logger *log.Logger) (*replayResult, error) {
	st := store.New(initial, store.WithSchema(cfg.Schema()))
	params := content.NewParams(cfg.Metrics())
	eng, err := canvas.New(cfg.CanvasConfig(),
		canvas.WithLogger(logger),
		canvas.WithContent(params),
		canvas.WithOracle(params.Measure),
		canvas.WithDispatcher(st.Dispatch),
	)
	if err != nil {
		return nil, err
	}

	var last canvas.Stats
	st.Subscribe(func(g *graph.Graph) { last = eng.Update(g) })
	eng.Attach(surface.New(eng.Context().Extent, surface.WithGrid(cfg.Canvas.Unit)))
	eng.Update(st.State())

	res := &replayResult{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxIntentLine)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		step := replayStep{Line: line}
		i, err := canvas.UnmarshalIntent([]byte(text))
		if err == nil {
			step.Intent = i.Name()
			last = canvas.Stats{}
			_, err = st.Apply(i)
			step.Stats = last
		}
		if err != nil {
			step.Err = err
			res.Failed++
			logger.Debug("intent rejected", "line", line, "err", err)
		}

		cur := st.State()
		step.Nodes, step.Edges = cur.NodeCount(), cur.EdgeCount()
		res.Steps = append(res.Steps, step)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read intent log")
	}

	res.Graph = st.State()
	res.SVG = eng.Surface().SVG()
	return res, nil
}
