package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/termdash"
	"github.com/jpalmerr/termdash/config"
)

// defaultLayout is used when demo runs without --config.
const defaultLayout = `
refresh_rate: 100ms
enable_separators: true
separator_style: rule
reserve_extra_rows: 2
lines:
  - name: header
    style: header
    stats:
      - {name: worker, initial: worker}
      - {name: cpu, initial: cpu}
      - {name: jobs, initial: jobs}
  - separator: true
  - name: w1
    stats:
      - {name: worker, initial: w1}
      - {name: cpu, initial: 20.0, format: "%.1f%%", color: {type: threshold, warn: 70, crit: 90}, warn_if_stale: 3s}
      - {name: jobs, initial: 0, format: "%.0f"}
  - name: w2
    stats:
      - {name: worker, initial: w2}
      - {name: cpu, initial: 40.0, format: "%.1f%%", color: {type: threshold, warn: 70, crit: 90}, warn_if_stale: 3s}
      - {name: jobs, initial: 0, format: "%.0f"}
  - name: w3
    stats:
      - {name: worker, initial: w3}
      - {name: cpu, initial: 60.0, format: "%.1f%%", color: {type: threshold, warn: 70, crit: 90}, warn_if_stale: 3s}
      - {name: jobs, initial: 0, format: "%.0f"}
  - separator: true
  - name: total
    aggregate: {sources: [w1, w2, w3], mode: sum}
    stats:
      - {name: worker, initial: total}
      - {name: cpu, initial: 0.0, format: "%.1f%%"}
      - {name: jobs, initial: 0, format: "%.0f"}
`

// tickInterval is how often each demo producer updates its stats.
const tickInterval = 250 * time.Millisecond

// newLogger creates a JSON logger for CLI use.
//
// The dashboard owns the terminal while running, so the logger is silenced
// when stderr is a terminal.
func newLogger(w *os.File) *slog.Logger {
	var out io.Writer = w
	if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
		out = io.Discard
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a dashboard with simulated producers",
	Long: `Run a dashboard and feed it random values.

Every numeric stat of every plain line gets a producer goroutine that walks
its value up and down. Aggregated lines follow their sources. Lines whose
producer stalls turn yellow once their warn_if_stale threshold passes.

The demo runs until interrupted (Ctrl+C), receives SIGTERM, or --duration
elapses.

Example:
  termdash demo
  termdash demo -c layout.yaml --duration 30s`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().StringP("config", "c", "", "path to layout file (default: built-in layout)")
	demoCmd.Flags().DurationP("duration", "d", 0, "stop after this long (0 runs until interrupted)")
}

func runDemo(cmd *cobra.Command, args []string) error {
	logger := newLogger(os.Stderr)

	cfg, err := loadLayout(cmd)
	if err != nil {
		return err
	}
	logger.Info("layout loaded",
		"lines", len(cfg.Lines),
		"refresh_rate", cfg.RefreshRate.Duration().String(),
	)

	d, err := config.Build(cfg,
		termdash.WithOutput(cmd.OutOrStdout()),
		termdash.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to build dashboard: %w", err)
	}
	defer d.Close()

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if duration, _ := cmd.Flags().GetDuration("duration"); duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	err = d.Run(ctx, func(ctx context.Context) error {
		return produce(ctx, d, cfg)
	})
	if err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}

	logger.Info("demo finished")
	return nil
}

func loadLayout(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Parse([]byte(defaultLayout))
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// walker is one simulated metric source.
type walker struct {
	line  string
	stat  string
	value float64
}

// walkers returns a producer for every numeric stat of every plain line.
func walkers(cfg *config.Config) []walker {
	var ws []walker
	for _, lc := range cfg.Lines {
		if lc.Separator || lc.Aggregate != nil {
			continue
		}
		for _, sc := range lc.Stats {
			switch sc.Initial.(type) {
			case int, int64, uint64, float64:
			default:
				continue
			}
			v, err := cast.ToFloat64E(sc.Initial)
			if err != nil {
				continue
			}
			ws = append(ws, walker{line: lc.Name, stat: sc.Name, value: v})
		}
	}
	return ws
}

// produce runs the producers until ctx is done.
func produce(ctx context.Context, d *termdash.Dashboard, cfg *config.Config) error {
	ws := walkers(cfg)
	d.Logf(slog.LevelInfo, "demo started with %d producers", len(ws))

	g, ctx := errgroup.WithContext(ctx)
	for _, w := range ws {
		g.Go(func() error {
			return w.run(ctx, d)
		})
	}
	return g.Wait()
}

func (w walker) run(ctx context.Context, d *termdash.Dashboard) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		// an occasional stall lets the stale warning show
		if rand.IntN(40) == 0 {
			d.Logf(slog.LevelWarn, "%s/%s stalled", w.line, w.stat)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(4 * time.Second):
			}
			d.Logf(slog.LevelInfo, "%s/%s resumed", w.line, w.stat)
		}

		w.value = step(w.value)
		d.UpdateStat(w.line, w.stat, w.value)
	}
}

// step moves v by up to 5 in either direction, clamped to [0, 100].
func step(v float64) float64 {
	v += rand.Float64()*10 - 5
	return min(max(v, 0), 100)
}
