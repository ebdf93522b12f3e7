// Command example builds a dashboard in code and drives it from worker
// goroutines that simulate a batch of downloads.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/termdash"
)

const (
	workers    = 4
	filesEach  = 5
	chunkDelay = 40 * time.Millisecond
)

// progressColor turns a completion percentage green once it reaches 100.
var progressColor = termdash.ComputedColor(func(v any) string {
	if pct, ok := v.(float64); ok && pct >= 100 {
		return "green"
	}
	return ""
})

func main() {
	if err := run(); err != nil {
		slog.Error("example failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	d, err := termdash.New(
		termdash.WithRefreshRate(80*time.Millisecond),
		termdash.WithSeparators(true),
		termdash.WithSeparatorStyle(termdash.SeparatorDash),
		termdash.WithReserveExtraRows(3),
	)
	if err != nil {
		return err
	}
	defer d.Close()

	header, err := newRow("header", []any{"worker", "file", "progress", "MiB/s"},
		termdash.WithLineStyle(termdash.StyleHeader))
	if err != nil {
		return err
	}
	if err := d.AddLine(header); err != nil {
		return err
	}
	d.AddSeparator()

	names := make([]string, 0, workers)
	sources := make([]termdash.Row, 0, workers)
	for i := range workers {
		line, err := workerLine(fmt.Sprintf("w%d", i+1))
		if err != nil {
			return err
		}
		if err := d.AddLine(line); err != nil {
			return err
		}
		names = append(names, line.Name())
		sources = append(sources, line)
	}
	d.AddSeparator()

	total, err := totalLine(sources)
	if err != nil {
		return err
	}
	if err := d.AddLine(total); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = d.Run(ctx, func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		for _, name := range names {
			g.Go(func() error {
				return download(ctx, d, name)
			})
		}
		return g.Wait()
	})
	if err != nil {
		return err
	}

	fmt.Printf("average throughput %.1f MiB/s\n", d.AvgStats("rate", names...))
	return nil
}

func newRow(name string, values []any, opts ...termdash.LineOption) (*termdash.Line, error) {
	keys := []string{"worker", "file", "progress", "rate"}
	stats := make([]*termdash.Stat, 0, len(values))
	for i, v := range values {
		s, err := termdash.NewStat(keys[i], v)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return termdash.NewLine(name, stats, opts...)
}

func workerLine(name string) (*termdash.Line, error) {
	worker, err := termdash.NewStat("worker", name)
	if err != nil {
		return nil, err
	}
	file, err := termdash.NewStat("file", "-", termdash.WithNoExpand(12))
	if err != nil {
		return nil, err
	}
	progress, err := termdash.NewStat("progress", 0.0,
		termdash.WithFormat("%5.1f%%"),
		termdash.WithColor(progressColor),
		termdash.WithStaleWarning(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	rate, err := termdash.NewStat("rate", 0.0, termdash.WithFormat("%.1f"))
	if err != nil {
		return nil, err
	}
	return termdash.NewLine(name, []*termdash.Stat{worker, file, progress, rate})
}

func totalLine(sources []termdash.Row) (*termdash.AggregatedLine, error) {
	label, err := termdash.NewStat("worker", "total")
	if err != nil {
		return nil, err
	}
	rate, err := termdash.NewStat("rate", 0.0, termdash.WithFormat("%.1f"))
	if err != nil {
		return nil, err
	}
	return termdash.NewAggregatedLine("total", []*termdash.Stat{label, rate}, sources)
}

// download simulates one worker fetching filesEach files in chunks.
func download(ctx context.Context, d *termdash.Dashboard, worker string) error {
	for n := range filesEach {
		file := fmt.Sprintf("part-%03d.bin", rand.IntN(1000))
		d.UpdateStat(worker, "file", file)
		d.ResetStat(worker, "progress", time.Second)

		for pct := 0.0; pct < 100; {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(chunkDelay):
			}
			chunk := 1 + rand.Float64()*4
			pct = min(pct+chunk, 100)
			d.UpdateStat(worker, "progress", pct)
			d.UpdateStat(worker, "rate", chunk*2.5)
		}
		d.Logf(slog.LevelInfo, "%s finished %s (%d/%d)", worker, file, n+1, filesEach)
	}
	d.UpdateStat(worker, "rate", 0.0)
	return nil
}
