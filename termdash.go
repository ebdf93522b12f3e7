package termdash

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/termdash/internal/align"
	"github.com/jpalmerr/termdash/internal/logbuf"
	"github.com/jpalmerr/termdash/internal/render"
	"github.com/jpalmerr/termdash/internal/term"
)

// Dashboard draws a block of [Line] rows in place on a terminal and keeps it
// current while any number of goroutines push values into it.
//
// All methods are safe for concurrent use. A single lock guards the rows and
// their stats; the render goroutine holds it only long enough to copy values,
// so producers never wait on terminal I/O.
//
// The typical lifecycle is:
//
//	d, err := termdash.New(termdash.WithRefreshRate(200 * time.Millisecond))
//	if err != nil {
//	    slog.Error("failed to create dashboard", "error", err)
//	    os.Exit(1)
//	}
//	defer d.Close()
//
//	_ = d.AddLine(sys)
//	err = d.Run(ctx, func(ctx context.Context) error {
//	    return produce(ctx, d)
//	})
type Dashboard struct {
	mu sync.Mutex
	// top holds rows added with AddLineAtTop, most recent last.
	top      []Row
	bottom   []Row
	byName   map[string]Row
	sepCount int

	refreshRate      time.Duration
	statusLine       bool
	debugLocks       bool
	debugRendering   bool
	enableSeparators bool
	sepPattern       string
	reserveExtraRows int
	alignOpts        align.Options

	logs   *logbuf.Buffer
	sink   *logbuf.FileSink
	logger *slog.Logger
	trace  *slog.Logger
	clock  func() time.Time

	term    *term.Terminal
	palette *palette
	plain   *palette
	loop    *render.Loop

	// frameHeight and lastWidth belong to the render loop hooks.
	frameHeight int
	lastWidth   int

	closeOnce sync.Once
	closeErr  error
}

// New creates a [Dashboard] with the given options.
//
// Defaults:
//   - Refresh rate: 100ms
//   - Column alignment on, separator " | ", padding 1, no max width
//   - Status line on, no extra log rows
//   - Separators off, rule style
//   - Output: os.Stdout
//
// Returns an error wrapping [ErrInvalidConfig] if any option is invalid, or
// the open error if the log file cannot be opened.
//
// Example:
//
//	d, err := termdash.New(
//	    termdash.WithRefreshRate(250 * time.Millisecond),
//	    termdash.WithSeparators(true),
//	    termdash.WithReserveExtraRows(3),
//	)
func New(opts ...Option) (*Dashboard, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	d := &Dashboard{
		byName:           make(map[string]Row),
		refreshRate:      cfg.refreshRate,
		statusLine:       cfg.statusLine,
		debugLocks:       cfg.debugLocks,
		debugRendering:   cfg.debugRendering,
		enableSeparators: cfg.enableSeparators,
		sepPattern:       cfg.separatorPattern(),
		reserveExtraRows: cfg.reserveExtraRows,
		alignOpts: align.Options{
			Enabled:     cfg.alignColumns,
			Sep:         cfg.columnSep,
			MinColPad:   cfg.minColPad,
			MaxColWidth: cfg.maxColWidth,
		},
		logs:   logbuf.New(cfg.logCapacity),
		logger: cfg.logger,
		trace:  cfg.logger,
		clock:  cfg.clock,
	}

	if cfg.logFile != "" {
		sink, err := logbuf.OpenFile(cfg.logFile)
		if err != nil {
			return nil, err
		}
		d.sink = sink
		d.trace = slog.New(slog.NewTextHandler(sink, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var size term.SizeFunc
	if cfg.sizeFunc != nil {
		size = term.SizeFunc(cfg.sizeFunc)
	}
	d.term = term.New(cfg.output, size)
	d.palette = newPalette(cfg.output, cfg.colorProfile)
	d.plain = newPlainPalette()
	d.loop = render.New(cfg.refreshRate, render.Hooks{
		Setup:    d.setup,
		Frame:    d.frame,
		Teardown: d.teardown,
	}, cfg.logger)

	return d, nil
}

// lock acquires the dashboard lock and returns its release function.
// With debug locks enabled the wait and hold times of op are traced.
func (d *Dashboard) lock(op string) func() {
	if !d.debugLocks {
		d.mu.Lock()
		return d.mu.Unlock
	}
	requested := time.Now()
	d.mu.Lock()
	acquired := time.Now()
	return func() {
		d.mu.Unlock()
		d.trace.Debug("dashboard lock",
			"op", op,
			"wait", acquired.Sub(requested).String(),
			"held", time.Since(acquired).String(),
		)
	}
}

// AddLine appends row below the existing rows.
//
// Returns an error wrapping [ErrDuplicateName] if a row with the same name
// was already added.
func (d *Dashboard) AddLine(row Row) error {
	return d.add(row, false)
}

// AddLineAtTop inserts row above the existing rows.
//
// Returns an error wrapping [ErrDuplicateName] if a row with the same name
// was already added.
func (d *Dashboard) AddLineAtTop(row Row) error {
	return d.add(row, true)
}

func (d *Dashboard) add(row Row, atTop bool) error {
	if row == nil || row.base() == nil {
		return fmt.Errorf("%w: line cannot be nil", ErrInvalidConfig)
	}
	unlock := d.lock("add_line")
	defer unlock()

	name := row.Name()
	if _, ok := d.byName[name]; ok {
		return fmt.Errorf("%w: line %q", ErrDuplicateName, name)
	}
	row.base().adopt(d.clock)
	d.byName[name] = row
	if atTop {
		d.top = append(d.top, row)
	} else {
		d.bottom = append(d.bottom, row)
	}
	return nil
}

// AddSeparator appends a separator row drawn with the configured separator
// style. It does nothing unless [WithSeparators] is enabled.
//
// Separators are named "separator-1", "separator-2" and so on, so they can
// be removed with [Dashboard.RemoveLine].
func (d *Dashboard) AddSeparator() {
	if !d.enableSeparators {
		return
	}
	unlock := d.lock("add_separator")
	defer unlock()

	for {
		d.sepCount++
		name := fmt.Sprintf("separator-%d", d.sepCount)
		if _, ok := d.byName[name]; ok {
			continue
		}
		l := &Line{name: name, index: map[string]int{}, style: StyleSeparator, now: d.clock}
		d.byName[name] = l
		d.bottom = append(d.bottom, l)
		return
	}
}

// RemoveLine removes the named row. It reports whether the row existed.
//
// Aggregated lines that use the row as a source keep reading its last values.
func (d *Dashboard) RemoveLine(name string) bool {
	unlock := d.lock("remove_line")
	defer unlock()

	row, ok := d.byName[name]
	if !ok {
		return false
	}
	delete(d.byName, name)
	d.top = removeRow(d.top, row)
	d.bottom = removeRow(d.bottom, row)
	return true
}

func removeRow(rows []Row, row Row) []Row {
	for i, r := range rows {
		if r == row {
			return append(rows[:i], rows[i+1:]...)
		}
	}
	return rows
}

// Line returns the named row.
//
// The returned row must not be mutated directly while the dashboard is
// running; use the Dashboard's stat methods instead.
func (d *Dashboard) Line(name string) (Row, bool) {
	unlock := d.lock("line")
	defer unlock()

	row, ok := d.byName[name]
	return row, ok
}

// Lines returns the row names in render order.
func (d *Dashboard) Lines() []string {
	unlock := d.lock("lines")
	defer unlock()

	rows := d.rowsLocked()
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name()
	}
	return names
}

// rowsLocked returns the rows in render order. Callers hold the lock.
func (d *Dashboard) rowsLocked() []Row {
	rows := make([]Row, 0, len(d.top)+len(d.bottom))
	for i := len(d.top) - 1; i >= 0; i-- {
		rows = append(rows, d.top[i])
	}
	return append(rows, d.bottom...)
}

// UpdateStat sets a stat value.
//
// An unknown line or stat is logged and the update dropped, so a producer
// that races ahead of [Dashboard.AddLine] never fails.
func (d *Dashboard) UpdateStat(line, stat string, value any) {
	unlock := d.lock("update_stat")
	err := d.withLine(line, func(l *Line) error {
		return l.UpdateStat(stat, value)
	})
	unlock()

	if err != nil {
		d.logger.Warn("dropped stat update", "line", line, "stat", stat, "error", err)
	}
}

// ResetStat restores a stat's initial value and suppresses its staleness
// warning for grace, even if grace exceeds the stale threshold.
//
// An unknown line or stat is logged and the reset dropped.
func (d *Dashboard) ResetStat(line, stat string, grace time.Duration) {
	unlock := d.lock("reset_stat")
	err := d.withLine(line, func(l *Line) error {
		return l.ResetStat(stat, grace)
	})
	unlock()

	if err != nil {
		d.logger.Warn("dropped stat reset", "line", line, "stat", stat, "error", err)
	}
}

// ReadStat returns the last value set on a stat. ok is false if the line or
// stat does not exist.
//
// Aggregated lines return the value computed on the last render tick.
func (d *Dashboard) ReadStat(line, stat string) (value any, ok bool) {
	unlock := d.lock("read_stat")
	defer unlock()

	row, found := d.byName[line]
	if !found {
		return nil, false
	}
	s, found := row.base().Stat(stat)
	if !found {
		return nil, false
	}
	return s.value, true
}

// withLine runs fn on the named line. Callers hold the lock.
func (d *Dashboard) withLine(name string, fn func(*Line) error) error {
	row, ok := d.byName[name]
	if !ok {
		return fmt.Errorf("line %q: %w", name, ErrNotFound)
	}
	return fn(row.base())
}

// SumStats adds the named stat across lines. Non-numeric values count as 0.
//
// With no line names every plain line is included; aggregated lines and
// separators are skipped so totals are not counted twice. Lines without the
// stat, and unknown line names, are skipped.
func (d *Dashboard) SumStats(stat string, lines ...string) float64 {
	return sum(d.collect(stat, lines))
}

// AvgStats averages the named stat across lines, following the same rules as
// [Dashboard.SumStats]. Non-numeric values count as 0 in the average. Returns
// 0 when no line has the stat.
func (d *Dashboard) AvgStats(stat string, lines ...string) float64 {
	return average(d.collect(stat, lines))
}

func (d *Dashboard) collect(stat string, lines []string) []any {
	unlock := d.lock("collect_stats")
	defer unlock()

	var rows []Row
	if len(lines) == 0 {
		for _, r := range d.rowsLocked() {
			if _, agg := r.(*AggregatedLine); !agg {
				rows = append(rows, r)
			}
		}
	} else {
		for _, name := range lines {
			if r, ok := d.byName[name]; ok {
				rows = append(rows, r)
			}
		}
	}

	values := make([]any, 0, len(rows))
	for _, r := range rows {
		if s, ok := r.base().Stat(stat); ok {
			values = append(values, s.value)
		}
	}
	return values
}

// Log records a message in the log region.
//
// The entry is written to the log file immediately when one is configured;
// the terminal shows it on the next render tick.
func (d *Dashboard) Log(level slog.Level, msg string) {
	e := logbuf.Entry{Time: d.clock(), Level: level, Message: msg}
	d.logs.Append(e)
	if d.sink == nil {
		return
	}
	if err := d.sink.WriteEntry(e); err != nil {
		d.logger.Warn("failed to write log file", "path", d.sink.Path(), "error", err)
	}
}

// Logf formats a message and records it with [Dashboard.Log].
func (d *Dashboard) Logf(level slog.Level, format string, args ...any) {
	d.Log(level, fmt.Sprintf(format, args...))
}

// Start reserves screen space and launches the render goroutine.
//
// Start is non-blocking and idempotent: calling it while the dashboard is
// running does nothing. Cancelling ctx stops the ticks; [Dashboard.Stop]
// must still be called to draw the final frame and restore the cursor.
//
// Returns an error wrapping [ErrTerminalUnavailable] if the output cannot be
// written, or if the render goroutine of a previous run is still blocked on
// a write.
func (d *Dashboard) Start(ctx context.Context) error {
	started, err := d.loop.Start(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTerminalUnavailable, err)
	}
	if !started {
		d.logger.Debug("dashboard already running")
	}
	return nil
}

// Stop halts the render goroutine, draws one final frame and restores the
// cursor. The final frame stays in the terminal scrollback.
//
// Stop is safe to call from any goroutine, waits at most slightly longer
// than the refresh rate for an in-flight tick, and is idempotent.
//
// Returns an error wrapping [ErrTerminalUnavailable] if the output failed
// persistently while running or during the final frame.
func (d *Dashboard) Stop() error {
	if err := d.loop.Stop(); err != nil {
		return fmt.Errorf("%w: %w", ErrTerminalUnavailable, err)
	}
	return nil
}

// Running reports whether the render goroutine is active. It is false once
// the start context is cancelled or the output fails persistently, even
// before [Dashboard.Stop] is called.
func (d *Dashboard) Running() bool {
	return d.loop.Ticking()
}

// Run starts the dashboard, calls fn and stops the dashboard when fn
// returns, fails or panics.
//
// A nil fn blocks until ctx is cancelled. The returned error joins fn's
// error with any error from [Dashboard.Stop].
//
// Example:
//
//	err := d.Run(ctx, func(ctx context.Context) error {
//	    for i := 0; ctx.Err() == nil; i++ {
//	        d.UpdateStat("jobs", "done", i)
//	        time.Sleep(50 * time.Millisecond)
//	    }
//	    return nil
//	})
func (d *Dashboard) Run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := d.Start(ctx); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, d.Stop())
	}()

	if fn == nil {
		<-ctx.Done()
		return nil
	}
	return fn(ctx)
}

// Close stops the dashboard and closes the log file.
// It is safe to call multiple times.
func (d *Dashboard) Close() error {
	d.closeOnce.Do(func() {
		errs := []error{d.Stop()}
		if d.sink != nil {
			errs = append(errs, d.sink.Close())
		}
		d.closeErr = errors.Join(errs...)
	})
	return d.closeErr
}
