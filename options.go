package termdash

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/muesli/termenv"

	"github.com/jpalmerr/termdash/internal/logbuf"
)

const (
	defaultRefreshRate = 100 * time.Millisecond
	defaultColumnSep   = " | "
	defaultMinColPad   = 1
)

// SeparatorStyle names the pattern drawn by [Dashboard.AddSeparator].
type SeparatorStyle string

const (
	// SeparatorRule draws a solid box-drawing rule.
	SeparatorRule SeparatorStyle = "rule"

	// SeparatorDash draws ASCII dashes.
	SeparatorDash SeparatorStyle = "dash"

	// SeparatorDot draws middle dots.
	SeparatorDot SeparatorStyle = "dot"
)

// Pattern returns the text repeated across the width for the style.
func (s SeparatorStyle) Pattern() string {
	switch s {
	case SeparatorDash:
		return "-"
	case SeparatorDot:
		return "·"
	default:
		return "─"
	}
}

// ParseSeparatorStyle converts a style name into a [SeparatorStyle].
// An empty name is SeparatorRule.
func ParseSeparatorStyle(name string) (SeparatorStyle, error) {
	switch s := SeparatorStyle(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return SeparatorRule, nil
	case SeparatorRule, SeparatorDash, SeparatorDot:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown separator style %q", ErrInvalidConfig, name)
	}
}

// dashConfig holds mutable state during Dashboard construction.
type dashConfig struct {
	refreshRate      time.Duration
	logFile          string
	statusLine       bool
	debugLocks       bool
	debugRendering   bool
	alignColumns     bool
	columnSep        string
	minColPad        int
	maxColWidth      int
	enableSeparators bool
	separatorStyle   SeparatorStyle
	separatorCustom  string
	reserveExtraRows int

	output       io.Writer
	sizeFunc     func() (width, height int, err error)
	logger       *slog.Logger
	logCapacity  int
	colorProfile *termenv.Profile
	clock        func() time.Time
}

func defaultConfig() *dashConfig {
	return &dashConfig{
		refreshRate:    defaultRefreshRate,
		statusLine:     true,
		alignColumns:   true,
		columnSep:      defaultColumnSep,
		minColPad:      defaultMinColPad,
		separatorStyle: SeparatorRule,
		output:         os.Stdout,
		logger:         slog.Default(),
		logCapacity:    logbuf.DefaultCapacity,
		clock:          time.Now,
	}
}

// separatorPattern returns the custom pattern if set, else the style's.
func (cfg *dashConfig) separatorPattern() string {
	if cfg.separatorCustom != "" {
		return cfg.separatorCustom
	}
	return cfg.separatorStyle.Pattern()
}

// Option is a function that configures a [Dashboard] during construction.
//
// Options return an error if validation fails; [New] wraps it with
// [ErrInvalidConfig].
type Option func(*dashConfig) error

// WithRefreshRate sets how often the dashboard is redrawn.
// Defaults to 100ms.
//
// Returns an error if the duration is zero or negative.
func WithRefreshRate(d time.Duration) Option {
	return func(cfg *dashConfig) error {
		if d <= 0 {
			return errors.New("refresh rate must be positive")
		}
		cfg.refreshRate = d
		return nil
	}
}

// WithLogFile appends every [Dashboard.Log] entry to the file at path.
//
// With [WithDebugLocks] or [WithDebugRendering] the diagnostic traces go to
// the same file so they never disturb the terminal area. An empty path
// disables the file. The file is opened by [New] and closed by
// [Dashboard.Close].
//
// Example:
//
//	d, err := termdash.New(
//	    termdash.WithLogFile("/tmp/dash.log"),
//	    termdash.WithDebugRendering(true),
//	)
func WithLogFile(path string) Option {
	return func(cfg *dashConfig) error {
		cfg.logFile = path
		return nil
	}
}

// WithStatusLine toggles the status row below the dashboard that shows the
// latest log entry. Enabled by default.
func WithStatusLine(enabled bool) Option {
	return func(cfg *dashConfig) error {
		cfg.statusLine = enabled
		return nil
	}
}

// WithDebugLocks traces how long callers wait for and hold the dashboard
// lock.
func WithDebugLocks(enabled bool) Option {
	return func(cfg *dashConfig) error {
		cfg.debugLocks = enabled
		return nil
	}
}

// WithDebugRendering traces every render tick: width, rows and duration.
func WithDebugRendering(enabled bool) Option {
	return func(cfg *dashConfig) error {
		cfg.debugRendering = enabled
		return nil
	}
}

// WithAlignColumns toggles column alignment. Enabled by default.
func WithAlignColumns(enabled bool) Option {
	return func(cfg *dashConfig) error {
		cfg.alignColumns = enabled
		return nil
	}
}

// WithColumnSep sets the text placed between stats. Alignment lines these up
// vertically across rows. Defaults to " | ".
//
// Returns an error if sep is empty.
func WithColumnSep(sep string) Option {
	return func(cfg *dashConfig) error {
		if sep == "" {
			return errors.New("column separator cannot be empty")
		}
		cfg.columnSep = sep
		return nil
	}
}

// WithMinColPad sets the spaces added after each aligned column.
// Defaults to 1.
//
// Returns an error if n is negative.
func WithMinColPad(n int) Option {
	return func(cfg *dashConfig) error {
		if n < 0 {
			return errors.New("min column pad cannot be negative")
		}
		cfg.minColPad = n
		return nil
	}
}

// WithMaxColWidth clips aligned columns wider than n cells with an ellipsis.
// Zero means unlimited, the default.
//
// Returns an error if n is negative.
func WithMaxColWidth(n int) Option {
	return func(cfg *dashConfig) error {
		if n < 0 {
			return errors.New("max column width cannot be negative")
		}
		cfg.maxColWidth = n
		return nil
	}
}

// WithSeparators enables [Dashboard.AddSeparator]. Without it AddSeparator
// does nothing.
func WithSeparators(enabled bool) Option {
	return func(cfg *dashConfig) error {
		cfg.enableSeparators = enabled
		return nil
	}
}

// WithSeparatorStyle sets the separator pattern. Defaults to [SeparatorRule].
//
// Returns an error for unknown styles.
func WithSeparatorStyle(s SeparatorStyle) Option {
	return func(cfg *dashConfig) error {
		style, err := ParseSeparatorStyle(string(s))
		if err != nil {
			return err
		}
		cfg.separatorStyle = style
		return nil
	}
}

// WithSeparatorCustom overrides the separator style with pattern.
//
// Example:
//
//	d, err := termdash.New(
//	    termdash.WithSeparators(true),
//	    termdash.WithSeparatorCustom("=~"),
//	)
func WithSeparatorCustom(pattern string) Option {
	return func(cfg *dashConfig) error {
		cfg.separatorCustom = pattern
		return nil
	}
}

// WithReserveExtraRows reserves n rows below the dashboard for the most
// recent log entries.
//
// Returns an error if n is negative.
func WithReserveExtraRows(n int) Option {
	return func(cfg *dashConfig) error {
		if n < 0 {
			return errors.New("reserve extra rows cannot be negative")
		}
		cfg.reserveExtraRows = n
		return nil
	}
}

// WithOutput sets the stream the dashboard draws on. Defaults to os.Stdout.
//
// Cursor hiding and size detection only apply when w is a terminal.
//
// Returns an error if w is nil.
func WithOutput(w io.Writer) Option {
	return func(cfg *dashConfig) error {
		if w == nil {
			return errors.New("output cannot be nil")
		}
		cfg.output = w
		return nil
	}
}

// WithSizeFunc overrides terminal size detection. Non-positive dimensions and
// errors fall back to 80x24.
//
// Nil functions are silently ignored.
func WithSizeFunc(fn func() (width, height int, err error)) Option {
	return func(cfg *dashConfig) error {
		if fn != nil {
			cfg.sizeFunc = fn
		}
		return nil
	}
}

// WithLogger sets the [slog.Logger] that records dropped updates, render
// failures and, without a log file, debug traces.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *dashConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithLogCapacity sets how many log entries are kept in memory.
// Defaults to 100.
//
// Returns an error if n is zero or negative.
func WithLogCapacity(n int) Option {
	return func(cfg *dashConfig) error {
		if n <= 0 {
			return errors.New("log capacity must be positive")
		}
		cfg.logCapacity = n
		return nil
	}
}

// WithColorProfile forces the color profile instead of detecting it from the
// output. termenv.Ascii disables colors entirely.
func WithColorProfile(p termenv.Profile) Option {
	return func(cfg *dashConfig) error {
		cfg.colorProfile = &p
		return nil
	}
}

// WithClock sets the time source used for staleness and log timestamps.
//
// Returns an error if fn is nil.
func WithClock(fn func() time.Time) Option {
	return func(cfg *dashConfig) error {
		if fn == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = fn
		return nil
	}
}
