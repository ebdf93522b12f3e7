package termdash

import (
	"errors"
	"time"
)

// statConfig holds mutable state during Stat construction.
type statConfig struct {
	prefix       string
	format       string
	unit         string
	color        Color
	warnIfStale  time.Duration
	noExpand     bool
	displayWidth int
}

// StatOption is a function that configures a [Stat] during construction.
//
// Built-in options: [WithPrefix], [WithFormat], [WithUnit], [WithColor],
// [WithStaleWarning], [WithNoExpand].
type StatOption func(*statConfig) error

// WithPrefix sets text rendered before the value, typically a label.
//
// Example:
//
//	cpu, err := termdash.NewStat("cpu", 0.0, termdash.WithPrefix("CPU "))
func WithPrefix(prefix string) StatOption {
	return func(cfg *statConfig) error {
		cfg.prefix = prefix
		return nil
	}
}

// WithFormat sets the fmt verb string used to render the value.
//
// The value is the single argument, so "%.1f%%" renders 55.2 as "55.2%".
// If formatting fails (wrong verb for the value's type, missing or extra
// arguments) the value is rendered with fmt.Sprint instead. An empty format
// also uses fmt.Sprint.
func WithFormat(format string) StatOption {
	return func(cfg *statConfig) error {
		cfg.format = format
		return nil
	}
}

// WithUnit sets text rendered after the value.
func WithUnit(unit string) StatOption {
	return func(cfg *statConfig) error {
		cfg.unit = unit
		return nil
	}
}

// WithColor sets how the stat is painted.
//
// Returns an error if c is a [StaticColor] with an unknown token. Computed
// colors are resolved at render time; unknown tokens there are ignored.
func WithColor(c Color) StatOption {
	return func(cfg *statConfig) error {
		if c.compute == nil {
			if _, err := ParseColor(c.token); err != nil {
				return err
			}
		}
		cfg.color = c
		return nil
	}
}

// WithStaleWarning paints the stat in the warning color when it has not been
// updated for longer than d. Zero disables the check.
//
// Returns an error if d is negative.
func WithStaleWarning(d time.Duration) StatOption {
	return func(cfg *statConfig) error {
		if d < 0 {
			return errors.New("stale warning threshold cannot be negative")
		}
		cfg.warnIfStale = d
		return nil
	}
}

// WithNoExpand excludes the stat from column width computation.
//
// The stat renders at displayWidth cells (padded or clipped) when it is
// positive, otherwise at its natural width. Useful for progress bars and
// other wide cells that should not push every other row's columns out.
//
// Returns an error if displayWidth is negative.
func WithNoExpand(displayWidth int) StatOption {
	return func(cfg *statConfig) error {
		if displayWidth < 0 {
			return errors.New("display width cannot be negative")
		}
		cfg.noExpand = true
		cfg.displayWidth = displayWidth
		return nil
	}
}
