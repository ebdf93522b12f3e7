package termdash

import (
	"fmt"
)

// lineConfig holds mutable state during Line construction.
type lineConfig struct {
	style      Style
	sepPattern string
	mode       AggregateMode
}

// LineOption is a function that configures a [Line] or [AggregatedLine]
// during construction.
//
// Built-in options: [WithLineStyle], [WithSeparatorPattern],
// [WithAggregateMode].
type LineOption func(*lineConfig) error

// WithLineStyle sets how the line is drawn.
//
// Returns an error for unknown styles.
func WithLineStyle(s Style) LineOption {
	return func(cfg *lineConfig) error {
		switch s {
		case StyleDefault, StyleHeader, StyleSeparator:
			cfg.style = s
			return nil
		default:
			return fmt.Errorf("%w: unknown line style %d", ErrInvalidConfig, int(s))
		}
	}
}

// WithSeparatorPattern sets the text repeated across the terminal width by a
// separator line. It implies [StyleSeparator]. An empty pattern means the
// Dashboard's configured separator style is used.
//
// Example:
//
//	sep, err := termdash.NewLine("sep", nil, termdash.WithSeparatorPattern("=-"))
func WithSeparatorPattern(pattern string) LineOption {
	return func(cfg *lineConfig) error {
		cfg.style = StyleSeparator
		cfg.sepPattern = pattern
		return nil
	}
}

// WithAggregateMode selects sum or average for an [AggregatedLine].
// Ignored by plain lines. Defaults to [AggregateSum].
func WithAggregateMode(m AggregateMode) LineOption {
	return func(cfg *lineConfig) error {
		switch m {
		case AggregateSum, AggregateAvg:
			cfg.mode = m
			return nil
		default:
			return fmt.Errorf("%w: unknown aggregate mode %d", ErrInvalidConfig, int(m))
		}
	}
}
