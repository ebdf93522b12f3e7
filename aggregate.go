package termdash

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// AggregateMode selects how an [AggregatedLine] combines source values.
type AggregateMode int

const (
	// AggregateSum adds the source values.
	AggregateSum AggregateMode = iota

	// AggregateAvg averages the source values over the sources that have the stat.
	AggregateAvg
)

// String returns the mode name.
func (m AggregateMode) String() string {
	switch m {
	case AggregateSum:
		return "sum"
	case AggregateAvg:
		return "avg"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseAggregateMode converts "sum" or "avg" into an [AggregateMode].
// An empty name is AggregateSum.
func ParseAggregateMode(name string) (AggregateMode, error) {
	switch name {
	case "", "sum":
		return AggregateSum, nil
	case "avg", "average":
		return AggregateAvg, nil
	default:
		return AggregateSum, fmt.Errorf("%w: unknown aggregate mode %q", ErrInvalidConfig, name)
	}
}

// AggregatedLine is a [Line] whose stats are computed from other lines.
//
// On every render tick each of its stats is set to the sum (or average) of
// the same-named stat across the source lines, coerced to float64. Sources
// without the stat are skipped; non-numeric values count as 0. Sources are
// never modified.
//
// Recomputation is pull-based: between ticks [Dashboard.ReadStat] on an
// aggregated line returns the value from the last tick. Updates to sources
// stay O(1) regardless of how many aggregates depend on them.
type AggregatedLine struct {
	*Line
	sources []*Line
	mode    AggregateMode
}

// NewAggregatedLine creates an [AggregatedLine] over sources.
//
// The sources must be added to the same [Dashboard] as the aggregate so that
// reads and writes share its lock. stats name the values to aggregate and
// carry their formatting; their initial values show until the first tick.
//
// Example:
//
//	total, _ := termdash.NewStat("reqs", 0.0, termdash.WithFormat("%.0f"))
//	agg, err := termdash.NewAggregatedLine("total", []*termdash.Stat{total},
//	    []termdash.Row{workerA, workerB})
func NewAggregatedLine(name string, stats []*Stat, sources []Row, opts ...LineOption) (*AggregatedLine, error) {
	l, cfg, err := newLine(name, stats, opts)
	if err != nil {
		return nil, err
	}
	if l.style == StyleSeparator {
		return nil, fmt.Errorf("%w: aggregated line %q cannot be a separator", ErrInvalidConfig, name)
	}

	a := &AggregatedLine{
		Line:    l,
		sources: make([]*Line, 0, len(sources)),
		mode:    cfg.mode,
	}
	for i, src := range sources {
		if src == nil || src.base() == nil {
			return nil, fmt.Errorf("%w: aggregated line %q: source %d is nil", ErrInvalidConfig, name, i)
		}
		if src.base() == l {
			return nil, fmt.Errorf("%w: aggregated line %q cannot be its own source", ErrInvalidConfig, name)
		}
		a.sources = append(a.sources, src.base())
	}
	return a, nil
}

// Mode returns the aggregation mode.
func (a *AggregatedLine) Mode() AggregateMode {
	return a.mode
}

// Sources returns the source line names.
func (a *AggregatedLine) Sources() []string {
	names := make([]string, len(a.sources))
	for i, src := range a.sources {
		names[i] = src.name
	}
	return names
}

func (a *AggregatedLine) base() *Line {
	if a == nil {
		return nil
	}
	return a.Line
}

// recompute refreshes every stat from the sources. Callers hold the
// dashboard lock.
func (a *AggregatedLine) recompute(now time.Time) {
	for _, s := range a.stats {
		values := make([]any, 0, len(a.sources))
		for _, src := range a.sources {
			if v, ok := src.Stat(s.name); ok {
				values = append(values, v.value)
			}
		}
		if a.mode == AggregateAvg {
			s.update(average(values), now)
		} else {
			s.update(sum(values), now)
		}
	}
}

func sum(values []any) float64 {
	var total float64
	for _, v := range values {
		total += toFloat(v)
	}
	return total
}

// average returns 0 for no values.
func average(values []any) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// toFloat coerces v to float64. Anything that does not convert is 0,
// including strings that do not parse as numbers.
func toFloat(v any) float64 {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return f
}
