package termdash

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jpalmerr/termdash/internal/align"
)

// Stat is a single named metric value.
//
// A Stat is created with [NewStat] and handed to a [Line]. Its name never
// changes. Once the Line is added to a [Dashboard], the value must only be
// changed through the Dashboard so that updates are serialised with rendering.
type Stat struct {
	name         string
	initial      any
	value        any
	prefix       string
	format       string
	unit         string
	color        Color
	warnIfStale  time.Duration
	noExpand     bool
	displayWidth int

	lastUpdated time.Time
	graceUntil  time.Time
}

// NewStat creates a [Stat] with the given name, initial value and options.
//
// Returns an error if the name is empty or any option is invalid.
//
// Example:
//
//	cpu, err := termdash.NewStat("cpu", 0.0,
//	    termdash.WithPrefix("cpu "),
//	    termdash.WithFormat("%.1f%%"),
//	    termdash.WithColor(termdash.ThresholdColor(70, 90)),
//	    termdash.WithStaleWarning(5*time.Second),
//	)
func NewStat(name string, initial any, opts ...StatOption) (*Stat, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: stat name cannot be empty", ErrInvalidConfig)
	}

	cfg := &statConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("stat %q: %w", name, err)
		}
	}

	return &Stat{
		name:         name,
		initial:      initial,
		value:        initial,
		prefix:       cfg.prefix,
		format:       cfg.format,
		unit:         cfg.unit,
		color:        cfg.color,
		warnIfStale:  cfg.warnIfStale,
		noExpand:     cfg.noExpand,
		displayWidth: cfg.displayWidth,
		lastUpdated:  time.Now(),
	}, nil
}

// Name returns the stat name.
func (s *Stat) Name() string {
	return s.name
}

// Value returns the current value.
func (s *Stat) Value() any {
	return s.value
}

// LastUpdated returns when the value was last set or reset.
func (s *Stat) LastUpdated() time.Time {
	return s.lastUpdated
}

// Text returns the uncolored rendered text: prefix, formatted value, unit.
func (s *Stat) Text() string {
	return s.prefix + formatValue(s.format, s.value) + s.unit
}

// IsStale reports whether the stat should be flagged at time now.
//
// A stat is stale when a threshold is configured, no reset grace period is
// active, and the last update is older than the threshold.
func (s *Stat) IsStale(now time.Time) bool {
	if s.warnIfStale <= 0 {
		return false
	}
	if now.Before(s.graceUntil) {
		return false
	}
	return now.Sub(s.lastUpdated) > s.warnIfStale
}

func (s *Stat) update(value any, now time.Time) {
	s.value = value
	s.lastUpdated = now
}

// reset restores the initial value and suppresses staleness for grace.
func (s *Stat) reset(grace time.Duration, now time.Time) {
	s.value = s.initial
	s.lastUpdated = now
	s.graceUntil = now.Add(grace)
}

// view copies everything rendering needs so it can happen outside the lock.
func (s *Stat) view(now time.Time) statView {
	return statView{
		prefix:       s.prefix,
		format:       s.format,
		unit:         s.unit,
		value:        s.value,
		color:        s.color,
		stale:        s.IsStale(now),
		noExpand:     s.noExpand,
		displayWidth: s.displayWidth,
	}
}

// statView is an immutable copy of a Stat taken under the dashboard lock.
type statView struct {
	prefix       string
	format       string
	unit         string
	value        any
	color        Color
	stale        bool
	noExpand     bool
	displayWidth int
}

// cell formats the view and paints it. Header cells take the header style
// instead of their own color. Computed colors run caller code and may panic;
// callers recover per line.
func (v statView) cell(p *palette, header bool) align.Cell {
	text := flatten(v.prefix + formatValue(v.format, v.value) + v.unit)
	switch {
	case v.stale:
		text = p.warn.Render(text)
	case header:
		text = p.header.Render(text)
	case !v.color.IsZero():
		text = p.paint(v.color.Resolve(v.value), text)
	}
	return align.Cell{Text: text, NoExpand: v.noExpand, Width: v.displayWidth}
}

// fmtErrorPattern matches the inline markers fmt writes for a bad verb,
// a missing or extra argument, or a panicking String method, such as
// "%!d(string=x)", "%!s(MISSING)" and "%!(EXTRA int=1)".
var fmtErrorPattern = regexp.MustCompile(`%![A-Za-z]?\(`)

// formatValue renders value with format, falling back to fmt.Sprint when the
// format does not fit the value. fmt reports such problems inline rather than
// failing.
func formatValue(format string, value any) string {
	if format == "" {
		return fmt.Sprint(value)
	}
	out := fmt.Sprintf(format, value)
	if fmtErrorPattern.MatchString(out) && !fmtErrorPattern.MatchString(fmt.Sprint(value)) {
		return fmt.Sprint(value)
	}
	return out
}
