package termdash

import (
	"fmt"
	"strings"
	"time"
)

// Style selects how a line is drawn.
type Style int

const (
	// StyleDefault renders the stats as aligned columns.
	StyleDefault Style = iota

	// StyleHeader renders like StyleDefault, painted with the header style.
	StyleHeader

	// StyleSeparator ignores stats and repeats a pattern across the width.
	StyleSeparator
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case StyleDefault:
		return "default"
	case StyleHeader:
		return "header"
	case StyleSeparator:
		return "separator"
	default:
		return fmt.Sprintf("style(%d)", int(s))
	}
}

// ParseStyle converts a style name into a [Style].
// An empty name is StyleDefault.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return StyleDefault, nil
	case "header":
		return StyleHeader, nil
	case "separator":
		return StyleSeparator, nil
	default:
		return StyleDefault, fmt.Errorf("%w: unknown line style %q", ErrInvalidConfig, name)
	}
}

// Row is a line that can be added to a [Dashboard]: a [*Line] or an
// [*AggregatedLine].
type Row interface {
	// Name returns the row name, unique within a Dashboard.
	Name() string

	base() *Line
}

// Line is an ordered row of [Stat] values rendered as one terminal row.
//
// Stats render in the order given to [NewLine]. Line is not safe for
// concurrent use on its own; after [Dashboard.AddLine] all access must go
// through the Dashboard.
type Line struct {
	name       string
	stats      []*Stat
	index      map[string]int
	style      Style
	sepPattern string
	now        func() time.Time
}

// NewLine creates a [Line] holding stats.
//
// Returns an error if the name is empty, a stat is nil, two stats share a
// name (wrapping [ErrDuplicateName]) or any option is invalid.
//
// Example:
//
//	cpu, _ := termdash.NewStat("cpu", 0.0, termdash.WithFormat("%.1f%%"))
//	mem, _ := termdash.NewStat("mem", 0.0, termdash.WithUnit(" MiB"))
//	sys, err := termdash.NewLine("sys", []*termdash.Stat{cpu, mem})
func NewLine(name string, stats []*Stat, opts ...LineOption) (*Line, error) {
	l, _, err := newLine(name, stats, opts)
	return l, err
}

func newLine(name string, stats []*Stat, opts []LineOption) (*Line, *lineConfig, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil, fmt.Errorf("%w: line name cannot be empty", ErrInvalidConfig)
	}

	cfg := &lineConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, nil, fmt.Errorf("line %q: %w", name, err)
		}
	}

	l := &Line{
		name:       name,
		stats:      make([]*Stat, 0, len(stats)),
		index:      make(map[string]int, len(stats)),
		style:      cfg.style,
		sepPattern: cfg.sepPattern,
		now:        time.Now,
	}
	for i, s := range stats {
		if s == nil {
			return nil, nil, fmt.Errorf("%w: line %q: stat %d is nil", ErrInvalidConfig, name, i)
		}
		if _, ok := l.index[s.name]; ok {
			return nil, nil, fmt.Errorf("%w: line %q: stat %q", ErrDuplicateName, name, s.name)
		}
		l.index[s.name] = len(l.stats)
		l.stats = append(l.stats, s)
	}
	return l, cfg, nil
}

// Name returns the line name.
func (l *Line) Name() string {
	return l.name
}

// Style returns the line style.
func (l *Line) Style() Style {
	return l.style
}

// Stats returns the stat names in render order.
func (l *Line) Stats() []string {
	names := make([]string, len(l.stats))
	for i, s := range l.stats {
		names[i] = s.name
	}
	return names
}

// Stat returns the named stat.
func (l *Line) Stat(name string) (*Stat, bool) {
	i, ok := l.index[name]
	if !ok {
		return nil, false
	}
	return l.stats[i], true
}

// UpdateStat sets the named stat's value.
//
// Returns an error wrapping [ErrNotFound] if the line has no such stat.
func (l *Line) UpdateStat(name string, value any) error {
	s, err := l.lookup(name)
	if err != nil {
		return err
	}
	s.update(value, l.now())
	return nil
}

// ResetStat restores the named stat's initial value and suppresses its
// staleness warning for grace.
//
// Returns an error wrapping [ErrNotFound] if the line has no such stat.
func (l *Line) ResetStat(name string, grace time.Duration) error {
	s, err := l.lookup(name)
	if err != nil {
		return err
	}
	s.reset(grace, l.now())
	return nil
}

// ReadStat returns the named stat's current value.
//
// Returns an error wrapping [ErrNotFound] if the line has no such stat.
func (l *Line) ReadStat(name string) (any, error) {
	s, err := l.lookup(name)
	if err != nil {
		return nil, err
	}
	return s.value, nil
}

func (l *Line) lookup(name string) (*Stat, error) {
	s, ok := l.Stat(name)
	if !ok {
		return nil, fmt.Errorf("line %q: stat %q: %w", l.name, name, ErrNotFound)
	}
	return s, nil
}

func (l *Line) base() *Line {
	return l
}

// adopt binds the line to a dashboard clock. Stats start their staleness
// timer when they join the dashboard rather than when they were built.
func (l *Line) adopt(now func() time.Time) {
	l.now = now
	t := now()
	for _, s := range l.stats {
		s.lastUpdated = t
	}
}

// view copies the line for rendering. defaultPattern fills in separators
// without a pattern of their own.
func (l *Line) view(now time.Time, defaultPattern string) rowView {
	v := rowView{name: l.name, style: l.style}
	if l.style == StyleSeparator {
		v.sepPattern = l.sepPattern
		if v.sepPattern == "" {
			v.sepPattern = defaultPattern
		}
		return v
	}
	v.stats = make([]statView, len(l.stats))
	for i, s := range l.stats {
		v.stats[i] = s.view(now)
	}
	return v
}

// rowView is an immutable copy of a line taken under the dashboard lock.
type rowView struct {
	name       string
	style      Style
	sepPattern string
	stats      []statView
}
