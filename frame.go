package termdash

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"github.com/jpalmerr/termdash/internal/align"
	"github.com/jpalmerr/termdash/internal/logbuf"
)

// palette holds the styles of one output stream.
type palette struct {
	r      *lipgloss.Renderer
	header lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
	muted  lipgloss.Style
}

func newPalette(w io.Writer, profile *termenv.Profile) *palette {
	r := lipgloss.NewRenderer(w)
	if profile != nil {
		r.SetColorProfile(*profile)
	}
	return &palette{
		r:      r,
		header: r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		warn:   r.NewStyle().Foreground(lipgloss.Color("3")),
		err:    r.NewStyle().Foreground(lipgloss.Color("1")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func newPlainPalette() *palette {
	p := termenv.Ascii
	return newPalette(io.Discard, &p)
}

// paint renders text in the color named by token. Unknown tokens leave the
// text as is.
func (p *palette) paint(token, text string) string {
	c, err := ParseColor(token)
	if err != nil || c == "" {
		return text
	}
	return p.r.NewStyle().Foreground(c).Render(text)
}

func (p *palette) entry(e logbuf.Entry) string {
	switch {
	case e.Level >= slog.LevelError:
		return p.err.Render(e.String())
	case e.Level >= slog.LevelWarn:
		return p.warn.Render(e.String())
	case e.Level < slog.LevelInfo:
		return p.muted.Render(e.String())
	default:
		return e.String()
	}
}

// setup runs when the render loop starts: it hides the cursor and prints
// blank rows for the frame to draw into.
func (d *Dashboard) setup() error {
	unlock := d.lock("setup")
	reserved := len(d.top) + len(d.bottom)
	unlock()

	reserved += d.logRowCount()
	_, height := d.term.Size()
	reserved = min(reserved, frameLimit(height))
	if err := d.term.HideCursor(); err != nil {
		return err
	}
	if err := d.term.Reserve(reserved); err != nil {
		return err
	}
	d.frameHeight = reserved
	d.lastWidth = 0
	d.logger.Debug("dashboard started",
		"refresh_rate", d.refreshRate.String(),
		"reserved_rows", reserved,
		"interactive", d.term.Interactive(),
	)
	return nil
}

// teardown restores the cursor. The last frame is left on screen.
func (d *Dashboard) teardown() error {
	return d.term.ShowCursor()
}

// frame draws one render tick.
func (d *Dashboard) frame(final bool) error {
	start := time.Now()
	width, height := d.term.Size()
	if width != d.lastWidth {
		if d.lastWidth != 0 && d.debugRendering {
			d.trace.Debug("terminal resized", "from", d.lastWidth, "to", width)
		}
		d.lastWidth = width
	}

	limit := frameLimit(height)
	rows := d.compose(d.snapshot(), width, d.palette)
	if len(rows) > limit {
		rows = rows[:limit]
	}

	// after the terminal shrinks, rows above its top are left in scrollback
	n, err := d.term.Redraw(min(d.frameHeight, limit), rows)
	d.frameHeight = n

	if d.debugRendering {
		d.trace.Debug("render tick",
			"final", final,
			"width", width,
			"height", height,
			"rows", len(rows),
			"frame_height", n,
			"duration", time.Since(start).String(),
		)
	}
	return err
}

// Snapshot returns the rows the next frame would draw, without colors: the
// dashboard rows followed by the log region. Aggregated lines are recomputed
// as they would be on a render tick.
func (d *Dashboard) Snapshot() []string {
	width, _ := d.term.Size()
	return d.compose(d.snapshot(), width, d.plain)
}

// snapshot copies every row under the lock, recomputing aggregates first.
func (d *Dashboard) snapshot() []rowView {
	unlock := d.lock("snapshot")
	defer unlock()

	now := d.clock()
	rows := d.rowsLocked()
	views := make([]rowView, len(rows))
	for i, r := range rows {
		if agg, ok := r.(*AggregatedLine); ok {
			agg.recompute(now)
		}
		views[i] = r.base().view(now, d.sepPattern)
	}
	return views
}

// compose formats, aligns and clips rows, then appends the log region.
func (d *Dashboard) compose(views []rowView, width int, p *palette) []string {
	cells := make([][]align.Cell, 0, len(views))
	pos := make([]int, len(views))
	for i, v := range views {
		if v.style == StyleSeparator {
			pos[i] = -1
			continue
		}
		pos[i] = len(cells)
		cells = append(cells, d.cells(v, p))
	}
	aligned := align.Align(cells, d.alignOpts)

	out := make([]string, 0, len(views)+d.logRowCount())
	for i, v := range views {
		row := fill(v.sepPattern, width)
		if pos[i] >= 0 {
			row = aligned[pos[i]]
		}
		out = append(out, align.Clip(row, width))
	}
	return append(out, d.logRows(width, p)...)
}

// cells formats one row. A panic from a stat (a computed color, say) turns
// the row into a placeholder instead of failing the frame.
func (d *Dashboard) cells(v rowView, p *palette) (cells []align.Cell) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			d.logger.Error("line render panic",
				"line", v.name,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			cells = []align.Cell{{Text: fmt.Sprintf("[%s: render error]", v.name)}}
		}
	}()

	header := v.style == StyleHeader
	cells = make([]align.Cell, len(v.stats))
	for i, s := range v.stats {
		cells[i] = s.cell(p, header)
	}
	return cells
}

// frameLimit is the most rows a frame may span on a terminal of the given
// height. One line stays free so writing the last row never scrolls the
// frame's top off screen.
func frameLimit(height int) int {
	return max(height-1, 1)
}

func (d *Dashboard) logRowCount() int {
	n := d.reserveExtraRows
	if d.statusLine {
		n++
	}
	return n
}

// logRows renders the most recent entries bottom-aligned, so the status row
// (the last one) always holds the latest entry.
func (d *Dashboard) logRows(width int, p *palette) []string {
	n := d.logRowCount()
	if n == 0 {
		return nil
	}
	rows := make([]string, n)
	entries := d.logs.Recent(n)
	offset := n - len(entries)
	for i, e := range entries {
		e.Message = flatten(e.Message)
		rows[offset+i] = align.Clip(p.entry(e), width)
	}
	return rows
}

// fill repeats pattern to exactly width cells.
func fill(pattern string, width int) string {
	pattern = flatten(pattern)
	pw := ansi.StringWidth(pattern)
	if pw == 0 || width <= 0 {
		return ""
	}
	return ansi.Truncate(strings.Repeat(pattern, width/pw+1), width, "")
}

// flatten replaces control characters other than ESC with spaces, so text
// never adds physical lines to the frame. ESC is kept for SGR colors.
func flatten(s string) string {
	if !strings.ContainsFunc(s, isLineBreaking) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isLineBreaking(r) {
			return ' '
		}
		return r
	}, s)
}

func isLineBreaking(r rune) bool {
	return r != '\x1b' && unicode.IsControl(r)
}
