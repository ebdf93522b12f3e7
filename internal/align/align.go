package align

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Ellipsis is appended to cells clipped by a maximum width.
const Ellipsis = "…"

// Cell is one column of a rendered row.
type Cell struct {
	// Text is the rendered cell content. It may contain ANSI sequences.
	Text string

	// NoExpand excludes the cell from column width voting.
	NoExpand bool

	// Width is the soft display width used when NoExpand is set.
	// Zero means the cell keeps its natural width.
	Width int
}

// Options controls how [Align] pads rows.
type Options struct {
	// Enabled turns alignment on. When false rows are joined unchanged.
	Enabled bool

	// Sep is the column separator token placed between cells.
	Sep string

	// MinColPad is the number of spaces added after the widest cell of a column.
	MinColPad int

	// MaxColWidth clamps column widths. Zero means unlimited.
	MaxColWidth int
}

// Split cuts a plain string into cells on sep.
// An empty separator yields a single cell.
func Split(text, sep string) []Cell {
	if sep == "" {
		return []Cell{{Text: text}}
	}
	parts := strings.Split(text, sep)
	cells := make([]Cell, len(parts))
	for i, p := range parts {
		cells[i] = Cell{Text: p}
	}
	return cells
}

// Join concatenates cell texts with sep without any padding.
func Join(cells []Cell, sep string) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.Text
	}
	return strings.Join(parts, sep)
}

// Widths returns the width of every column index across rows.
//
// Rows with at most one cell do not vote. NoExpand cells do not vote.
// Each width is clamped to maxColWidth when it is positive.
func Widths(rows [][]Cell, maxColWidth int) []int {
	var widths []int
	for _, row := range rows {
		if len(row) <= 1 {
			continue
		}
		for i, c := range row {
			if c.NoExpand {
				continue
			}
			for len(widths) <= i {
				widths = append(widths, 0)
			}
			w := ansi.StringWidth(c.Text)
			if maxColWidth > 0 && w > maxColWidth {
				w = maxColWidth
			}
			if w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// Align pads every row so that separators line up vertically.
//
// Rows with fewer columns than others render only their own cells; no empty
// columns are fabricated. A row with a single cell is passed through as is.
// The last cell of a row is never padded, so rows carry no trailing spaces.
func Align(rows [][]Cell, opts Options) []string {
	out := make([]string, len(rows))
	if !opts.Enabled {
		for i, row := range rows {
			out[i] = Join(row, opts.Sep)
		}
		return out
	}

	widths := Widths(rows, opts.MaxColWidth)
	for i, row := range rows {
		if len(row) <= 1 {
			out[i] = Join(row, opts.Sep)
			continue
		}
		parts := make([]string, len(row))
		for j, c := range row {
			w := 0
			if j < len(widths) {
				w = widths[j]
			}
			parts[j] = fit(c, w, opts, j == len(row)-1)
		}
		out[i] = strings.Join(parts, opts.Sep)
	}
	return out
}

func fit(c Cell, width int, opts Options, last bool) string {
	text := c.Text
	if c.NoExpand {
		if c.Width > 0 {
			text = Clip(text, c.Width)
			if !last {
				text = Pad(text, c.Width)
			}
		}
		if last {
			return text
		}
		return text + strings.Repeat(" ", opts.MinColPad)
	}
	if opts.MaxColWidth > 0 {
		text = Clip(text, opts.MaxColWidth)
	}
	if last {
		return text
	}
	return Pad(text, width+opts.MinColPad)
}

// Clip shortens s to at most width visible cells, ending in [Ellipsis].
// Non-positive widths return s unchanged.
func Clip(s string, width int) string {
	if width <= 0 || ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, Ellipsis)
}

// Pad right-pads s with spaces to width visible cells.
func Pad(s string, width int) string {
	gap := width - ansi.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
