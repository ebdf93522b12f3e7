package termdash

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

var cursorUpPattern = regexp.MustCompile(`\x1b\[(\d+)A`)

// maxCursorUp returns the largest cursor-up distance written to out.
func maxCursorUp(t *testing.T, out string) int {
	t.Helper()
	largest := 0
	for _, m := range cursorUpPattern.FindAllStringSubmatch(out, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			t.Fatalf("bad cursor-up sequence %q", m[0])
		}
		largest = max(largest, n)
	}
	return largest
}

func addNumberedLines(t *testing.T, d *Dashboard, n int) {
	t.Helper()
	for i := range n {
		if err := d.AddLine(mustLine(t, fmt.Sprintf("l%d", i), mustStat(t, "v", i))); err != nil {
			t.Fatalf("AddLine() error = %v", err)
		}
	}
}

// TestDashboard_FrameFitsShortTerminal verifies a dashboard taller than the
// terminal is redrawn in place within the visible rows.
func TestDashboard_FrameFitsShortTerminal(t *testing.T) {
	d, out := newTestDashboard(t, WithSizeFunc(fixedSize(80, 5)))
	addNumberedLines(t, d, 10)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if err := d.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, "\n\n\n\n\x1b[4A") {
		t.Errorf("output starts %q, want 4 reserved rows then cursor up 4", got[:min(len(got), 20)])
	}
	if n := maxCursorUp(t, got); n > 4 {
		t.Errorf("largest cursor up = %d on a 5-row terminal, want at most 4", n)
	}
	frames := strings.Count(got, "\x1b[4A")
	if want := frames*4 + 4; strings.Count(got, "\n") != want {
		t.Errorf("newlines = %d, want %d for %d frames of 4 rows", strings.Count(got, "\n"), want, frames)
	}
}

// TestDashboard_FrameShrinksWithTerminal verifies the frame follows a
// terminal that gets shorter while running.
func TestDashboard_FrameShrinksWithTerminal(t *testing.T) {
	var height atomic.Int32
	height.Store(24)
	d, out := newTestDashboard(t, WithSizeFunc(func() (int, int, error) {
		return 80, int(height.Load()), nil
	}))
	addNumberedLines(t, d, 10)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	height.Store(5)
	time.Sleep(20 * time.Millisecond)
	mark := out.Len()
	time.Sleep(30 * time.Millisecond)
	if err := d.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	after := out.String()[mark:]
	if !strings.Contains(after, "\x1b[4A") {
		t.Fatalf("no redraw after shrinking: %q", tail(after, 80))
	}
	if n := maxCursorUp(t, after); n > 4 {
		t.Errorf("largest cursor up after shrinking = %d, want at most 4", n)
	}
}

// TestDashboard_ControlCharactersFlattened verifies newlines in values and
// log messages never split a row.
func TestDashboard_ControlCharactersFlattened(t *testing.T) {
	clock := newFakeClock()
	d, _ := newTestDashboard(t, WithClock(clock.Now))
	_ = d.AddLine(mustLine(t, "l", mustStat(t, "msg", "")))

	d.UpdateStat("l", "msg", "line1\nline2")
	d.Log(slog.LevelInfo, "first\nsecond\r")

	rows := d.Snapshot()
	if len(rows) != 2 {
		t.Fatalf("len(Snapshot()) = %d, want 2", len(rows))
	}
	if rows[0] != "line1 line2" {
		t.Errorf("row = %q, want %q", rows[0], "line1 line2")
	}
	if want := "12:00:00 INFO  first second"; rows[1] != want {
		t.Errorf("status row = %q, want %q", rows[1], want)
	}
	for i, row := range rows {
		if strings.ContainsAny(row, "\r\n") {
			t.Errorf("row %d contains a line break: %q", i, row)
		}
	}
}

func TestFill_FlattensPattern(t *testing.T) {
	if got := fill("=\n", 4); got != "= = " {
		t.Errorf("fill() = %q, want %q", got, "= = ")
	}
}

// TestDashboard_HeaderCellsPaintedIndividually verifies a header row keeps
// the header style across every cell instead of losing it after the first
// inner color reset.
func TestDashboard_HeaderCellsPaintedIndividually(t *testing.T) {
	d, _ := newTestDashboard(t, WithColorProfile(termenv.ANSI), WithStatusLine(false))
	header, err := NewLine("header", []*Stat{
		mustStat(t, "a", "alpha", WithColor(StaticColor("red"))),
		mustStat(t, "b", "beta"),
	}, WithLineStyle(StyleHeader))
	if err != nil {
		t.Fatalf("NewLine() error = %v", err)
	}
	_ = d.AddLine(header)

	row := d.compose(d.snapshot(), 80, d.palette)[0]
	if strings.Contains(row, "\x1b[31m") {
		t.Errorf("header row uses the stat color: %q", row)
	}
	// the first cell is padded by MinColPad before the separator
	if got := ansi.Strip(row); got != "alpha  | beta" {
		t.Errorf("stripped row = %q, want %q", got, "alpha  | beta")
	}

	cells := strings.Split(row, "|")
	if len(cells) != 2 {
		t.Fatalf("cells = %q, want 2", cells)
	}
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if !strings.HasPrefix(c, "\x1b[") || !strings.HasSuffix(c, "\x1b[0m") {
			t.Errorf("cell %q is not wrapped in the header style", c)
		}
	}
}
