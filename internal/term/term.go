// Package term is the terminal boundary of the dashboard.
//
// It writes ANSI cursor-control sequences to an output stream and queries the
// hosting terminal for its size. Only the render loop should hold a Terminal.
package term

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-isatty"
	xterm "golang.org/x/term"
)

// Fallback dimensions used when the size cannot be detected.
const (
	FallbackWidth  = 80
	FallbackHeight = 24
)

// Control sequences (CSI).
const (
	EraseLine  = "\x1b[2K"
	HideCursor = "\x1b[?25l"
	ShowCursor = "\x1b[?25h"
)

// SizeFunc reports the terminal width and height in cells.
type SizeFunc func() (width, height int, err error)

// fder is implemented by *os.File.
type fder interface {
	Fd() uintptr
}

// Terminal wraps an output stream with cursor control and size detection.
type Terminal struct {
	w           io.Writer
	size        SizeFunc
	interactive bool
}

// New creates a Terminal writing to w.
//
// When w is backed by a file descriptor the stream is checked for a TTY and,
// unless size is provided, the terminal size is read from that descriptor.
func New(w io.Writer, size SizeFunc) *Terminal {
	t := &Terminal{w: w, size: size}
	if f, ok := w.(fder); ok {
		fd := f.Fd()
		t.interactive = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		if t.size == nil {
			t.size = func() (int, int, error) {
				return xterm.GetSize(int(fd))
			}
		}
	}
	return t
}

// Interactive reports whether the stream is a TTY.
func (t *Terminal) Interactive() bool {
	return t.interactive
}

// Size returns the terminal width and height, falling back to 80x24.
func (t *Terminal) Size() (width, height int) {
	width, height = FallbackWidth, FallbackHeight
	if t.size == nil {
		return width, height
	}
	w, h, err := t.size()
	if err != nil {
		return width, height
	}
	if w > 0 {
		width = w
	}
	if h > 0 {
		height = h
	}
	return width, height
}

// CursorUp returns the sequence moving the cursor up n rows.
func CursorUp(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("\x1b[%dA", n)
}

// Reserve prints n blank lines so the frame has scroll space to draw into.
func (t *Terminal) Reserve(n int) error {
	if n <= 0 {
		return nil
	}
	_, err := io.WriteString(t.w, strings.Repeat("\n", n))
	return err
}

// Redraw moves the cursor up over the previous frame of prev rows and
// rewrites it with rows in a single write.
//
// Rows never shrink the frame: when rows is shorter than prev the leftover
// rows are erased and still counted. prev must not exceed the visible rows
// of the terminal, or the cursor stops at its top and the frame scrolls.
// The returned height is what the next call should pass as prev.
func (t *Terminal) Redraw(prev int, rows []string) (int, error) {
	var b strings.Builder
	b.WriteString(CursorUp(prev))
	for _, row := range rows {
		b.WriteString("\r")
		b.WriteString(EraseLine)
		b.WriteString(row)
		b.WriteString("\n")
	}
	height := len(rows)
	for ; height < prev; height++ {
		b.WriteString("\r")
		b.WriteString(EraseLine)
		b.WriteString("\n")
	}
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		return prev, err
	}
	return height, nil
}

// HideCursor hides the cursor on interactive terminals.
func (t *Terminal) HideCursor() error {
	if !t.interactive {
		return nil
	}
	_, err := io.WriteString(t.w, HideCursor)
	return err
}

// ShowCursor restores cursor visibility on interactive terminals.
func (t *Terminal) ShowCursor() error {
	if !t.interactive {
		return nil
	}
	_, err := io.WriteString(t.w, ShowCursor)
	return err
}
