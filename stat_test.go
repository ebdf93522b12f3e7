package termdash

import (
	"errors"
	"testing"
	"time"
)

func TestNewStat_Valid(t *testing.T) {
	s, err := NewStat("cpu", 0.0,
		WithPrefix("cpu "),
		WithFormat("%.1f%%"),
		WithColor(StaticColor("green")),
		WithStaleWarning(5*time.Second),
	)
	if err != nil {
		t.Fatalf("NewStat() error = %v", err)
	}
	if s.Name() != "cpu" {
		t.Errorf("Name() = %q, want %q", s.Name(), "cpu")
	}
	if s.Value() != 0.0 {
		t.Errorf("Value() = %v, want 0.0", s.Value())
	}
	if got := s.Text(); got != "cpu 0.0%" {
		t.Errorf("Text() = %q, want %q", got, "cpu 0.0%")
	}
}

func TestNewStat_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		statName string
		opts     []StatOption
		wantErr  error
	}{
		{"empty name", "", nil, ErrInvalidConfig},
		{"blank name", "   ", nil, ErrInvalidConfig},
		{"unknown color", "x", []StatOption{WithColor(StaticColor("chartreuse"))}, ErrInvalidConfig},
		{"negative stale threshold", "x", []StatOption{WithStaleWarning(-time.Second)}, nil},
		{"negative display width", "x", []StatOption{WithNoExpand(-1)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStat(tt.statName, 0, tt.opts...)
			if err == nil {
				t.Fatal("NewStat() expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("NewStat() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithColor_ComputedNotValidated(t *testing.T) {
	_, err := NewStat("x", 0, WithColor(ComputedColor(func(any) string { return "not-a-color" })))
	if err != nil {
		t.Errorf("NewStat() error = %v, want nil for computed color", err)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name   string
		format string
		value  any
		want   string
	}{
		{"percent", "%.1f%%", 55.2, "55.2%"},
		{"integer", "%d items", 4, "4 items"},
		{"empty format", "", 3, "3"},
		{"string value", "%s", "ok", "ok"},
		{"wrong verb falls back", "%d", "abc", "abc"},
		{"int with float verb falls back", "%.1f", 2, "2"},
		{"missing argument falls back", "%s/%s", "x", "x"},
		{"nil value", "", nil, "<nil>"},
		{"extra argument falls back", "done", 5, "5"},
		{"percent bang in value kept", "%s", "100%!(approx)", "100%!(approx)"},
		{"literal percent bang kept", "%d%%!", 7, "7%!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.format, tt.value); got != tt.want {
				t.Errorf("formatValue(%q, %v) = %q, want %q", tt.format, tt.value, got, tt.want)
			}
		})
	}
}

// panicStringer panics when formatted.
type panicStringer struct{}

func (panicStringer) String() string { panic("boom") }

// TestFormatValue_PanickingStringer verifies a value whose String method
// panics does not escape formatting.
func TestFormatValue_PanickingStringer(t *testing.T) {
	got := formatValue("%v", panicStringer{})
	if got == "" {
		t.Error("formatValue() returned empty string")
	}
}

func TestStat_IsStale(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		threshold time.Duration
		elapsed   time.Duration
		want      bool
	}{
		{"disabled", 0, time.Hour, false},
		{"fresh", time.Second, 500 * time.Millisecond, false},
		{"exactly at threshold", time.Second, time.Second, false},
		{"past threshold", time.Second, 1500 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStat("x", 0, WithStaleWarning(tt.threshold))
			if err != nil {
				t.Fatalf("NewStat() error = %v", err)
			}
			s.update(1, t0)
			if got := s.IsStale(t0.Add(tt.elapsed)); got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestStat_ResetGraceSuppressesStaleness verifies a reset grace period longer
// than the stale threshold keeps the stat unflagged until it elapses.
func TestStat_ResetGraceSuppressesStaleness(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s, _ := NewStat("x", 7, WithStaleWarning(time.Second))

	s.update(42, t0.Add(-time.Hour))
	s.reset(5*time.Second, t0)

	if s.Value() != 7 {
		t.Errorf("Value() after reset = %v, want initial 7", s.Value())
	}
	for _, elapsed := range []time.Duration{0, time.Second, 3 * time.Second, 4999 * time.Millisecond} {
		if s.IsStale(t0.Add(elapsed)) {
			t.Errorf("IsStale(+%v) = true during grace period", elapsed)
		}
	}
	if !s.IsStale(t0.Add(6 * time.Second)) {
		t.Error("IsStale(+6s) = false after grace period")
	}
}

func TestStat_UpdateClearsStaleness(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s, _ := NewStat("x", 0, WithStaleWarning(time.Second))

	s.update(1, t0)
	if !s.IsStale(t0.Add(2 * time.Second)) {
		t.Fatal("expected stale before update")
	}
	s.update(2, t0.Add(2*time.Second))
	if s.IsStale(t0.Add(2 * time.Second)) {
		t.Error("expected fresh after update")
	}
	if s.LastUpdated() != t0.Add(2*time.Second) {
		t.Errorf("LastUpdated() = %v", s.LastUpdated())
	}
}

func TestStatView_Cell(t *testing.T) {
	s, _ := NewStat("bar", "####", WithPrefix("["), WithUnit("]"), WithNoExpand(10))
	c := s.view(time.Now()).cell(newPlainPalette(), false)

	if c.Text != "[####]" {
		t.Errorf("Text = %q, want %q", c.Text, "[####]")
	}
	if !c.NoExpand || c.Width != 10 {
		t.Errorf("NoExpand, Width = %v, %d; want true, 10", c.NoExpand, c.Width)
	}
}

func TestStatView_CellFlattensControlCharacters(t *testing.T) {
	s, _ := NewStat("msg", "line1\nline2\r\tend")
	c := s.view(time.Now()).cell(newPlainPalette(), false)

	if c.Text != "line1 line2  end" {
		t.Errorf("Text = %q, want %q", c.Text, "line1 line2  end")
	}
}
