package termdash

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func mustStat(t *testing.T, name string, initial any, opts ...StatOption) *Stat {
	t.Helper()
	s, err := NewStat(name, initial, opts...)
	if err != nil {
		t.Fatalf("NewStat(%q) error = %v", name, err)
	}
	return s
}

func mustLine(t *testing.T, name string, stats ...*Stat) *Line {
	t.Helper()
	l, err := NewLine(name, stats)
	if err != nil {
		t.Fatalf("NewLine(%q) error = %v", name, err)
	}
	return l
}

func TestNewLine_Valid(t *testing.T) {
	l := mustLine(t, "sys", mustStat(t, "cpu", 0.0), mustStat(t, "mem", 0))

	if l.Name() != "sys" {
		t.Errorf("Name() = %q, want sys", l.Name())
	}
	if l.Style() != StyleDefault {
		t.Errorf("Style() = %v, want default", l.Style())
	}
	if got := l.Stats(); !reflect.DeepEqual(got, []string{"cpu", "mem"}) {
		t.Errorf("Stats() = %v, want [cpu mem]", got)
	}
}

func TestNewLine_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		lineName string
		stats    []*Stat
		opts     []LineOption
		wantErr  error
	}{
		{"empty name", "", nil, nil, ErrInvalidConfig},
		{"duplicate stat", "sys", []*Stat{mustStat(t, "cpu", 0), mustStat(t, "cpu", 1)}, nil, ErrDuplicateName},
		{"nil stat", "sys", []*Stat{nil}, nil, ErrInvalidConfig},
		{"unknown style", "sys", nil, []LineOption{WithLineStyle(Style(9))}, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLine(tt.lineName, tt.stats, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewLine() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLine_UpdateResetRead(t *testing.T) {
	l := mustLine(t, "sys", mustStat(t, "cpu", 1.5))

	if err := l.UpdateStat("cpu", 55.2); err != nil {
		t.Fatalf("UpdateStat() error = %v", err)
	}
	v, err := l.ReadStat("cpu")
	if err != nil || v != 55.2 {
		t.Errorf("ReadStat() = %v, %v; want 55.2, nil", v, err)
	}

	if err := l.ResetStat("cpu", time.Second); err != nil {
		t.Fatalf("ResetStat() error = %v", err)
	}
	if v, _ := l.ReadStat("cpu"); v != 1.5 {
		t.Errorf("ReadStat() after reset = %v, want 1.5", v)
	}
}

func TestLine_MissingStat(t *testing.T) {
	l := mustLine(t, "sys", mustStat(t, "cpu", 0))

	if err := l.UpdateStat("disk", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStat() error = %v, want ErrNotFound", err)
	}
	if err := l.ResetStat("disk", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResetStat() error = %v, want ErrNotFound", err)
	}
	if _, err := l.ReadStat("disk"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadStat() error = %v, want ErrNotFound", err)
	}
}

func TestWithSeparatorPattern_ImpliesSeparatorStyle(t *testing.T) {
	l, err := NewLine("sep", nil, WithSeparatorPattern("=-"))
	if err != nil {
		t.Fatalf("NewLine() error = %v", err)
	}
	if l.Style() != StyleSeparator {
		t.Errorf("Style() = %v, want separator", l.Style())
	}
	v := l.view(time.Now(), "─")
	if v.sepPattern != "=-" {
		t.Errorf("sepPattern = %q, want %q", v.sepPattern, "=-")
	}

	plain, _ := NewLine("sep2", nil, WithLineStyle(StyleSeparator))
	if v := plain.view(time.Now(), "·"); v.sepPattern != "·" {
		t.Errorf("default sepPattern = %q, want %q", v.sepPattern, "·")
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{"", StyleDefault, false},
		{"default", StyleDefault, false},
		{"Header", StyleHeader, false},
		{"separator", StyleSeparator, false},
		{"banner", StyleDefault, true},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseStyle(%q) = %v, %v; want %v, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
	if StyleHeader.String() != "header" || Style(7).String() != "style(7)" {
		t.Error("Style.String() mismatch")
	}
}
