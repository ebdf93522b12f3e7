package termdash

import (
	"errors"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		token   string
		want    lipgloss.Color
		wantErr bool
	}{
		{"", "", false},
		{"red", "1", false},
		{"Bright_Green", "10", false},
		{"grey", "8", false},
		{"#ff8800", "#ff8800", false},
		{"#abc", "#abc", false},
		{"208", "208", false},
		{"256", "", true},
		{"-1", "", true},
		{"#12345", "", true},
		{"chartreuse", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseColor(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.token, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("ParseColor(%q) error = %v, want ErrInvalidConfig", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestColor_Resolve(t *testing.T) {
	if !(Color{}).IsZero() {
		t.Error("zero Color IsZero() = false")
	}
	if got := StaticColor("blue").Resolve(99); got != "blue" {
		t.Errorf("StaticColor.Resolve() = %q, want blue", got)
	}

	c := ComputedColor(func(v any) string {
		if v == "down" {
			return "red"
		}
		return "green"
	})
	if c.IsZero() {
		t.Error("computed Color IsZero() = true")
	}
	if got := c.Resolve("down"); got != "red" {
		t.Errorf("Resolve(down) = %q, want red", got)
	}
	if got := c.Resolve("up"); got != "green" {
		t.Errorf("Resolve(up) = %q, want green", got)
	}
}

func TestThresholdColor(t *testing.T) {
	c := ThresholdColor(70, 90)

	tests := []struct {
		value any
		want  string
	}{
		{10.0, "green"},
		{70, "yellow"},
		{"85", "yellow"},
		{90.5, "red"},
		{"n/a", "green"},
		{nil, "green"},
	}
	for _, tt := range tests {
		if got := c.Resolve(tt.value); got != tt.want {
			t.Errorf("Resolve(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
