package termdash

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color decides how a [Stat] is painted.
//
// Color is a tagged variant: either a static token ([StaticColor]) or a
// function of the current value ([ComputedColor]). The zero Color paints
// nothing. Tokens are color names ("red", "bright_green", "gray"), ANSI
// numbers ("0" to "255") or hex values ("#ff8800").
type Color struct {
	token   string
	compute func(value any) string
}

// StaticColor returns a Color that always resolves to token.
func StaticColor(token string) Color {
	return Color{token: token}
}

// ComputedColor returns a Color resolved by calling fn with the stat value on
// every render. An empty or unknown token leaves the text unpainted.
func ComputedColor(fn func(value any) string) Color {
	return Color{compute: fn}
}

// ThresholdColor returns a [ComputedColor] that is green below warnAt, yellow
// from warnAt and red from critAt. Values are coerced to numbers the same way
// aggregation does; non-numeric values count as 0.
func ThresholdColor(warnAt, critAt float64) Color {
	return ComputedColor(func(value any) string {
		v := toFloat(value)
		switch {
		case v >= critAt:
			return "red"
		case v >= warnAt:
			return "yellow"
		default:
			return "green"
		}
	})
}

// IsZero reports whether the Color paints nothing.
func (c Color) IsZero() bool {
	return c.token == "" && c.compute == nil
}

// Resolve returns the color token for value.
func (c Color) Resolve(value any) string {
	if c.compute != nil {
		return c.compute(value)
	}
	return c.token
}

var colorNames = map[string]string{
	"black":          "0",
	"red":            "1",
	"green":          "2",
	"yellow":         "3",
	"blue":           "4",
	"magenta":        "5",
	"cyan":           "6",
	"white":          "7",
	"gray":           "8",
	"grey":           "8",
	"bright_red":     "9",
	"bright_green":   "10",
	"bright_yellow":  "11",
	"bright_blue":    "12",
	"bright_magenta": "13",
	"bright_cyan":    "14",
	"bright_white":   "15",
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ParseColor converts a color token into a lipgloss color.
// An empty token yields an empty color and no error.
func ParseColor(token string) (lipgloss.Color, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", nil
	}
	if code, ok := colorNames[strings.ToLower(token)]; ok {
		return lipgloss.Color(code), nil
	}
	if hexColorPattern.MatchString(token) {
		return lipgloss.Color(token), nil
	}
	if n, err := strconv.Atoi(token); err == nil && n >= 0 && n <= 255 {
		return lipgloss.Color(token), nil
	}
	return "", fmt.Errorf("%w: unknown color %q", ErrInvalidConfig, token)
}
