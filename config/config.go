// Package config provides YAML configuration parsing for termdash.
//
// This package lets a dashboard layout and its rendering options be declared
// in a file instead of built programmatically. The termdash command uses it
// for its demo and validate subcommands.
//
// Example configuration:
//
//	refresh_rate: 200ms
//	log_file: ${TERMDASH_LOG:-}
//	enable_separators: true
//	reserve_extra_rows: 3
//
//	lines:
//	  - name: header
//	    style: header
//	    stats:
//	      - {name: worker, initial: worker}
//	      - {name: cpu, initial: cpu}
//	  - separator: true
//	  - name: w1
//	    stats:
//	      - {name: worker, initial: w1}
//	      - name: cpu
//	        initial: 0.0
//	        format: "%.1f%%"
//	        color: {type: threshold, warn: 70, crit: 90}
//	        warn_if_stale: 5s
//	  - name: total
//	    aggregate:
//	      sources: [w1]
//	      mode: avg
//	    stats:
//	      - {name: cpu, initial: 0.0, format: "%.1f%%"}
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/termdash"
)

// minRefreshRate keeps a config from spinning the render loop.
const minRefreshRate = 10 * time.Millisecond

const (
	defaultRefreshRate = 100 * time.Millisecond
	defaultColumnSep   = " | "
	defaultMinColPad   = 1
)

// Config is the root configuration structure for a dashboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// RefreshRate is the time between redraws. Defaults to 100ms.
	RefreshRate Duration `yaml:"refresh_rate"`

	// LogFile receives log entries and debug traces. Empty disables it.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	LogFile string `yaml:"log_file"`

	// StatusLine shows the latest log entry below the dashboard.
	// Defaults to true.
	StatusLine *bool `yaml:"status_line"`

	DebugLocks     bool `yaml:"debug_locks"`
	DebugRendering bool `yaml:"debug_rendering"`

	// AlignColumns lines up column separators across rows. Defaults to true.
	AlignColumns *bool `yaml:"align_columns"`

	// ColumnSep is placed between stats. Defaults to " | ".
	ColumnSep string `yaml:"column_sep"`

	// MinColPad is the padding after each aligned column. Defaults to 1.
	MinColPad *int `yaml:"min_col_pad"`

	// MaxColWidth clips wider columns. Zero means unlimited.
	MaxColWidth int `yaml:"max_col_width"`

	// EnableSeparators allows "separator: true" lines.
	EnableSeparators bool `yaml:"enable_separators"`

	// SeparatorStyle is rule, dash or dot. Defaults to rule.
	SeparatorStyle string `yaml:"separator_style"`

	// SeparatorCustom overrides SeparatorStyle with a literal pattern.
	SeparatorCustom string `yaml:"separator_custom"`

	// ReserveExtraRows shows that many recent log entries below the dashboard.
	ReserveExtraRows int `yaml:"reserve_extra_rows"`

	// LogCapacity bounds the in-memory log. Defaults to 100.
	LogCapacity int `yaml:"log_capacity"`

	// Lines defines the dashboard rows in render order.
	Lines []LineConfig `yaml:"lines"`
}

// LineConfig defines a single dashboard row.
type LineConfig struct {
	// Name identifies the line. Required unless Separator is set.
	Name string `yaml:"name"`

	// Style is default, header or separator.
	Style string `yaml:"style"`

	// Pattern is the repeated text of a style: separator line.
	Pattern string `yaml:"pattern"`

	// Separator adds a separator in the dashboard's separator style.
	// Requires enable_separators.
	Separator bool `yaml:"separator"`

	// AtTop inserts the line above all lines added before it.
	AtTop bool `yaml:"at_top"`

	// Aggregate makes the line compute its stats from other lines.
	Aggregate *AggregateConfig `yaml:"aggregate"`

	// Stats are the line's values in render order.
	Stats []StatConfig `yaml:"stats"`
}

// AggregateConfig defines the sources of an aggregated line.
type AggregateConfig struct {
	// Sources names the lines to aggregate. They must be plain lines.
	Sources []string `yaml:"sources"`

	// Mode is sum or avg. Defaults to sum.
	Mode string `yaml:"mode"`
}

// StatConfig defines a single stat.
type StatConfig struct {
	Name    string `yaml:"name"`
	Initial any    `yaml:"initial"`

	// Format is a fmt verb string, e.g. "%.1f%%".
	Format string `yaml:"format"`
	Prefix string `yaml:"prefix"`
	Unit   string `yaml:"unit"`

	Color ColorConfig `yaml:"color"`

	// WarnIfStale flags the stat when not updated for this long.
	WarnIfStale Duration `yaml:"warn_if_stale"`

	// NoExpand excludes the stat from column width voting.
	NoExpand bool `yaml:"no_expand"`

	// DisplayWidth is the fixed width of a no_expand stat.
	DisplayWidth int `yaml:"display_width"`
}

// ColorConfig specifies how a stat is painted.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	color: green
//	color: "#ff8800"
//	color: "208"
//
// Structured object:
//
//	color:
//	  type: threshold
//	  warn: 70
//	  crit: 90
type ColorConfig struct {
	// Type is "static" or "threshold". Empty means no color.
	Type string

	// Token is the color of a static color.
	Token string

	// Warn and Crit are the threshold bounds.
	Warn float64
	Crit float64
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for ColorConfig.
func (c *ColorConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s != "" {
			c.Type = "static"
			c.Token = s
		}
		return nil
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type  string  `yaml:"type"`
			Token string  `yaml:"token"`
			Warn  float64 `yaml:"warn"`
			Crit  float64 `yaml:"crit"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		c.Type = raw.Type
		c.Token = raw.Token
		c.Warn = raw.Warn
		c.Crit = raw.Crit
		return nil
	}

	return fmt.Errorf("color must be a string or object, got %v", node.Kind)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in log_file. Defaults are applied for
// refresh_rate (100ms), status_line (true), align_columns (true),
// column_sep (" | ") and min_col_pad (1).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RefreshRate == 0 {
		c.RefreshRate = Duration(defaultRefreshRate)
	}
	if c.StatusLine == nil {
		c.StatusLine = boolPtr(true)
	}
	if c.AlignColumns == nil {
		c.AlignColumns = boolPtr(true)
	}
	if c.ColumnSep == "" {
		c.ColumnSep = defaultColumnSep
	}
	if c.MinColPad == nil {
		pad := defaultMinColPad
		c.MinColPad = &pad
	}
}

func boolPtr(b bool) *bool {
	return &b
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.RefreshRate.Duration() < minRefreshRate {
		return fmt.Errorf("refresh_rate must be at least %s, got %s", minRefreshRate, c.RefreshRate.Duration())
	}

	expanded, err := expandEnvVars(c.LogFile)
	if err != nil {
		return fmt.Errorf("log_file: %w", err)
	}
	c.LogFile = expanded

	if c.MinColPad != nil && *c.MinColPad < 0 {
		return fmt.Errorf("min_col_pad cannot be negative, got %d", *c.MinColPad)
	}
	if c.MaxColWidth < 0 {
		return fmt.Errorf("max_col_width cannot be negative, got %d", c.MaxColWidth)
	}
	if c.ReserveExtraRows < 0 {
		return fmt.Errorf("reserve_extra_rows cannot be negative, got %d", c.ReserveExtraRows)
	}
	if c.LogCapacity < 0 {
		return fmt.Errorf("log_capacity cannot be negative, got %d", c.LogCapacity)
	}
	if _, err := termdash.ParseSeparatorStyle(c.SeparatorStyle); err != nil {
		return fmt.Errorf("separator_style: %w", err)
	}

	if len(c.Lines) == 0 {
		return errors.New("at least one line must be defined")
	}

	// kinds maps line names to whether the line is aggregated
	kinds := make(map[string]bool, len(c.Lines))
	for i := range c.Lines {
		l := &c.Lines[i]
		if l.Separator {
			if !c.EnableSeparators {
				return fmt.Errorf("lines[%d]: separator requires enable_separators", i)
			}
			if l.Name != "" || len(l.Stats) > 0 || l.Aggregate != nil {
				return fmt.Errorf("lines[%d]: separator cannot have a name, stats or aggregate", i)
			}
			continue
		}

		if l.Name == "" {
			return fmt.Errorf("lines[%d]: name is required", i)
		}
		if _, exists := kinds[l.Name]; exists {
			return fmt.Errorf("lines[%d] (%s): duplicate line name", i, l.Name)
		}
		kinds[l.Name] = l.Aggregate != nil

		style, err := termdash.ParseStyle(l.Style)
		if err != nil {
			return fmt.Errorf("lines[%d] (%s): %w", i, l.Name, err)
		}
		if style == termdash.StyleSeparator && len(l.Stats) > 0 {
			return fmt.Errorf("lines[%d] (%s): separator lines cannot have stats", i, l.Name)
		}
		if l.Pattern != "" && style != termdash.StyleSeparator {
			return fmt.Errorf("lines[%d] (%s): pattern requires style separator", i, l.Name)
		}

		seen := make(map[string]struct{}, len(l.Stats))
		for j := range l.Stats {
			s := &l.Stats[j]
			ctx := fmt.Sprintf("lines[%d] (%s): stats[%d]", i, l.Name, j)
			if s.Name == "" {
				return fmt.Errorf("%s: name is required", ctx)
			}
			if _, exists := seen[s.Name]; exists {
				return fmt.Errorf("%s (%s): duplicate stat name", ctx, s.Name)
			}
			seen[s.Name] = struct{}{}
			if err := validateStat(s, fmt.Sprintf("%s (%s)", ctx, s.Name)); err != nil {
				return err
			}
		}
	}

	// aggregates are checked once every line name is known
	for i := range c.Lines {
		l := &c.Lines[i]
		if l.Aggregate == nil {
			continue
		}
		if style, _ := termdash.ParseStyle(l.Style); style == termdash.StyleSeparator {
			return fmt.Errorf("lines[%d] (%s): aggregated lines cannot be separators", i, l.Name)
		}
		if _, err := termdash.ParseAggregateMode(l.Aggregate.Mode); err != nil {
			return fmt.Errorf("lines[%d] (%s): aggregate: %w", i, l.Name, err)
		}
		if len(l.Aggregate.Sources) == 0 {
			return fmt.Errorf("lines[%d] (%s): aggregate requires at least one source", i, l.Name)
		}
		for _, src := range l.Aggregate.Sources {
			aggregated, exists := kinds[src]
			if !exists {
				return fmt.Errorf("lines[%d] (%s): aggregate source %q is not defined", i, l.Name, src)
			}
			if aggregated {
				return fmt.Errorf("lines[%d] (%s): aggregate source %q is itself aggregated", i, l.Name, src)
			}
		}
	}

	return nil
}

// validateStat validates a stat configuration.
func validateStat(s *StatConfig, context string) error {
	if s.WarnIfStale.Duration() < 0 {
		return fmt.Errorf("%s: warn_if_stale cannot be negative, got %s", context, s.WarnIfStale.Duration())
	}
	if s.DisplayWidth < 0 {
		return fmt.Errorf("%s: display_width cannot be negative, got %d", context, s.DisplayWidth)
	}
	if s.DisplayWidth > 0 && !s.NoExpand {
		return fmt.Errorf("%s: display_width requires no_expand", context)
	}

	switch s.Color.Type {
	case "":
		// no color
	case "static":
		if _, err := termdash.ParseColor(s.Color.Token); err != nil {
			return fmt.Errorf("%s: color: %w", context, err)
		}
		if s.Color.Token == "" {
			return fmt.Errorf("%s: color type 'static' requires a token", context)
		}
	case "threshold":
		if s.Color.Crit < s.Color.Warn {
			return fmt.Errorf("%s: color crit (%g) must not be below warn (%g)", context, s.Color.Crit, s.Color.Warn)
		}
	default:
		return fmt.Errorf("%s: unknown color type %q", context, s.Color.Type)
	}

	return nil
}
