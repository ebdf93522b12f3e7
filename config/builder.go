package config

import (
	"fmt"

	"github.com/jpalmerr/termdash"
)

// BuildOptions converts parsed configuration into dashboard options.
func BuildOptions(cfg *Config) []termdash.Option {
	opts := []termdash.Option{
		termdash.WithRefreshRate(cfg.RefreshRate.Duration()),
		termdash.WithLogFile(cfg.LogFile),
		termdash.WithDebugLocks(cfg.DebugLocks),
		termdash.WithDebugRendering(cfg.DebugRendering),
		termdash.WithColumnSep(cfg.ColumnSep),
		termdash.WithMaxColWidth(cfg.MaxColWidth),
		termdash.WithSeparators(cfg.EnableSeparators),
		termdash.WithSeparatorStyle(termdash.SeparatorStyle(cfg.SeparatorStyle)),
		termdash.WithSeparatorCustom(cfg.SeparatorCustom),
		termdash.WithReserveExtraRows(cfg.ReserveExtraRows),
	}

	if cfg.StatusLine != nil {
		opts = append(opts, termdash.WithStatusLine(*cfg.StatusLine))
	}
	if cfg.AlignColumns != nil {
		opts = append(opts, termdash.WithAlignColumns(*cfg.AlignColumns))
	}
	if cfg.MinColPad != nil {
		opts = append(opts, termdash.WithMinColPad(*cfg.MinColPad))
	}
	if cfg.LogCapacity > 0 {
		opts = append(opts, termdash.WithLogCapacity(cfg.LogCapacity))
	}

	return opts
}

// Build creates a dashboard from cfg and adds its lines.
//
// extra options are applied after the configured ones, so callers can
// override the output stream or logger.
func Build(cfg *Config, extra ...termdash.Option) (*termdash.Dashboard, error) {
	d, err := termdash.New(append(BuildOptions(cfg), extra...)...)
	if err != nil {
		return nil, err
	}
	if err := Populate(d, cfg); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// Populate adds the configured lines to d in order.
//
// Plain lines are built first so aggregated lines can refer to lines that
// appear after them.
func Populate(d *termdash.Dashboard, cfg *Config) error {
	rows := make(map[string]termdash.Row, len(cfg.Lines))
	for _, lc := range cfg.Lines {
		if lc.Separator || lc.Aggregate != nil {
			continue
		}
		l, err := buildLine(lc)
		if err != nil {
			return err
		}
		rows[lc.Name] = l
	}

	for _, lc := range cfg.Lines {
		if lc.Separator {
			d.AddSeparator()
			continue
		}

		row, ok := rows[lc.Name]
		if !ok {
			agg, err := buildAggregatedLine(lc, rows)
			if err != nil {
				return err
			}
			row = agg
		}

		add := d.AddLine
		if lc.AtTop {
			add = d.AddLineAtTop
		}
		if err := add(row); err != nil {
			return err
		}
	}
	return nil
}

// buildLine converts a single LineConfig to an SDK Line.
func buildLine(lc LineConfig) (*termdash.Line, error) {
	stats, err := buildStats(lc)
	if err != nil {
		return nil, err
	}
	opts, err := lineOptions(lc)
	if err != nil {
		return nil, err
	}
	return termdash.NewLine(lc.Name, stats, opts...)
}

// buildAggregatedLine converts an aggregate LineConfig, resolving its sources
// from already built lines.
func buildAggregatedLine(lc LineConfig, rows map[string]termdash.Row) (*termdash.AggregatedLine, error) {
	stats, err := buildStats(lc)
	if err != nil {
		return nil, err
	}
	opts, err := lineOptions(lc)
	if err != nil {
		return nil, err
	}

	mode, err := termdash.ParseAggregateMode(lc.Aggregate.Mode)
	if err != nil {
		return nil, fmt.Errorf("line %q: %w", lc.Name, err)
	}
	opts = append(opts, termdash.WithAggregateMode(mode))

	sources := make([]termdash.Row, 0, len(lc.Aggregate.Sources))
	for _, name := range lc.Aggregate.Sources {
		src, ok := rows[name]
		if !ok {
			return nil, fmt.Errorf("line %q: aggregate source %q: %w", lc.Name, name, termdash.ErrNotFound)
		}
		sources = append(sources, src)
	}

	return termdash.NewAggregatedLine(lc.Name, stats, sources, opts...)
}

func lineOptions(lc LineConfig) ([]termdash.LineOption, error) {
	style, err := termdash.ParseStyle(lc.Style)
	if err != nil {
		return nil, fmt.Errorf("line %q: %w", lc.Name, err)
	}
	opts := []termdash.LineOption{termdash.WithLineStyle(style)}
	if lc.Pattern != "" {
		opts = append(opts, termdash.WithSeparatorPattern(lc.Pattern))
	}
	return opts, nil
}

func buildStats(lc LineConfig) ([]*termdash.Stat, error) {
	stats := make([]*termdash.Stat, 0, len(lc.Stats))
	for _, sc := range lc.Stats {
		s, err := buildStat(sc)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", lc.Name, err)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// buildStat converts a single StatConfig to an SDK Stat.
func buildStat(sc StatConfig) (*termdash.Stat, error) {
	var opts []termdash.StatOption

	if sc.Prefix != "" {
		opts = append(opts, termdash.WithPrefix(sc.Prefix))
	}
	if sc.Format != "" {
		opts = append(opts, termdash.WithFormat(sc.Format))
	}
	if sc.Unit != "" {
		opts = append(opts, termdash.WithUnit(sc.Unit))
	}
	if color, ok := buildColor(sc.Color); ok {
		opts = append(opts, termdash.WithColor(color))
	}
	if sc.WarnIfStale != 0 {
		opts = append(opts, termdash.WithStaleWarning(sc.WarnIfStale.Duration()))
	}
	if sc.NoExpand {
		opts = append(opts, termdash.WithNoExpand(sc.DisplayWidth))
	}

	return termdash.NewStat(sc.Name, sc.Initial, opts...)
}

// buildColor converts ColorConfig to a Color. ok is false for no color.
func buildColor(cc ColorConfig) (termdash.Color, bool) {
	switch cc.Type {
	case "static":
		return termdash.StaticColor(cc.Token), true
	case "threshold":
		return termdash.ThresholdColor(cc.Warn, cc.Crit), true
	default:
		return termdash.Color{}, false
	}
}
