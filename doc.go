// Package termdash draws a live, column-aligned status block in a terminal
// while any number of goroutines feed it values.
//
// A [Dashboard] owns a set of rows. Each row is a [Line] of named [Stat]
// values, an [AggregatedLine] computed from other lines, or a separator.
// Producers push values with [Dashboard.UpdateStat]; a single background
// goroutine redraws the block in place at a fixed refresh rate, lining up
// the column separators across rows. Below the block a status row and
// optional extra rows show the most recent [Dashboard.Log] entries.
//
// # Quick Start
//
//	cpu, _ := termdash.NewStat("cpu", 0.0,
//	    termdash.WithPrefix("cpu "),
//	    termdash.WithFormat("%.1f%%"),
//	)
//	mem, _ := termdash.NewStat("mem", 0, termdash.WithPrefix("mem "), termdash.WithUnit(" MiB"))
//	sys, _ := termdash.NewLine("sys", []*termdash.Stat{cpu, mem})
//
//	d, _ := termdash.New()
//	defer d.Close()
//	_ = d.AddLine(sys)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	err := d.Run(ctx, func(ctx context.Context) error {
//	    d.UpdateStat("sys", "cpu", 55.2)
//	    <-ctx.Done()
//	    return nil
//	})
//
// # Formatting
//
// A stat renders as prefix, formatted value, unit. The format is a fmt verb
// string taking the value as its single argument; when it does not fit the
// value the plain fmt.Sprint form is used, so a bad format never breaks a
// frame. Colors are a [Color]: a fixed token from [StaticColor], or a
// function of the value from [ComputedColor] such as [ThresholdColor].
//
// # Staleness
//
// A stat built with [WithStaleWarning] is painted in the warning color once
// it goes longer than the threshold without an update. [Dashboard.ResetStat]
// restores the initial value and suppresses the warning for a grace period.
//
// # Errors
//
// Duplicate names and invalid options fail at construction with
// [ErrDuplicateName] or [ErrInvalidConfig]. Updates to unknown lines or stats
// are logged through the configured [log/slog.Logger] and dropped. A failing
// row is drawn as a placeholder. Only a persistent output failure surfaces,
// from [Dashboard.Stop] or [Dashboard.Run], as [ErrTerminalUnavailable].
//
// # Thread Safety
//
// Every Dashboard method is safe for concurrent use. Stats and lines must
// not be modified directly once their line has been added to a Dashboard.
package termdash
