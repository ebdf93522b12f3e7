package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/termdash/config"
)

// validateCmd validates a layout file without drawing anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a layout file",
	Long: `Validate a termdash layout file without starting a dashboard.

This command parses the YAML, expands environment variables, and validates
all fields, including aggregate sources. It's useful for CI/CD pipelines.

Exit codes:
  0 - Layout is valid
  1 - Layout is invalid (error details printed to stderr)

Example:
  termdash validate -c layout.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to layout file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var plain, aggregated, separators, stats int
	for _, lc := range cfg.Lines {
		switch {
		case lc.Separator:
			separators++
		case lc.Aggregate != nil:
			aggregated++
		default:
			plain++
		}
		stats += len(lc.Stats)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Refresh rate: %s\n", cfg.RefreshRate.Duration())
	fmt.Fprintf(out, "  Lines:        %d plain + %d aggregated + %d separators = %d total\n",
		plain, aggregated, separators, len(cfg.Lines))
	fmt.Fprintf(out, "  Stats:        %d\n", stats)

	return nil
}
