// Package main is the entry point for the termdash CLI.
//
// termdash is a library first. This command drives it from a YAML layout so
// a dashboard can be tried or a config checked without writing Go.
//
// Usage:
//
//	termdash demo                       # Run the built-in demo layout
//	termdash demo -c layout.yaml -d 30s # Run a layout for 30 seconds
//	termdash validate -c layout.yaml    # Validate a layout
//	termdash version                    # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd only displays help; the work happens in subcommands.
var rootCmd = &cobra.Command{
	Use:   "termdash",
	Short: "A live, in-place terminal dashboard",
	Long: `termdash renders named lines of stats in place at the bottom of a terminal
and redraws them at a fixed rate while other goroutines update the values.

Quick start:
  1. Run: termdash demo
  2. Write a layout file (layout.yaml)
  3. Run: termdash demo -c layout.yaml

Example layout:
  refresh_rate: 200ms
  lines:
    - name: w1
      stats:
        - {name: worker, initial: w1}
        - {name: cpu, initial: 0.0, format: "%.1f%%"}`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this termdash binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "termdash %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
