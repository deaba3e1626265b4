// checker validates weekly schedule workbooks from the command line.
//
// Usage:
//
//	checker validate -f schedule.xlsx
//	checker validate -f schedule.xlsx --write
//	checker watch -f schedule.xlsx --interval 10s
//	checker token --subject ci
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/schedule-checker/internal/config"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	outputFmt string
	verbose   bool

	loadConfig = config.Load
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "checker",
		Short: "Check weekly schedules for rest-period conflicts and coverage gaps",
		Long: `checker reads schedule workbooks (.xlsx) and reports employees who close
one night and open or start early the next morning, plus days missing an
opener, a closer or a mid shift.

Grid geometry and the log policy come from the environment (.env is read
when present), see GRID_* variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	// Add subcommands
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(tokenCmd())

	return rootCmd
}
