package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/schedule-checker/internal/pkg/cron"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/validator"
	"github.com/spf13/cobra"
)

var (
	watchFile     string
	watchInterval time.Duration
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate a workbook every time it is saved",
		Long: `Poll a workbook and run a full validation pass whenever it changes.
Each pass writes the summaries and the log back into the file.

Examples:
  checker watch -f schedule.xlsx
  checker watch -f schedule.xlsx --interval 10s`,
		RunE: runWatch,
	}

	cmd.Flags().StringVarP(&watchFile, "filename", "f", "", "Workbook to watch (required)")
	cmd.Flags().DurationVar(&watchInterval, "interval", 0, "Poll interval (default WATCH_INTERVAL)")
	cmd.MarkFlagRequired("filename")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !validator.HasExtension(watchFile, ".xlsx", ".xlsm") {
		return fmt.Errorf("%s is not an .xlsx or .xlsm workbook", watchFile)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	interval := watchInterval
	if interval <= 0 {
		interval = cfg.Watch.Interval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := newChecker(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()

	out := cmd.OutOrStdout()
	watch := cron.NewWorkbookWatch(watchFile, func(ctx context.Context, path string) error {
		result, err := c.validateFile(ctx, path, path, true)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "-- %s --\n", time.Now().Format(time.DateTime))
		return printResult(out, result, false)
	})

	scheduler := cron.NewScheduler(ctx)
	watch.RegisterJobs(scheduler, interval)
	scheduler.Start()
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s every %s, Ctrl+C to stop\n", watchFile, interval)

	scheduler.Wait()
	return nil
}
