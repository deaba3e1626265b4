package cron

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// WorkbookWatch re-validates a workbook file each time it changes on disk.
type WorkbookWatch struct {
	path     string
	validate func(ctx context.Context, path string) error

	lastMod  time.Time
	lastSize int64
	// written is the modification time of our own last write, which must not
	// trigger another pass.
	written time.Time
}

func NewWorkbookWatch(path string, validate func(ctx context.Context, path string) error) *WorkbookWatch {
	return &WorkbookWatch{path: path, validate: validate}
}

func (w *WorkbookWatch) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("watch_workbook", interval, w.Poll)
}

// Poll runs validate when the file's modification time or size differs from
// the last pass.
func (w *WorkbookWatch) Poll(ctx context.Context) error {
	info, err := os.Stat(w.path)
	if err != nil {
		return fmt.Errorf("stat workbook: %w", err)
	}
	if info.ModTime().Equal(w.lastMod) && info.Size() == w.lastSize {
		return nil
	}
	if !w.written.IsZero() && info.ModTime().Equal(w.written) {
		w.lastMod, w.lastSize = info.ModTime(), info.Size()
		return nil
	}

	slog.Info("Workbook changed, validating", "path", w.path)
	if err := w.validate(ctx, w.path); err != nil {
		return err
	}

	// The pass writes summaries and the log back, so remember the result.
	if after, err := os.Stat(w.path); err == nil {
		w.lastMod, w.lastSize = after.ModTime(), after.Size()
		w.written = after.ModTime()
	} else {
		w.lastMod, w.lastSize = info.ModTime(), info.Size()
	}
	return nil
}
