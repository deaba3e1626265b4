package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/sse"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type validationServiceImpl struct {
	validator *Validator
	runRepo   validation.RunRepository
	hub       *sse.Hub
}

// NewValidationService builds the service. runRepo and hub are optional;
// without them run history and the live feed are disabled.
func NewValidationService(v *Validator, runRepo validation.RunRepository, hub *sse.Hub) validation.Service {
	return &validationServiceImpl{
		validator: v,
		runRepo:   runRepo,
		hub:       hub,
	}
}

// ValidateSheet implements validation.Service.
func (s *validationServiceImpl) ValidateSheet(ctx context.Context, grid validation.Grid) (validation.Run, error) {
	snap, err := s.validator.Read(ctx, grid)
	if err != nil {
		return validation.Run{}, fmt.Errorf("sheet %q: %w", grid.Name(), err)
	}
	return s.validator.Evaluate(snap), nil
}

// ValidateWorkbook implements validation.Service.
func (s *validationServiceImpl) ValidateWorkbook(ctx context.Context, wb validation.Workbook) (validation.WorkbookResult, error) {
	var result validation.WorkbookResult
	start := time.Now()

	if err := wb.Reset(ctx); err != nil {
		return result, fmt.Errorf("reset log: %w", err)
	}

	grids, err := wb.Sheets(ctx)
	if err != nil {
		return result, fmt.Errorf("list sheets: %w", err)
	}
	if len(grids) == 0 {
		return result, validation.ErrNoScheduleSheets
	}

	// Grid reads go one sheet at a time; a sheet that cannot be read is
	// reported and skipped.
	var (
		readable  []validation.Grid
		snapshots []validation.Snapshot
	)
	for _, grid := range grids {
		snap, err := s.validator.Read(ctx, grid)
		if err != nil {
			slog.Error("Failed to read schedule sheet", "sheet", grid.Name(), "error", err)
			result.Failed = append(result.Failed, validation.SheetFailure{Sheet: grid.Name(), Error: err.Error()})
			continue
		}
		readable = append(readable, grid)
		snapshots = append(snapshots, snap)
	}

	// Evaluation is pure over each snapshot, so sheets are evaluated in parallel.
	runs := make([]validation.Run, len(snapshots))
	g, gCtx := errgroup.WithContext(ctx)
	for i := range snapshots {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			runs[i] = s.validator.Evaluate(snapshots[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	// Emission stays in sheet order so the shared log is deterministic.
	for i, run := range runs {
		if err := readable[i].SetValue(ctx, s.validator.Layout().SummaryCell, run.Summary()); err != nil {
			return result, fmt.Errorf("write summary for sheet %q: %w", run.Sheet, err)
		}
		if err := wb.Append(ctx, run); err != nil {
			return result, fmt.Errorf("append log for sheet %q: %w", run.Sheet, err)
		}
		if s.runRepo != nil {
			if err := s.runRepo.Append(ctx, run); err != nil {
				slog.Error("Failed to persist validation run", "sheet", run.Sheet, "run_id", run.ID, "error", err)
			}
		}
		s.publish(run)
		result.Runs = append(result.Runs, run)

		slog.Info("Schedule sheet validated",
			"sheet", run.Sheet,
			"run_id", run.ID,
			"critical", len(run.CriticalWarnings),
			"caution", len(run.CautionWarnings),
		)
	}

	slog.Debug("Workbook validated", "sheets", len(result.Runs), "failed", len(result.Failed), "duration", time.Since(start))
	return result, nil
}

func (s *validationServiceImpl) publish(run validation.Run) {
	if s.hub == nil {
		return
	}
	s.hub.PublishToMany([]string{run.Sheet, validation.FeedAll}, sse.Event{
		Event: validation.EventRunCompleted,
		Data:  validation.NewSheetRunResponse(run, false),
	})
}

// ListRuns implements validation.Service.
func (s *validationServiceImpl) ListRuns(ctx context.Context, filter validation.RunFilter) (validation.ListRunResponse, error) {
	if s.runRepo == nil {
		return validation.ListRunResponse{}, validation.ErrRunStoreDisabled
	}
	if err := filter.Validate(); err != nil {
		return validation.ListRunResponse{}, err
	}

	runs, total, err := s.runRepo.List(ctx, filter)
	if err != nil {
		return validation.ListRunResponse{}, fmt.Errorf("failed to list runs: %w", err)
	}
	return validation.NewListRunResponse(runs, total, filter), nil
}

// GetRunCells implements validation.Service.
func (s *validationServiceImpl) GetRunCells(ctx context.Context, runID string) ([]validation.CellResult, error) {
	if s.runRepo == nil {
		return nil, validation.ErrRunStoreDisabled
	}
	if _, err := uuid.Parse(runID); err != nil {
		return nil, validation.ErrRunNotFound
	}
	return s.runRepo.GetCells(ctx, runID)
}

// Subscribe implements validation.Service.
func (s *validationServiceImpl) Subscribe(ctx context.Context, sheet string) (<-chan validation.SSEEvent, func()) {
	out := make(chan validation.SSEEvent, 10)
	if s.hub == nil {
		close(out)
		return out, func() {}
	}

	feed := sheet
	if feed == "" {
		feed = validation.FeedAll
	}
	ch, cleanup := s.hub.Subscribe(feed)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				resp, ok := event.Data.(validation.SheetRunResponse)
				if !ok {
					continue
				}
				select {
				case out <- validation.SSEEvent{Event: event.Event, Data: resp}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}
