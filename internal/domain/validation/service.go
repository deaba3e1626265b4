package validation

import "context"

type Service interface {
	// ValidateSheet reads one sheet and evaluates it without writing anything back.
	ValidateSheet(ctx context.Context, grid Grid) (Run, error)

	// ValidateWorkbook clears the shared log, then validates every sheet,
	// writes each summary cell and appends each audit log.
	ValidateWorkbook(ctx context.Context, wb Workbook) (WorkbookResult, error)

	// Run history
	ListRuns(ctx context.Context, filter RunFilter) (ListRunResponse, error)
	GetRunCells(ctx context.Context, runID string) ([]CellResult, error)

	// Subscribe streams the summaries of completed runs, for one sheet or,
	// with an empty sheet name, for all of them.
	Subscribe(ctx context.Context, sheet string) (<-chan SSEEvent, func())
}
