package validation

import "context"

// Grid is one schedule sheet. Reads address a rectangle by 1-based row and
// column and return numRows x numCols values; missing cells come back as "".
type Grid interface {
	Name() string
	ReadValues(ctx context.Context, row, col, numRows, numCols int) ([][]string, error)
	// ReadDisplayValues returns the values as formatted for display (dates).
	ReadDisplayValues(ctx context.Context, row, col, numRows, numCols int) ([][]string, error)
	SetValue(ctx context.Context, cell string, value string) error
}

// LogSink receives the audit log of every run. Append never overwrites
// rows written earlier.
type LogSink interface {
	Reset(ctx context.Context) error
	Append(ctx context.Context, run Run) error
}

// Workbook is the set of schedule sheets plus the shared log surface.
// Sheets excludes the log sheet itself.
type Workbook interface {
	LogSink
	Sheets(ctx context.Context) ([]Grid, error)
}

type RunRepository interface {
	LogSink
	List(ctx context.Context, filter RunFilter) ([]RunRecord, int64, error)
	GetCells(ctx context.Context, runID string) ([]CellResult, error)
}
