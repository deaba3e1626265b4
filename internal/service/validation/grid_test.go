package validation

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
)

var weekDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func testLayout() validation.Layout {
	return validation.Layout{
		DayRow:         3,
		DateRow:        4,
		FirstDayColumn: 2,
		DayCount:       7,
		NameColumn:     1,
		SummaryCell:    "B15",
		Discovery: validation.Discovery{
			Mode:     validation.DiscoveryScan,
			StartRow: 6,
			Count:    7,
		},
	}
}

func newTestValidator() *Validator {
	v, err := NewValidator(testLayout())
	if err != nil {
		panic(err)
	}
	return v
}

// memGrid is an in-memory schedule sheet.
type memGrid struct {
	name    string
	values  map[[2]int]string
	display map[[2]int]string
	written map[string]string
	readErr error
}

func newMemGrid(name string) *memGrid {
	return &memGrid{
		name:    name,
		values:  map[[2]int]string{},
		display: map[[2]int]string{},
		written: map[string]string{},
	}
}

// weekGrid lays out a standard week: day names on row 3, dates on row 4
// (displayed as M/D/YYYY starting Monday 3/4/2024) and one roster row per
// employee from row 6. Each roster row is a name followed by up to 7 shifts.
func weekGrid(name string, roster ...[]string) *memGrid {
	g := newMemGrid(name)
	for d, day := range weekDays {
		g.values[[2]int{3, 2 + d}] = day
		g.display[[2]int{4, 2 + d}] = fmt.Sprintf("3/%d/2024", 4+d)
	}
	for i, row := range roster {
		for c, v := range row {
			g.values[[2]int{6 + i, 1 + c}] = v
		}
	}
	return g
}

func (g *memGrid) Name() string { return g.name }

func (g *memGrid) ReadValues(ctx context.Context, row, col, numRows, numCols int) ([][]string, error) {
	return g.read(g.values, row, col, numRows, numCols)
}

func (g *memGrid) ReadDisplayValues(ctx context.Context, row, col, numRows, numCols int) ([][]string, error) {
	out, err := g.read(g.display, row, col, numRows, numCols)
	if err != nil {
		return nil, err
	}
	for r := range out {
		for c := range out[r] {
			if out[r][c] == "" {
				out[r][c] = g.values[[2]int{row + r, col + c}]
			}
		}
	}
	return out, nil
}

func (g *memGrid) read(src map[[2]int]string, row, col, numRows, numCols int) ([][]string, error) {
	if g.readErr != nil {
		return nil, g.readErr
	}
	out := make([][]string, numRows)
	for r := range out {
		out[r] = make([]string, numCols)
		for c := range out[r] {
			out[r][c] = src[[2]int{row + r, col + c}]
		}
	}
	return out, nil
}

func (g *memGrid) SetValue(ctx context.Context, cell string, value string) error {
	g.written[cell] = value
	return nil
}

// memWorkbook collects log appends in order.
type memWorkbook struct {
	grids  []validation.Grid
	resets int
	runs   []validation.Run
}

func (w *memWorkbook) Sheets(ctx context.Context) ([]validation.Grid, error) {
	return w.grids, nil
}

func (w *memWorkbook) Reset(ctx context.Context) error {
	w.resets++
	w.runs = nil
	return nil
}

func (w *memWorkbook) Append(ctx context.Context, run validation.Run) error {
	w.runs = append(w.runs, run)
	return nil
}

// memRunRepo records persisted runs.
type memRunRepo struct {
	runs []validation.Run
}

func (r *memRunRepo) Reset(ctx context.Context) error { return nil }

func (r *memRunRepo) Append(ctx context.Context, run validation.Run) error {
	r.runs = append(r.runs, run)
	return nil
}

func (r *memRunRepo) List(ctx context.Context, filter validation.RunFilter) ([]validation.RunRecord, int64, error) {
	var records []validation.RunRecord
	for _, run := range r.runs {
		if filter.Sheet != nil && *filter.Sheet != run.Sheet {
			continue
		}
		records = append(records, validation.RunRecord{
			ID:            run.ID.String(),
			Sheet:         run.Sheet,
			Summary:       run.Summary(),
			CriticalCount: len(run.CriticalWarnings),
			CautionCount:  len(run.CautionWarnings),
			CellCount:     len(run.Cells),
			StartedAt:     run.StartedAt,
		})
	}
	return records, int64(len(records)), nil
}

func (r *memRunRepo) GetCells(ctx context.Context, runID string) ([]validation.CellResult, error) {
	for _, run := range r.runs {
		if run.ID.String() == runID {
			return run.Cells, nil
		}
	}
	return nil, validation.ErrRunNotFound
}

// cellFor finds the audit entry of one employee on one day.
func cellFor(run validation.Run, employee, day string) validation.CellResult {
	for _, c := range run.Cells {
		if c.EmployeeName == employee && c.Day == day {
			return c
		}
	}
	panic("no cell for " + employee + " on " + day)
}

// fullCoverage is a week in which every day has an opener, a closer and a
// mid shift, so coverage reminders stay out of conflict assertions.
func fullCoverage() [][]string {
	return [][]string{
		{"Opal", "6a-2p", "6a-2p", "6a-2p", "6a-2p", "6a-2p", "6a-2p", "6a-2p"},
		{"Cole", "2p-10p", "2p-10p", "2p-10p", "2p-10p", "2p-10p", "2p-10p", "2p-10p"},
		{"Mia", "9a-5p", "9a-5p", "9a-5p", "9a-5p", "9a-5p", "9a-5p", "9a-5p"},
	}
}
