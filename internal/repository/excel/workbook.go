package excel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
	"github.com/xuri/excelize/v2"
)

// DefaultLogSheet is the sheet that receives the audit log.
const DefaultLogSheet = "Debug"

type Options struct {
	LogSheet string
	Schema   validation.LogSchema
}

func (o Options) withDefaults() Options {
	if o.LogSheet == "" {
		o.LogSheet = DefaultLogSheet
	}
	if o.Schema == "" {
		o.Schema = validation.LogSchemaDetailed
	}
	return o
}

// Workbook is a validation.Workbook over an .xlsx file held in memory.
type Workbook struct {
	mu   sync.Mutex
	file *excelize.File
	opts Options
}

// New wraps an already opened excelize file.
func New(file *excelize.File, opts Options) *Workbook {
	return &Workbook{file: file, opts: opts.withDefaults()}
}

// Open reads a workbook from r.
func Open(r io.Reader, opts Options) (*Workbook, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", validation.ErrWorkbookUnreadable, err)
	}
	return New(file, opts), nil
}

// OpenFile reads a workbook from disk.
func OpenFile(path string, opts Options) (*Workbook, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", validation.ErrWorkbookUnreadable, err)
	}
	return New(file, opts), nil
}

// Sheets returns every sheet except the log sheet, in workbook order.
func (w *Workbook) Sheets(ctx context.Context) ([]validation.Grid, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var grids []validation.Grid
	for _, name := range w.file.GetSheetList() {
		if name == w.opts.LogSheet {
			continue
		}
		grids = append(grids, &sheetGrid{wb: w, name: name})
	}
	return grids, nil
}

// Sheet returns one schedule sheet by name.
func (w *Workbook) Sheet(name string) (validation.Grid, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx, err := w.file.GetSheetIndex(name)
	if err != nil || idx == -1 || name == w.opts.LogSheet {
		return nil, fmt.Errorf("%w: %s", validation.ErrSheetNotFound, name)
	}
	return &sheetGrid{wb: w, name: name}, nil
}

// Reset clears the log sheet, creating it if needed, and writes the header.
func (w *Workbook) Reset(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	log := w.opts.LogSheet
	idx, err := w.file.GetSheetIndex(log)
	if err != nil {
		return fmt.Errorf("find log sheet: %w", err)
	}
	if idx == -1 {
		if _, err := w.file.NewSheet(log); err != nil {
			return fmt.Errorf("create log sheet: %w", err)
		}
	} else {
		rows, err := w.file.GetRows(log)
		if err != nil {
			return fmt.Errorf("read log sheet: %w", err)
		}
		for r := len(rows); r >= 1; r-- {
			if err := w.file.RemoveRow(log, r); err != nil {
				return fmt.Errorf("clear log sheet: %w", err)
			}
		}
	}

	if err := w.writeRow(1, w.opts.Schema.Header()); err != nil {
		return fmt.Errorf("write log header: %w", err)
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
	})
	if err != nil {
		slog.Warn("Failed to create log header style", "log_sheet", log, "error", err)
		return nil
	}
	if err := w.file.SetRowStyle(log, 1, 1, style); err != nil {
		slog.Warn("Failed to style log header", "log_sheet", log, "error", err)
	}
	return nil
}

// Append writes the run's audit entries after the last used log row.
func (w *Workbook) Append(ctx context.Context, run validation.Run) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	log := w.opts.LogSheet
	idx, err := w.file.GetSheetIndex(log)
	if err != nil || idx == -1 {
		return fmt.Errorf("log sheet %q missing, reset the log first", log)
	}
	rows, err := w.file.GetRows(log)
	if err != nil {
		return fmt.Errorf("read log sheet: %w", err)
	}

	next := len(rows) + 1
	for _, cell := range run.Cells {
		if err := w.writeRow(next, w.opts.Schema.Row(cell)); err != nil {
			return fmt.Errorf("append log row %d: %w", next, err)
		}
		next++
	}
	slog.Debug("Audit log appended", "sheet", run.Sheet, "rows", len(run.Cells), "log_sheet", log)
	return nil
}

func (w *Workbook) writeRow(row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return w.file.SetSheetRow(w.opts.LogSheet, cell, &out)
}

// WriteTo writes the workbook, including summaries and the log, to out.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.WriteTo(out)
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.SaveAs(path)
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

// sheetGrid is one sheet of a Workbook.
type sheetGrid struct {
	wb   *Workbook
	name string
}

func (g *sheetGrid) Name() string { return g.name }

// ReadValues returns the stored cell values of a block.
func (g *sheetGrid) ReadValues(ctx context.Context, row, col, numRows, numCols int) ([][]string, error) {
	return g.read(ctx, row, col, numRows, numCols, excelize.Options{RawCellValue: true})
}

// ReadDisplayValues returns the block as formatted by each cell's number format.
func (g *sheetGrid) ReadDisplayValues(ctx context.Context, row, col, numRows, numCols int) ([][]string, error) {
	return g.read(ctx, row, col, numRows, numCols)
}

func (g *sheetGrid) read(ctx context.Context, row, col, numRows, numCols int, opts ...excelize.Options) ([][]string, error) {
	g.wb.mu.Lock()
	defer g.wb.mu.Unlock()

	out := make([][]string, numRows)
	for r := 0; r < numRows; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[r] = make([]string, numCols)
		for c := 0; c < numCols; c++ {
			cell, err := excelize.CoordinatesToCellName(col+c, row+r)
			if err != nil {
				return nil, fmt.Errorf("cell at row %d column %d: %w", row+r, col+c, err)
			}
			v, err := g.wb.file.GetCellValue(g.name, cell, opts...)
			if err != nil {
				return nil, fmt.Errorf("read %s!%s: %w", g.name, cell, err)
			}
			out[r][c] = v
		}
	}
	return out, nil
}

func (g *sheetGrid) SetValue(ctx context.Context, cell string, value string) error {
	g.wb.mu.Lock()
	defer g.wb.mu.Unlock()

	if err := g.wb.file.SetCellValue(g.name, cell, value); err != nil {
		return fmt.Errorf("write %s!%s: %w", g.name, cell, err)
	}
	return nil
}
