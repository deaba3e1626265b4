package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/schedule-checker/internal/config"
	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/database"
	"github.com/cmlabs-hris/schedule-checker/internal/repository/excel"
	"github.com/cmlabs-hris/schedule-checker/internal/repository/postgresql"
	validationService "github.com/cmlabs-hris/schedule-checker/internal/service/validation"
)

// checker bundles the service with the workbook options it was built from.
type checker struct {
	service      validation.Service
	workbookOpts excel.Options
	close        func()
}

func newChecker(ctx context.Context, cfg *config.Config) (*checker, error) {
	v, err := validationService.NewValidator(cfg.Grid.Layout())
	if err != nil {
		return nil, err
	}

	c := &checker{
		workbookOpts: excel.Options{
			LogSheet: cfg.Grid.LogSheet,
			Schema:   validation.LogSchema(cfg.Grid.LogSchema),
		},
		close: func() {},
	}

	var runRepo validation.RunRepository
	if cfg.DatabaseEnabled() {
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.PoolConfig())
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := postgresql.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		runRepo = postgresql.NewValidationRunRepository(db)
		c.close = db.Close
	}

	c.service = validationService.NewValidationService(v, runRepo, nil)
	return c, nil
}

// validateFile runs a whole-workbook pass on path. When save is set the
// annotated workbook is written to dest.
func (c *checker) validateFile(ctx context.Context, path, dest string, save bool) (validation.WorkbookResult, error) {
	wb, err := excel.OpenFile(path, c.workbookOpts)
	if err != nil {
		return validation.WorkbookResult{}, err
	}
	defer wb.Close()

	result, err := c.service.ValidateWorkbook(ctx, wb)
	if err != nil {
		return result, err
	}

	if save {
		if err := wb.SaveAs(dest); err != nil {
			return result, fmt.Errorf("save workbook: %w", err)
		}
		slog.Debug("Annotated workbook saved", "path", dest)
	}
	return result, nil
}

// validateSheet checks one sheet without touching the workbook.
func (c *checker) validateSheet(ctx context.Context, path, sheet string) (validation.WorkbookResult, error) {
	wb, err := excel.OpenFile(path, c.workbookOpts)
	if err != nil {
		return validation.WorkbookResult{}, err
	}
	defer wb.Close()

	grid, err := wb.Sheet(sheet)
	if err != nil {
		return validation.WorkbookResult{}, err
	}
	run, err := c.service.ValidateSheet(ctx, grid)
	if err != nil {
		return validation.WorkbookResult{}, err
	}
	return validation.WorkbookResult{Runs: []validation.Run{run}}, nil
}

func printResult(out io.Writer, result validation.WorkbookResult, includeCells bool) error {
	if outputFmt == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(validation.NewValidateWorkbookResponse(result, includeCells))
	}

	for i, run := range result.Runs {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "== %s ==\n", run.Sheet)
		fmt.Fprintln(out, run.Summary())
		if includeCells {
			for _, cell := range run.Cells {
				line := fmt.Sprintf("  %-16s %-20s %-13s %s", cell.DayLabel(), cell.EmployeeName, cell.Status, cell.Details)
				if len(cell.Issues) > 0 {
					line += " [" + strings.Join(cell.Issues, "; ") + "]"
				}
				fmt.Fprintln(out, strings.TrimRight(line, " "))
			}
		}
	}
	for _, f := range result.Failed {
		fmt.Fprintf(out, "!! %s: %s\n", f.Sheet, f.Error)
	}
	return nil
}

// worstSeverity is the highest severity found across all runs.
func worstSeverity(result validation.WorkbookResult) validation.Severity {
	worst := validation.SeverityNone
	for _, run := range result.Runs {
		if len(run.CautionWarnings) > 0 && worst < validation.SeverityCaution {
			worst = validation.SeverityCaution
		}
		if len(run.CriticalWarnings) > 0 {
			return validation.SeverityCritical
		}
	}
	return worst
}
