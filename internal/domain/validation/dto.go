package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/schedule-checker/internal/pkg/validator"
)

// WorkbookResult is the outcome of a whole-workbook pass. Runs keeps the
// sheet order of the workbook.
type WorkbookResult struct {
	Runs   []Run
	Failed []SheetFailure
}

type SheetFailure struct {
	Sheet string `json:"sheet"`
	Error string `json:"error"`
}

type SheetRunResponse struct {
	RunID            string        `json:"run_id"`
	Sheet            string        `json:"sheet"`
	Summary          string        `json:"summary"`
	CriticalWarnings []string      `json:"critical_warnings"`
	CautionWarnings  []string      `json:"caution_warnings"`
	Coverage         []DayCoverage `json:"coverage"`
	Cells            []CellResult  `json:"cells,omitempty"`
	StartedAt        string        `json:"started_at"`
}

type ValidateWorkbookResponse struct {
	Sheets       []SheetRunResponse `json:"sheets"`
	Failed       []SheetFailure     `json:"failed,omitempty"`
	AnnotatedURL *string            `json:"annotated_url,omitempty"`
}

func NewSheetRunResponse(run Run, includeCells bool) SheetRunResponse {
	resp := SheetRunResponse{
		RunID:            run.ID.String(),
		Sheet:            run.Sheet,
		Summary:          run.Summary(),
		CriticalWarnings: nonNil(run.CriticalWarnings),
		CautionWarnings:  nonNil(run.CautionWarnings),
		Coverage:         run.Coverage,
		StartedAt:        run.StartedAt.Format(time.RFC3339),
	}
	if includeCells {
		resp.Cells = run.Cells
	}
	return resp
}

func NewValidateWorkbookResponse(result WorkbookResult, includeCells bool) ValidateWorkbookResponse {
	resp := ValidateWorkbookResponse{
		Sheets: make([]SheetRunResponse, 0, len(result.Runs)),
		Failed: result.Failed,
	}
	for _, run := range result.Runs {
		resp.Sheets = append(resp.Sheets, NewSheetRunResponse(run, includeCells))
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

const (
	EventRunCompleted = "run_completed"
	// FeedAll receives every run regardless of sheet.
	FeedAll = "*"
)

type SSEEvent struct {
	Event string           `json:"event"`
	Data  SheetRunResponse `json:"data"`
}

// RunRecord is a persisted run as listed back from storage.
type RunRecord struct {
	ID            string    `json:"id"`
	Sheet         string    `json:"sheet"`
	Summary       string    `json:"summary"`
	CriticalCount int       `json:"critical_count"`
	CautionCount  int       `json:"caution_count"`
	CellCount     int       `json:"cell_count"`
	StartedAt     time.Time `json:"started_at"`
}

type ListRunResponse struct {
	TotalCount int64       `json:"total_count"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
	Showing    string      `json:"showing"`
	Runs       []RunRecord `json:"runs"`
}

type RunFilter struct {
	Sheet *string `json:"sheet,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`

	SortOrder string `json:"sort_order"` // by started_at
}

func (f *RunFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (f RunFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

func NewListRunResponse(runs []RunRecord, total int64, filter RunFilter) ListRunResponse {
	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	}
	showing := "0 results"
	if len(runs) > 0 {
		from := filter.Offset() + 1
		to := filter.Offset() + len(runs)
		showing = fmt.Sprintf("%d-%d of %d results", from, to, total)
	}
	if runs == nil {
		runs = []RunRecord{}
	}
	return ListRunResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Runs:       runs,
	}
}

// ValidateWorkbookRequest carries the options of an upload.
type ValidateWorkbookRequest struct {
	Filename     string
	Annotate     bool
	IncludeCells bool
}

func (r *ValidateWorkbookRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Filename) {
		errs = append(errs, validator.ValidationError{
			Field:   "file",
			Message: "file is required",
		})
	} else if !validator.HasExtension(r.Filename, ".xlsx", ".xlsm") {
		errs = append(errs, validator.ValidationError{
			Field:   "file",
			Message: "file must be an .xlsx or .xlsm workbook",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
