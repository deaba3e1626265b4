package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/schedule-checker/internal/domain/shift"
	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/validator"
	"github.com/google/uuid"
)

// Validator reads schedule sheets laid out per a fixed Layout and evaluates
// them for rest-period conflicts and coverage gaps.
type Validator struct {
	layout validation.Layout
	now    func() time.Time
}

func NewValidator(layout validation.Layout) (*Validator, error) {
	if err := validateLayout(layout); err != nil {
		return nil, err
	}
	return &Validator{layout: layout, now: time.Now}, nil
}

func validateLayout(l validation.Layout) error {
	var errs validator.ValidationErrors

	if l.DayRow < 1 || l.DateRow < 1 || l.FirstDayColumn < 1 || l.NameColumn < 1 {
		errs = append(errs, validator.ValidationError{
			Field:   "layout",
			Message: "rows and columns are 1-based",
		})
	}
	if l.DayCount < 1 {
		errs = append(errs, validator.ValidationError{
			Field:   "day_count",
			Message: "day_count must be at least 1",
		})
	}
	if !validator.IsValidCellName(l.SummaryCell) {
		errs = append(errs, validator.ValidationError{
			Field:   "summary_cell",
			Message: "summary_cell must be an A1-style cell reference",
		})
	}
	switch l.Discovery.Mode {
	case validation.DiscoveryScan:
		if l.Discovery.StartRow < 1 || l.Discovery.Count < 1 {
			errs = append(errs, validator.ValidationError{
				Field:   "discovery",
				Message: "scan discovery needs a start row and a row count",
			})
		}
	case validation.DiscoveryFixed:
		if len(l.Discovery.Rows) == 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "discovery",
				Message: "fixed discovery needs at least one row",
			})
		}
		for _, row := range l.Discovery.Rows {
			if row < 1 {
				errs = append(errs, validator.ValidationError{
					Field:   "discovery",
					Message: "fixed rows are 1-based",
				})
				break
			}
		}
	default:
		errs = append(errs, validator.ValidationError{
			Field:   "discovery",
			Message: "discovery must be one of: " + strings.Join(validation.DiscoveryModeValues, ", "),
		})
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", validation.ErrInvalidLayout, errs)
	}
	return nil
}

func (v *Validator) Layout() validation.Layout {
	return v.layout
}

// Read loads employees, day columns and the shift matrix of one sheet.
func (v *Validator) Read(ctx context.Context, grid validation.Grid) (validation.Snapshot, error) {
	l := v.layout
	snap := validation.Snapshot{Sheet: grid.Name()}

	dayRows, err := grid.ReadValues(ctx, l.DayRow, l.FirstDayColumn, 1, l.DayCount)
	if err != nil {
		return snap, fmt.Errorf("read day names: %w", err)
	}
	dateRows, err := grid.ReadDisplayValues(ctx, l.DateRow, l.FirstDayColumn, 1, l.DayCount)
	if err != nil {
		return snap, fmt.Errorf("read dates: %w", err)
	}
	days, dates := firstRow(dayRows), firstRow(dateRows)
	for d := 0; d < l.DayCount; d++ {
		snap.Days = append(snap.Days, validation.DayColumn{
			DayName:     strings.TrimSpace(cellAt(days, d)),
			Date:        FormatDate(cellAt(dates, d)),
			ColumnIndex: l.FirstDayColumn + d,
		})
	}

	firstRowNum, span := v.employeeSpan()
	names, err := grid.ReadValues(ctx, firstRowNum, l.NameColumn, span, 1)
	if err != nil {
		return snap, fmt.Errorf("read employee names: %w", err)
	}
	shifts, err := grid.ReadValues(ctx, firstRowNum, l.FirstDayColumn, span, l.DayCount)
	if err != nil {
		return snap, fmt.Errorf("read shifts: %w", err)
	}

	for _, row := range v.employeeRows() {
		i := row - firstRowNum
		name := ""
		if i < len(names) {
			name = strings.TrimSpace(cellAt(names[i], 0))
		}
		if name == "" {
			continue
		}
		snap.Employees = append(snap.Employees, validation.Employee{Name: name, RowIndex: row})

		cells := make([]string, l.DayCount)
		if i < len(shifts) {
			for d := range cells {
				cells[d] = cellAt(shifts[i], d)
			}
		}
		snap.Shifts = append(snap.Shifts, cells)
	}
	return snap, nil
}

// employeeRows lists candidate sheet rows in declaration order.
func (v *Validator) employeeRows() []int {
	disc := v.layout.Discovery
	if disc.Mode == validation.DiscoveryFixed {
		return disc.Rows
	}
	rows := make([]int, disc.Count)
	for i := range rows {
		rows[i] = disc.StartRow + i
	}
	return rows
}

// employeeSpan is the smallest row block covering every candidate row, so
// names and shifts are each fetched with a single read.
func (v *Validator) employeeSpan() (int, int) {
	rows := v.employeeRows()
	lo, hi := rows[0], rows[0]
	for _, r := range rows[1:] {
		lo, hi = min(lo, r), max(hi, r)
	}
	return lo, hi - lo + 1
}

// Evaluate runs the conflict and coverage checks over a snapshot.
func (v *Validator) Evaluate(snap validation.Snapshot) validation.Run {
	run := validation.Run{
		ID:        uuid.New(),
		Sheet:     snap.Sheet,
		StartedAt: v.now(),
	}

	previousAway := make([]bool, len(snap.Employees))

	for d, day := range snap.Days {
		tracker := NewCoverageTracker(day.DayName)

		for e, emp := range snap.Employees {
			current := shift.Parse(snap.ShiftAt(e, d))
			cell := validation.CellResult{
				Day:          day.DayName,
				Date:         day.Date,
				EmployeeName: emp.Name,
				Issues:       []string{},
			}

			switch current.Kind {
			case shift.KindNotScheduled:
				cell.Status = validation.StatusNotScheduled
				cell.Details = emp.Name + " has not been scheduled yet for " + day.Label() + "."
			case shift.KindOff:
				cell.Status = validation.StatusOff
				cell.Details = emp.Name + " is off on " + day.Label() + "."
				if previousAway[e] {
					cell.Details += " That's two days in a row off!"
				}
				previousAway[e] = true
			case shift.KindPTO:
				cell.Status = validation.StatusPTO
				cell.Details = emp.Name + " has PTO on " + day.Label() + "."
				previousAway[e] = true
			case shift.KindWorked:
				cell.Status = validation.StatusScheduled
				cell.Details = emp.Name + " works on " + day.Label() + v.nextDayClause(snap, e, d)
				previousAway[e] = false

				if err := current.Err(); err != nil {
					cell.Issues = append(cell.Issues, "unrecognized shift "+strconv.Quote(strings.TrimSpace(current.Raw)))
					slog.Warn("Malformed shift text", "sheet", snap.Sheet, "employee", emp.Name, "day", day.DayName, "error", err)
				}

				if d > 0 {
					prev := shift.Parse(snap.ShiftAt(e, d-1))
					conflict := RestPeriodConflict(RestPeriodContext{
						Employee: emp.Name,
						Previous: snap.Days[d-1],
						Current:  day,
					}, prev, current)

					switch conflict.Severity {
					case validation.SeverityCritical:
						run.CriticalWarnings = append(run.CriticalWarnings, conflict.Message)
						cell.Issues = append(cell.Issues, conflict.Issue)
						cell.Status = validation.StatusCritical
					case validation.SeverityCaution:
						run.CautionWarnings = append(run.CautionWarnings, conflict.Message)
						cell.Issues = append(cell.Issues, conflict.Issue)
						if cell.Status != validation.StatusCritical {
							cell.Status = validation.StatusCaution
						}
					}
				}
			}

			tracker.Update(current)
			run.Cells = append(run.Cells, cell)
		}

		coverage := tracker.Finalize()
		run.Coverage = append(run.Coverage, coverage)
		if !coverage.HasOpener {
			run.MissingOpeners = append(run.MissingOpeners, day.DayName)
		}
		if !coverage.HasCloser {
			run.MissingClosers = append(run.MissingClosers, day.DayName)
		}
		if !coverage.HasMidShift {
			run.MissingMidShifts = append(run.MissingMidShifts, day.DayName)
		}
	}

	if len(run.MissingOpeners) > 0 {
		run.CriticalWarnings = append(run.CriticalWarnings, "**Reminder** | Opener needed on "+strings.Join(run.MissingOpeners, ", "))
	}
	if len(run.MissingClosers) > 0 {
		run.CriticalWarnings = append(run.CriticalWarnings, "**Reminder** | Closer needed on "+strings.Join(run.MissingClosers, ", "))
	}
	if len(run.MissingMidShifts) > 0 {
		run.CautionWarnings = append(run.CautionWarnings, "Caution | No mid shift scheduled on "+strings.Join(run.MissingMidShifts, ", "))
	}

	return run
}

// nextDayClause completes a "works on" detail with what the employee does
// the following day. The last day of the week has no clause.
func (v *Validator) nextDayClause(snap validation.Snapshot, e, d int) string {
	if d+1 >= len(snap.Days) {
		return "."
	}
	next := shift.Parse(snap.ShiftAt(e, d+1))
	switch {
	case next.IsWorked():
		return ", and is scheduled the next day at " + next.StartLabel()
	case next.IsAway():
		return ", and is off the next day."
	default:
		return "."
	}
}

// FormatDate renders a displayed date as MM/DD. Text that is not a date is
// passed through unchanged.
func FormatDate(display string) string {
	if t, ok := validator.ParseDisplayDate(display); ok {
		return t.Format("01/02")
	}
	return strings.TrimSpace(display)
}

func firstRow(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
