package validation

import (
	"github.com/cmlabs-hris/schedule-checker/internal/domain/shift"
	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
)

type RestPeriodResult struct {
	Severity validation.Severity
	// Message is the summary line; Issue is the cell-level text with dates.
	Message string
	Issue   string
}

// RestPeriodContext names the two days being compared.
type RestPeriodContext struct {
	Employee string
	Previous validation.DayColumn
	Current  validation.DayColumn
}

// EvaluateRestPeriod checks an employee's shift against the one they worked
// the day before. Only a closing shift followed by a worked shift can
// conflict: opening next is critical, any other early start is a caution.
func EvaluateRestPeriod(prev, curr shift.Shift) validation.Severity {
	if !prev.IsCloser() || !curr.IsWorked() {
		return validation.SeverityNone
	}
	switch {
	case curr.IsOpener():
		return validation.SeverityCritical
	case curr.IsEarlyStart():
		return validation.SeverityCaution
	default:
		return validation.SeverityNone
	}
}

// RestPeriodConflict evaluates the rule and renders its messages.
func RestPeriodConflict(rc RestPeriodContext, prev, curr shift.Shift) RestPeriodResult {
	severity := EvaluateRestPeriod(prev, curr)
	result := RestPeriodResult{Severity: severity}

	switch severity {
	case validation.SeverityCritical:
		result.Message = "**CRITICAL** | " + rc.Employee + " closes on " + rc.Previous.DayName + " but opens on " + rc.Current.DayName
		result.Issue = rc.Employee + " closes on " + rc.Previous.Label() + " but opens on " + rc.Current.Label()
	case validation.SeverityCaution:
		result.Message = "Caution | " + rc.Employee + " closes on " + rc.Previous.DayName + " but starts early on " + rc.Current.DayName
		result.Issue = rc.Employee + " closes on " + rc.Previous.Label() + " but starts early on " + rc.Current.Label()
	}
	return result
}
