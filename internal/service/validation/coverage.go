package validation

import (
	"github.com/cmlabs-hris/schedule-checker/internal/domain/shift"
	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
)

// CoverageTracker accumulates, for one day, whether anyone opens, closes
// or works a mid shift.
type CoverageTracker struct {
	coverage  validation.DayCoverage
	finalized bool
}

func NewCoverageTracker(day string) *CoverageTracker {
	return &CoverageTracker{coverage: validation.DayCoverage{Day: day}}
}

// Update is a no-op once the day has been finalized.
func (t *CoverageTracker) Update(s shift.Shift) {
	if t.finalized {
		return
	}
	t.coverage.HasOpener = t.coverage.HasOpener || s.IsOpener()
	t.coverage.HasCloser = t.coverage.HasCloser || s.IsCloser()
	t.coverage.HasMidShift = t.coverage.HasMidShift || s.IsMidShift()
}

func (t *CoverageTracker) Finalize() validation.DayCoverage {
	t.finalized = true
	return t.coverage
}
