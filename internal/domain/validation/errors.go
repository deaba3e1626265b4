package validation

import "errors"

var (
	// Workbook Errors
	ErrWorkbookUnreadable = errors.New("workbook could not be read")
	ErrNoScheduleSheets   = errors.New("workbook has no schedule sheets")
	ErrSheetNotFound      = errors.New("sheet not found")
	ErrAnnotationDisabled = errors.New("annotated workbook storage is not configured")

	// Layout Errors
	ErrInvalidLayout = errors.New("invalid grid layout")

	// Run Errors
	ErrRunNotFound      = errors.New("validation run not found")
	ErrRunStoreDisabled = errors.New("run history is not configured")
)
