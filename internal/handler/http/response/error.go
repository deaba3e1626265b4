package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/jwt"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/storage"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid token")

	// Validation domain errors
	case errors.Is(err, validation.ErrWorkbookUnreadable):
		BadRequest(w, "Workbook could not be read", nil)
	case errors.Is(err, validation.ErrNoScheduleSheets):
		BadRequest(w, "Workbook has no schedule sheets", nil)
	case errors.Is(err, validation.ErrSheetNotFound):
		NotFound(w, "Sheet not found")
	case errors.Is(err, validation.ErrRunNotFound):
		NotFound(w, "Validation run not found")
	case errors.Is(err, validation.ErrRunStoreDisabled):
		ServiceUnavailable(w, "Run history is not configured")
	case errors.Is(err, validation.ErrAnnotationDisabled):
		ServiceUnavailable(w, "Annotated workbook storage is not configured")
	case errors.Is(err, validation.ErrInvalidLayout):
		InternalServerError(w, "Grid layout is misconfigured")

	// Storage errors
	case errors.Is(err, storage.ErrFileNotFound):
		NotFound(w, "File not found")
	case errors.Is(err, storage.ErrInvalidPath):
		BadRequest(w, "Invalid file path", nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
