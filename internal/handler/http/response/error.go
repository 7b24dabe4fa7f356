package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Workflow error kinds
	case errors.Is(err, absence.ErrValidation):
		ValidationFailed(w, err.Error(), nil)
	case errors.Is(err, absence.ErrUnauthorized):
		Unauthorized(w, err.Error())
	case errors.Is(err, absence.ErrForbidden):
		Forbidden(w, err.Error())
	case errors.Is(err, absence.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, absence.ErrConflict):
		Conflict(w, err.Error())

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserEmailExists):
		Conflict(w, "Email already registered")

	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
