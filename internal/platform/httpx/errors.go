// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/campuswatch/campuswatch/internal/shared"
)

// ErrValidation marks malformed or invalid request payloads.
var ErrValidation = errors.New("validation failed")

// TransitionError is implemented by state-machine rejections so that httpx can
// classify them without importing the reports package.
type TransitionError interface {
	error
	InvalidTransition() (from, event string)
}

// RespondError maps the core error taxonomy 1:1 onto 4xx RFC7807 responses.
// Unexpected errors surface as 500 without leaking detail.
func RespondError(w http.ResponseWriter, err error) {
	var forbidden *shared.ForbiddenError
	var notFound *shared.NotFoundError
	var transition TransitionError
	switch {
	case errors.As(err, &forbidden):
		Problem(w, http.StatusForbidden, "Forbidden", forbidden.Error())
	case errors.As(err, &notFound):
		Problem(w, http.StatusNotFound, "Not Found", notFound.Error())
	case errors.As(err, &transition):
		Problem(w, http.StatusConflict, "Invalid Transition", transition.Error())
	case errors.Is(err, shared.ErrNoOpAssignment),
		errors.Is(err, shared.ErrReportAlreadyResolved),
		errors.Is(err, shared.ErrReportNotOpen),
		errors.Is(err, shared.ErrConcurrentModification):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrEmptySummary):
		Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
