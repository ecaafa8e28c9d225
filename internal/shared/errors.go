package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOpAssignment indicates reassignment to the staff member already holding the report.
	ErrNoOpAssignment = errors.New("assignment would not change the current assignee")
	// ErrReportAlreadyResolved indicates an unassign attempt against a report with a live resolution.
	ErrReportAlreadyResolved = errors.New("report already has a live resolution")
	// ErrReportNotOpen indicates a resolution attempt against a report that is not in progress.
	ErrReportNotOpen = errors.New("report is not open for resolution")
	// ErrEmptySummary indicates a resolution submitted without a summary.
	ErrEmptySummary = errors.New("resolution summary must not be empty")
	// ErrConcurrentModification indicates an optimistic-lock conflict; callers may re-fetch and retry once.
	ErrConcurrentModification = errors.New("record changed concurrently")
	// ErrValidation marks input rejected by domain validation. Module sentinels wrap it.
	ErrValidation = errors.New("invalid input")
)

// ForbiddenError is returned when the role hierarchy denies an action.
type ForbiddenError struct {
	Action   string
	Required string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s requires %s", e.Action, e.Required)
}

// NotFoundError identifies a missing record by entity and id.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// UserSafeMessage returns a message suitable for API consumers, hiding
// internal detail for unexpected errors.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsNotFound(err),
		errors.Is(err, ErrNoOpAssignment),
		errors.Is(err, ErrReportAlreadyResolved),
		errors.Is(err, ErrReportNotOpen),
		errors.Is(err, ErrEmptySummary),
		errors.Is(err, ErrConcurrentModification),
		errors.Is(err, ErrValidation):
		return err.Error()
	}
	var forbidden *ForbiddenError
	if errors.As(err, &forbidden) {
		return forbidden.Error()
	}
	return "request could not be processed"
}
