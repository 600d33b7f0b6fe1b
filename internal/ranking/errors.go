package ranking

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError reports malformed or out-of-range input. It is always
// surfaced to the caller, never silently corrected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing period, component, batch or student.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ConflictError reports a state conflict such as a duplicate period or a
// component delete while scores still reference it.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// AlreadyPublishedError rejects a second publish of the same period.
type AlreadyPublishedError struct {
	PeriodID uuid.UUID
}

func (e *AlreadyPublishedError) Error() string {
	return fmt.Sprintf("period %s already published", e.PeriodID)
}

// ComputationError reports an internal inconsistency during a recompute.
// The recompute is abandoned and the prior snapshot stays untouched.
type ComputationError struct {
	Reason string
}

func (e *ComputationError) Error() string {
	return e.Reason
}
