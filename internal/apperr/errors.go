package apperr

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by a service operation wraps exactly one of them.
var (
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrPersistence = errors.New("persistence error")
)

// Conflicts the caller may retry with different parameters
var (
	ErrSlotTaken     = fmt.Errorf("%w: slot already booked", ErrConflict)
	ErrLimitExceeded = fmt.Errorf("%w: tenant already has an active booking", ErrConflict)
	ErrWindowClosed  = fmt.Errorf("%w: modification window closed", ErrConflict)
	ErrAlreadyRun    = fmt.Errorf("%w: automation already ran today", ErrConflict)
	ErrTooEarly      = fmt.Errorf("%w: automation hour not reached", ErrConflict)
	ErrDuplicate     = fmt.Errorf("%w: duplicate record", ErrConflict)
)

// Validation returns a validation error with a human readable reason
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflict returns a conflict error with a human readable reason
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// NotFound returns a not-found error for the named entity
func NotFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
}

// Forbidden returns an authorization error with a reason
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Persistence wraps a backing-store failure. Domain errors pass through untouched
// so callers can still match them with errors.Is.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// IsDomain reports whether err already belongs to one of the categories.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrPersistence)
}

// Kind returns the category name of err, "internal" for uncategorised errors.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}
