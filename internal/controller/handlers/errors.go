package handlers

import (
	"errors"

	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
)

// ErrorMessage turns a service error into the text shown to the user
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrSlotTaken):
		return "❌ This viewing slot was just taken. Please pick another one."
	case errors.Is(err, apperr.ErrLimitExceeded):
		return "❌ You already have an active viewing. Cancel it before booking another one."
	case errors.Is(err, apperr.ErrWindowClosed):
		return "❌ Viewings can't be changed less than 12 hours before they start."
	case errors.Is(err, apperr.ErrAlreadyRun):
		return "ℹ️ Today's automation already ran."
	case errors.Is(err, apperr.ErrTooEarly):
		return "ℹ️ The daily automation runs after the configured morning hour."
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrConflict):
		return "❌ " + reason(err)
	case errors.Is(err, apperr.ErrNotFound):
		return "❌ Not found."
	case errors.Is(err, apperr.ErrForbidden):
		return "❌ You can't do that."
	default:
		return "❌ Something went wrong. Please try again later."
	}
}

// reason strips the category prefix from a domain error
func reason(err error) string {
	msg := err.Error()
	for _, category := range []error{apperr.ErrValidation, apperr.ErrConflict} {
		prefix := category.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
