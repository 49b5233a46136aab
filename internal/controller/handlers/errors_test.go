package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"slot taken", fmt.Errorf("reserve: %w", apperr.ErrSlotTaken), "slot was just taken"},
		{"limit", apperr.ErrLimitExceeded, "already have an active viewing"},
		{"window", apperr.ErrWindowClosed, "12 hours"},
		{"already run", apperr.ErrAlreadyRun, "already ran"},
		{"too early", apperr.ErrTooEarly, "morning hour"},
		{"validation", apperr.Validation("months must be at least 12"), "❌ months must be at least 12"},
		{"conflict", apperr.Conflict("bill 3 is paid"), "❌ bill 3 is paid"},
		{"not found", apperr.NotFound("bill", 3), "Not found"},
		{"forbidden", apperr.Forbidden("bill 3 belongs to another tenant"), "can't do that"},
		{"persistence", apperr.Persistence("get bill", errors.New("conn reset")), "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, ErrorMessage(tt.err), tt.want)
		})
	}
}

func TestCommandArg(t *testing.T) {
	id, err := commandArg("/bill 42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, text := range []string{"/bill", "/bill 1 2", "/bill x"} {
		_, err := commandArg(text)
		assert.Error(t, err, text)
	}
}

func TestParseCallbackID(t *testing.T) {
	id, err := parseCallbackID("approve_booking:12", ApproveBooking)
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = parseCallbackID("reject_booking:12", ApproveBooking)
	assert.Error(t, err)
	_, err = parseCallbackID("approve_booking:", ApproveBooking)
	assert.Error(t, err)
}
