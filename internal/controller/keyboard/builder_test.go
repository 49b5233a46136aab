package keyboard

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	assert.Nil(t, NewBuilder().Row().Build())

	markup := NewBuilder().
		Row(ActionButton("Approve", "approve_booking:", 12), ActionButton("Reject", "reject_booking:", 12)).
		Row().
		Row(Button("Back", "back")).
		Build()

	kb, ok := markup.(*models.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "approve_booking:12", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "reject_booking:12", kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "Back", kb.InlineKeyboard[1][0].Text)
}
