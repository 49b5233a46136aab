package keyboard

import (
	"fmt"

	"github.com/go-telegram/bot/models"
)

// Builder assembles inline keyboards row by row
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row appends a row; empty rows are skipped
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Button creates a callback button
func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// ActionButton creates a callback button carrying an entity id, e.g. "approve_booking:12"
func ActionButton(text, prefix string, id int64) models.InlineKeyboardButton {
	return Button(text, fmt.Sprintf("%s%d", prefix, id))
}

func (b *Builder) Empty() bool {
	return len(b.rows) == 0
}

// Build returns the markup, nil when no rows were added
func (b *Builder) Build() models.ReplyMarkup {
	if b.Empty() {
		return nil
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}
