package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireUser loads the registered user behind the message
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, ErrorMessage(err))
		return nil, false
	}
	if user == nil {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ You are not registered yet. Send /start first.")
		return nil, false
	}
	return user, true
}

// requireLandlord loads the user and checks the landlord role
func (h *Handlers) requireLandlord(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}
	if !user.IsLandlord() {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ This command is for landlords.\n\nBecome one with /becomelandlord")
		return nil, false
	}
	return user, true
}

// sendMessage sends text and logs delivery failures
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	h.send(ctx, b, chatID, text, nil)
}

func (h *Handlers) send(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (h *Handlers) answer(ctx context.Context, b *bot.Bot, callbackID, text string, alert bool) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

// commandArg parses the numeric argument of "/command 12"
func commandArg(text string) (int64, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, fmt.Errorf("expected one argument")
	}
	return strconv.ParseInt(fields[1], 10, 64)
}

// parseCallbackID extracts the id from callback data, e.g. "approve_booking:12" -> 12
func parseCallbackID(data, prefix string) (int64, error) {
	raw := strings.TrimPrefix(data, prefix)
	if raw == data {
		return 0, fmt.Errorf("callback %q has no prefix %q", data, prefix)
	}
	return strconv.ParseInt(raw, 10, 64)
}
