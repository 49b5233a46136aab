// Package notify delivers service notifications. The services only see a Notifier;
// depending on configuration it logs, sends to Telegram directly, or goes through the
// asynq queue and is delivered by the worker.
package notify

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Notifier has the same shape as service.Notifier
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// UserLookup resolves a recipient to their Telegram chat
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// Sender is the part of *bot.Bot used for delivery
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// LogNotifier only writes notifications to the log
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, note model.Notification) error {
	n.logger.Info("Notification",
		zap.Int64("recipient_id", note.RecipientID),
		zap.String("type", string(note.Type)),
		zap.String("message", note.Message),
		zap.Any("metadata", note.Metadata),
	)
	return nil
}

// TelegramNotifier sends a notification as a chat message to the recipient
type TelegramNotifier struct {
	sender Sender
	users  UserLookup
	logger *zap.Logger
}

func NewTelegramNotifier(sender Sender, users UserLookup, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		users:  users,
		logger: logger,
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, note model.Notification) error {
	user, err := n.users.GetUser(ctx, note.RecipientID)
	if err != nil {
		return fmt.Errorf("get recipient: %w", err)
	}
	if user == nil {
		return fmt.Errorf("recipient %d not found", note.RecipientID)
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: user.TelegramID,
		Text:   Format(note),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	n.logger.Debug("Notification sent",
		zap.Int64("recipient_id", note.RecipientID),
		zap.Int64("telegram_id", user.TelegramID),
		zap.String("type", string(note.Type)),
	)
	return nil
}
