package handlers

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleStart registers the user
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	user, err := h.userService.RegisterUser(ctx, from.ID, from.Username, from.FirstName, from.LastName)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Registration failed. Please try again later.")
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"👋 Hi, %s!\n\n"+
			"I keep track of your viewings, your lease and your bills.\n\n"+
			"%s",
		user.DisplayName(), helpText,
	))
}

const helpText = "Tenants:\n" +
	"/book <property id> - Book a viewing\n" +
	"/reschedule <booking id> <slot id> - Move a viewing\n" +
	"/mybookings - My viewings\n" +
	"/mylease - My lease and next due date\n" +
	"/mybills - My bills\n\n" +
	"Landlords:\n" +
	"/becomelandlord - Register as a landlord\n" +
	"/addslots <YYYY-MM-DD> [AM1 AM2 PM1 PM2] - Publish viewing slots\n" +
	"/delslot <slot id> - Withdraw a free slot\n" +
	"/requests - Viewing requests\n" +
	"/assign <property id> <tenant id> <YYYY-MM-DD> <months> [late fee] [wifi day] - Move a tenant in\n" +
	"/bill <id> - Review a payment\n" +
	"/approveend <lease id> - Approve a move-out\n" +
	"/endlease <lease id> <YYYY-MM-DD> [reason] - End a lease\n" +
	"/renewal <lease id> <YYYY-MM-DD|reject> - Answer a renewal request\n" +
	"/rundaily - Run today's reminders and late fees\n" +
	"/status - Notification delivery status\n\n" +
	"/cancel - Stop the current dialog"

func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, "📚 Commands:\n\n"+helpText)
}

// HandleCancel drops the current dialog
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Nothing to cancel.")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Cancelled.")
}

func (h *Handlers) HandleBecomeLandlord(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	user, err := h.userService.BecomeLandlord(ctx, update.Message.From.ID)
	if err != nil {
		h.logger.Error("Failed to become landlord", zap.Int64("telegram_id", update.Message.From.ID), zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, ErrorMessage(err))
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"🏠 %s, you are now a landlord.\n\nUse /requests to see viewing requests.", user.DisplayName()))
}

// HandleTextMessage continues the dialog the user is in
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	switch h.stateManager.GetState(telegramID) {
	case state.StateAwaitingPaymentProof:
		h.handlePaymentProof(ctx, b, update)
	case state.StateAwaitingEndDate:
		h.handleEndDate(ctx, b, update)
	default:
		h.logger.Debug("No active dialog, ignoring message", zap.Int64("telegram_id", telegramID))
	}
}

// handlePaymentProof takes a link or a photo as the payment proof
func (h *Handlers) handlePaymentProof(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	msg := update.Message
	billID, ok := h.stateManager.GetData(user.TelegramID, state.KeyBillID)
	if !ok {
		h.stateManager.ClearState(user.TelegramID)
		h.sendMessage(ctx, b, msg.Chat.ID, "❌ Please choose the bill again with /mybills")
		return
	}

	proof := strings.TrimSpace(msg.Text)
	method := "link"
	if len(msg.Photo) > 0 {
		proof = "tg-photo:" + msg.Photo[len(msg.Photo)-1].FileID
		method = "photo"
	}

	bill, err := h.billService.SubmitProof(ctx, user.ID, billID, proof, method, nil)
	if err != nil {
		h.logger.Warn("Payment proof rejected", zap.Int64("bill_id", billID), zap.Error(err))
		h.sendMessage(ctx, b, msg.Chat.ID, ErrorMessage(err))
		return
	}

	h.stateManager.ClearState(user.TelegramID)
	h.sendMessage(ctx, b, msg.Chat.ID, fmt.Sprintf(
		"✅ Payment proof for bill #%d sent. Your landlord will verify it.", bill.ID))
}

func (h *Handlers) handleEndDate(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	msg := update.Message
	occupancyID, ok := h.stateManager.GetData(user.TelegramID, state.KeyOccupancyID)
	if !ok {
		h.stateManager.ClearState(user.TelegramID)
		h.sendMessage(ctx, b, msg.Chat.ID, "❌ Please open your lease again with /mylease")
		return
	}

	date, err := civil.ParseDate(strings.TrimSpace(msg.Text))
	if err != nil {
		h.sendMessage(ctx, b, msg.Chat.ID, "❌ Please send the date as YYYY-MM-DD, e.g. 2025-08-31")
		return
	}

	if _, err := h.leaseService.RequestEnd(ctx, user.ID, occupancyID, date, "requested in chat"); err != nil {
		h.sendMessage(ctx, b, msg.Chat.ID, ErrorMessage(err))
		return
	}

	h.stateManager.ClearState(user.TelegramID)
	h.sendMessage(ctx, b, msg.Chat.ID, fmt.Sprintf("📦 Move-out on %s requested. Your landlord will confirm it.", date))
}
