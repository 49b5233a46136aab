package handlers

import (
	"context"
	"strings"

	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Callback data prefixes, each followed by an entity id
const (
	BookSlot        = "book_slot:"        // book_slot:slot_id, property from the dialog state
	CancelBooking   = "cancel_booking:"   // cancel_booking:booking_id
	ApproveBooking  = "approve_booking:"  // approve_booking:booking_id
	RejectBooking   = "reject_booking:"   // reject_booking:booking_id
	CompleteBooking = "complete_booking:" // complete_booking:booking_id

	PayBill    = "pay_bill:"    // pay_bill:bill_id
	VerifyBill = "verify_bill:" // verify_bill:bill_id
	RejectBill = "reject_bill:" // reject_bill:bill_id
	CancelBill = "cancel_bill:" // cancel_bill:bill_id

	RenewLease = "renew_lease:" // renew_lease:occupancy_id
	EndLease   = "end_lease:"   // end_lease:occupancy_id
)

// callbackAction performs the action and returns the short confirmation shown to the user
type callbackAction func(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, user *model.User, id int64) (string, error)

type route struct {
	prefix   string
	landlord bool
	action   callbackAction
}

func (h *Handlers) routes() []route {
	return []route{
		{BookSlot, false, h.onBookSlot},
		{CancelBooking, false, h.onCancelBooking},
		{PayBill, false, h.onPayBill},
		{RenewLease, false, h.onRenewLease},
		{EndLease, false, h.onEndLease},
		{ApproveBooking, true, h.onApproveBooking},
		{RejectBooking, true, h.onRejectBooking},
		{CompleteBooking, true, h.onCompleteBooking},
		{VerifyBill, true, h.onVerifyBill},
		{RejectBill, true, h.onRejectBill},
		{CancelBill, true, h.onCancelBill},
	}
}

// HandleCallbackQuery dispatches inline button presses by prefix
func (h *Handlers) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	for _, r := range h.routes() {
		if !strings.HasPrefix(cq.Data, r.prefix) {
			continue
		}

		id, err := parseCallbackID(cq.Data, r.prefix)
		if err != nil {
			h.answer(ctx, b, cq.ID, "❌ Invalid button", true)
			return
		}

		user, err := h.userService.GetByTelegramID(ctx, cq.From.ID)
		if err != nil || user == nil {
			h.answer(ctx, b, cq.ID, "❌ Send /start first", true)
			return
		}
		if r.landlord && !user.IsLandlord() {
			h.answer(ctx, b, cq.ID, "❌ This action is for landlords", true)
			return
		}

		text, err := r.action(ctx, b, cq, user, id)
		if err != nil {
			h.logger.Warn("Callback action failed",
				zap.String("data", cq.Data),
				zap.Int64("user_id", user.ID),
				zap.Error(err),
			)
			h.answer(ctx, b, cq.ID, ErrorMessage(err), true)
			return
		}

		h.logger.Info("Callback handled", zap.String("data", cq.Data), zap.Int64("user_id", user.ID))
		h.answer(ctx, b, cq.ID, text, false)
		if msg := cq.Message.Message; msg != nil {
			h.sendMessage(ctx, b, msg.Chat.ID, "✅ "+text)
		}
		return
	}

	h.logger.Warn("Unknown callback", zap.String("data", cq.Data))
	h.answer(ctx, b, cq.ID, "❌ Unknown action", true)
}
