package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/tenancy_scheduler/internal/controller/keyboard"
	"github.com/Freeeeeet/tenancy_scheduler/internal/controller/state"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleBook lists the free viewing slots for a property: /book <property id>
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	propertyID, err := commandArg(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "Usage: /book <property id>")
		return
	}

	property, slots, err := h.bookingService.AvailableSlots(ctx, propertyID, service.DefaultSlotHorizonDays)
	if err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}
	if len(slots) == 0 {
		h.sendMessage(ctx, b, chatID, fmt.Sprintf("📭 No free viewing slots for %s in the next %s.",
			property.Title, formatting.FormatDays(service.DefaultSlotHorizonDays)))
		return
	}

	kb := keyboard.NewBuilder()
	for _, slot := range slots {
		label := fmt.Sprintf("#%d · %s", slot.ID, formatting.FormatTimeRange(slot.StartTime, slot.EndTime, h.loc))
		kb.Row(keyboard.ActionButton(label, BookSlot, slot.ID))
	}
	h.stateManager.Begin(user.TelegramID, state.StateChoosingSlot, map[string]int64{state.KeyPropertyID: property.ID})
	h.send(ctx, b, chatID, fmt.Sprintf("🏠 %s · %s/month\n\nPick a viewing time:",
		property.Title, formatting.FormatMoneyShort(property.RentAmount)), kb.Build())
}

// HandleMyBookings shows the tenant dashboard: live bookings first, then accepted applications
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	entries, err := h.bookingService.TenantDashboard(ctx, user.ID)
	if err != nil {
		h.logger.Error("Failed to load tenant dashboard", zap.Int64("tenant_id", user.ID), zap.Error(err))
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}
	if len(entries) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 You have no viewings or accepted applications yet.")
		return
	}

	for _, e := range entries {
		kb := keyboard.NewBuilder()
		if e.Booking != nil && e.Booking.Status.IsActive() {
			kb.Row(keyboard.ActionButton("❌ Cancel viewing", CancelBooking, e.Booking.ID))
		}
		h.send(ctx, b, chatID, formatting.FormatDashboardEntry(e, h.loc), kb.Build())
	}
}

// HandleMyLease shows the active lease with its derived next due date
func (h *Handlers) HandleMyLease(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	occ, err := h.leaseService.ActiveLease(ctx, user.ID)
	if err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}
	if occ == nil {
		h.sendMessage(ctx, b, chatID, "🏠 You have no active lease.")
		return
	}

	next, err := h.leaseService.NextDueDate(ctx, occ.ID)
	if err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}

	kb := keyboard.NewBuilder()
	if occ.IsActive() {
		if !occ.RenewalActive() {
			kb.Row(keyboard.ActionButton("📝 Request renewal", RenewLease, occ.ID))
		}
		kb.Row(keyboard.ActionButton("📦 Request move-out", EndLease, occ.ID))
	}
	h.send(ctx, b, chatID, formatting.FormatLease(occ, next, h.today()), kb.Build())
}

// HandleMyBills lists the tenant's bills, newest first
func (h *Handlers) HandleMyBills(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	bills, err := h.billService.TenantBills(ctx, user.ID)
	if err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}
	if len(bills) == 0 {
		h.sendMessage(ctx, b, chatID, "🧾 You have no bills.")
		return
	}

	for _, bill := range bills {
		kb := keyboard.NewBuilder()
		if bill.Status == model.BillStatusPending {
			kb.Row(keyboard.ActionButton("💳 Submit payment", PayBill, bill.ID))
		}
		h.send(ctx, b, chatID, formatting.FormatBill(bill), kb.Build())
	}
}

// HandleReschedule moves a live viewing to another slot: /reschedule <booking id> <slot id>
func (h *Handlers) HandleReschedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	fields := strings.Fields(update.Message.Text)
	if len(fields) != 3 {
		h.sendMessage(ctx, b, chatID, "Usage: /reschedule <booking id> <slot id>")
		return
	}
	bookingID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Booking id must be a number")
		return
	}
	slotID, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Slot id must be a number")
		return
	}

	booking, err := h.bookingService.Reschedule(ctx, user.ID, bookingID, slotID)
	if err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("🔁 Viewing moved to %s. The landlord will confirm it again.",
		formatting.FormatTimeRange(booking.Slot.StartTime, booking.Slot.EndTime, h.loc)))
}

func (h *Handlers) onBookSlot(ctx context.Context, _ *bot.Bot, _ *models.CallbackQuery, user *model.User, id int64) (string, error) {
	if h.stateManager.GetState(user.TelegramID) != state.StateChoosingSlot {
		return "", apperr.Validation("open the property again with /book")
	}
	propertyID, ok := h.stateManager.GetData(user.TelegramID, state.KeyPropertyID)
	if !ok {
		return "", apperr.Validation("open the property again with /book")
	}

	if _, err := h.bookingService.CreateBooking(ctx, user.ID, propertyID, id, ""); err != nil {
		return "", err
	}
	h.stateManager.ClearState(user.TelegramID)
	return "Viewing requested, the landlord will confirm it", nil
}

func (h *Handlers) onCancelBooking(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, user *model.User, id int64) (string, error) {
	booking, err := h.bookingService.Cancel(ctx, user.ID, id)
	if err != nil {
		return "", err
	}
	h.logger.Info("Booking cancelled from chat", zap.Int64("booking_id", booking.ID))
	return "Viewing cancelled", nil
}

func (h *Handlers) onPayBill(_ context.Context, _ *bot.Bot, _ *models.CallbackQuery, user *model.User, id int64) (string, error) {
	h.stateManager.Begin(user.TelegramID, state.StateAwaitingPaymentProof, map[string]int64{state.KeyBillID: id})
	return "Send the payment proof link or a photo of the receipt", nil
}

func (h *Handlers) onRenewLease(ctx context.Context, _ *bot.Bot, _ *models.CallbackQuery, user *model.User, id int64) (string, error) {
	if _, err := h.leaseService.RequestRenewal(ctx, user.ID, id, civil.Date{}); err != nil {
		return "", err
	}
	return "Renewal requested", nil
}

func (h *Handlers) onEndLease(ctx context.Context, _ *bot.Bot, _ *models.CallbackQuery, user *model.User, id int64) (string, error) {
	occ, err := h.leaseService.GetOccupancy(ctx, id)
	if err != nil {
		return "", err
	}
	if occ.TenantID != user.ID {
		return "", apperr.Forbidden("occupancy %d belongs to another tenant", id)
	}
	h.stateManager.Begin(user.TelegramID, state.StateAwaitingEndDate, map[string]int64{state.KeyOccupancyID: id})
	return "Send your move-out date as YYYY-MM-DD", nil
}

func (h *Handlers) today() civil.Date {
	return civil.DateOf(h.now().In(h.loc))
}
