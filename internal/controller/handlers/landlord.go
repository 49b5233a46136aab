package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/tenancy_scheduler/internal/controller/keyboard"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HandleRequests shows the landlord dashboard with actions for live bookings
func (h *Handlers) HandleRequests(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLandlord(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	entries, err := h.bookingService.LandlordDashboard(ctx, user.ID)
	if err != nil {
		h.logger.Error("Failed to load landlord dashboard", zap.Int64("landlord_id", user.ID), zap.Error(err))
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}
	if len(entries) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 No viewing requests yet.")
		return
	}

	for _, e := range entries {
		kb := keyboard.NewBuilder()
		if e.Booking != nil {
			switch e.Booking.Status {
			case model.BookingStatusPending:
				kb.Row(
					keyboard.ActionButton("✅ Approve", ApproveBooking, e.Booking.ID),
					keyboard.ActionButton("🚫 Reject", RejectBooking, e.Booking.ID),
				)
			case model.BookingStatusApproved:
				kb.Row(keyboard.ActionButton("✔️ Viewing done", CompleteBooking, e.Booking.ID))
			}
		}
		text := formatting.FormatDashboardEntry(e, h.loc) + fmt.Sprintf("\n👤 Tenant #%d", e.TenantID)
		h.send(ctx, b, chatID, text, kb.Build())
	}
}

// HandleBill shows one bill to its landlord, with verify buttons when a proof waits
func (h *Handlers) HandleBill(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLandlord(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	billID, err := commandArg(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "Usage: /bill <id>")
		return
	}
	bill, err := h.billService.GetBill(ctx, billID)
	if err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}
	if bill.LandlordID != user.ID {
		h.sendMessage(ctx, b, chatID, "❌ You can't do that.")
		return
	}

	text := formatting.FormatBill(bill)
	kb := keyboard.NewBuilder()
	switch bill.Status {
	case model.BillStatusPendingConfirmation:
		text += fmt.Sprintf("\n\n💳 Paid %s via %s\n%s", formatting.FormatMoney(bill.AmountPaid), bill.PaymentMethod, bill.ProofURL)
		kb.Row(
			keyboard.ActionButton("✅ Confirm payment", VerifyBill, bill.ID),
			keyboard.ActionButton("🚫 Reject proof", RejectBill, bill.ID),
		)
	case model.BillStatusPending:
		kb.Row(keyboard.ActionButton("⚫️ Cancel bill", CancelBill, bill.ID))
	case model.BillStatusPaid:
		if bill.PaidAt != nil {
			text += "\n\n✅ Paid " + formatting.FormatDateTime(*bill.PaidAt, h.loc)
		}
	}
	h.send(ctx, b, chatID, text, kb.Build())
}

// HandleApproveEnd approves a tenant's move-out request: /approveend <lease id>
func (h *Handlers) HandleApproveEnd(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLandlord(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	occupancyID, err := commandArg(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "Usage: /approveend <lease id>")
		return
	}

	occ, err := h.leaseService.ApproveEnd(ctx, user.ID, occupancyID)
	if err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("🔑 Lease #%d ends on %s. The property is available again.",
		occ.ID, formatting.FormatDate(*occ.EndDate)))
}

// HandleAddSlots publishes viewing slots for a day: /addslots 2025-06-03 [AM1 PM2 ...]
// Without shapes all four daily windows are created.
func (h *Handlers) HandleAddSlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLandlord(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	requests, err := parseSlotRequests(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "Usage: /addslots YYYY-MM-DD [AM1 AM2 PM1 PM2]\n\n"+err.Error())
		return
	}

	slots, err := h.slotService.CreateSlots(ctx, user.ID, requests)
	if err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}

	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		lines = append(lines, fmt.Sprintf("• #%d %s", slot.ID, formatting.FormatTimeRange(slot.StartTime, slot.EndTime, h.loc)))
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("🗓 %d viewing slots published:\n%s", len(slots), strings.Join(lines, "\n")))
}

func parseSlotRequests(text string) ([]model.SlotRequest, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil, fmt.Errorf("date is missing")
	}
	date, err := civil.ParseDate(fields[1])
	if err != nil {
		return nil, fmt.Errorf("bad date %q", fields[1])
	}

	shapes := model.AllSlotShapes()
	if len(fields) > 2 {
		shapes = nil
		for _, raw := range fields[2:] {
			shape, err := model.ParseSlotShape(raw)
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, shape)
		}
	}

	requests := make([]model.SlotRequest, 0, len(shapes))
	for _, shape := range shapes {
		requests = append(requests, model.SlotRequest{Date: date, Shape: shape})
	}
	return requests, nil
}

// HandleRenewal resolves a renewal request:
// /renewal <lease id> YYYY-MM-DD approves with the new contract end, /renewal <lease id> reject declines.
func (h *Handlers) HandleRenewal(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLandlord(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	fields := strings.Fields(update.Message.Text)
	if len(fields) != 3 {
		h.sendMessage(ctx, b, chatID, "Usage: /renewal <lease id> <new end YYYY-MM-DD | reject>")
		return
	}
	occupancyID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Lease id must be a number")
		return
	}

	req := service.ResolveRenewalRequest{
		LandlordID:  user.ID,
		OccupancyID: occupancyID,
		SigningDate: h.today(),
	}
	if !strings.EqualFold(fields[2], "reject") {
		req.Approve = true
		req.NewEndDate, err = civil.ParseDate(fields[2])
		if err != nil {
			h.sendMessage(ctx, b, chatID, "❌ Please send the new end date as YYYY-MM-DD")
			return
		}
	}

	occ, bill, err := h.leaseService.ResolveRenewal(ctx, req)
	if err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}
	if !req.Approve {
		h.sendMessage(ctx, b, chatID, fmt.Sprintf("🚫 Renewal for lease #%d declined.", occ.ID))
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("📝 Lease #%d renewed until %s.\nRenewal bill #%d of %s is due %s.",
		occ.ID, formatting.FormatDate(occ.ContractEndDate),
		bill.ID, formatting.FormatMoney(bill.Total()), formatting.FormatDate(bill.DueDate)))
}

// HandleAssign moves a tenant into a property:
// /assign <property id> <tenant id> <YYYY-MM-DD> <months> [late fee] [wifi due day]
func (h *Handlers) HandleAssign(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLandlord(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	req, err := parseAssign(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "Usage: /assign <property id> <tenant id> <YYYY-MM-DD> <months> [late fee] [wifi due day]\n\n"+err.Error())
		return
	}
	req.LandlordID = user.ID

	occ, moveIn, err := h.leaseService.CreateOccupancy(ctx, req)
	if err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("🏠 Lease #%d: tenant #%d moves in on %s, contract until %s.\nMove-in bill #%d of %s is due %s.",
		occ.ID, occ.TenantID, formatting.FormatDate(occ.StartDate), formatting.FormatDate(occ.ContractEndDate),
		moveIn.ID, formatting.FormatMoney(moveIn.Total()), formatting.FormatDate(moveIn.DueDate)))
}

func parseAssign(text string) (service.CreateOccupancyRequest, error) {
	var req service.CreateOccupancyRequest
	fields := strings.Fields(text)
	if len(fields) < 5 || len(fields) > 7 {
		return req, fmt.Errorf("expected 4 to 6 arguments")
	}

	var err error
	if req.PropertyID, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
		return req, fmt.Errorf("bad property id %q", fields[1])
	}
	if req.TenantID, err = strconv.ParseInt(fields[2], 10, 64); err != nil {
		return req, fmt.Errorf("bad tenant id %q", fields[2])
	}
	if req.StartDate, err = civil.ParseDate(fields[3]); err != nil {
		return req, fmt.Errorf("bad start date %q", fields[3])
	}
	if req.Months, err = strconv.Atoi(fields[4]); err != nil {
		return req, fmt.Errorf("bad months %q", fields[4])
	}
	if len(fields) > 5 {
		if req.LateFee, err = decimal.NewFromString(fields[5]); err != nil {
			return req, fmt.Errorf("bad late fee %q", fields[5])
		}
	}
	if len(fields) > 6 {
		if req.WifiDueDay, err = strconv.Atoi(fields[6]); err != nil {
			return req, fmt.Errorf("bad wifi due day %q", fields[6])
		}
	}
	return req, nil
}

// HandleEndLease ends a lease on the landlord's side: /endlease <lease id> <YYYY-MM-DD> [reason]
func (h *Handlers) HandleEndLease(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLandlord(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	fields := strings.Fields(update.Message.Text)
	if len(fields) < 3 {
		h.sendMessage(ctx, b, chatID, "Usage: /endlease <lease id> <YYYY-MM-DD> [reason]")
		return
	}
	occupancyID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Lease id must be a number")
		return
	}
	date, err := civil.ParseDate(fields[2])
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Please send the end date as YYYY-MM-DD")
		return
	}
	reason := strings.Join(fields[3:], " ")
	if reason == "" {
		reason = "ended by landlord"
	}

	occ, err := h.leaseService.EndWithDate(ctx, user.ID, occupancyID, date, reason)
	if err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("🔑 Lease #%d ends on %s. The property is available again.",
		occ.ID, formatting.FormatDate(*occ.EndDate)))
}

// HandleDeleteSlot withdraws a free viewing slot: /delslot <slot id>
func (h *Handlers) HandleDeleteSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLandlord(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	slotID, err := commandArg(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "Usage: /delslot <slot id>")
		return
	}
	if err := h.slotService.DeleteSlot(ctx, user.ID, slotID); err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("🗑 Slot #%d deleted.", slotID))
}

// HandleStatus shows how notifications are delivered and whether the queue is reachable
func (h *Handlers) HandleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireLandlord(ctx, b, update); !ok {
		return
	}

	delivery := "sent directly"
	if h.queueHealth != nil {
		delivery = "queued, Redis reachable ✅"
		if !h.queueHealth.Healthy() {
			delivery = "queued, Redis unreachable ⚠️ (deliveries wait for retry)"
		}
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf("🩺 Status\n\nNotifications: %s\nServer time: %s",
		delivery, formatting.FormatDateTime(h.now(), h.loc)))
}

// HandleRunDaily runs today's automation for the calling landlord
func (h *Handlers) HandleRunDaily(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLandlord(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	report, err := h.runner.RunForLandlord(ctx, user.ID)
	if err != nil {
		h.sendMessage(ctx, b, chatID, ErrorMessage(err))
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf(
		"🤖 Daily run for %s\n\n"+
			"Leases checked: %d\n"+
			"Reminders sent: %d\n"+
			"Late fees applied: %d\n"+
			"Deducted from deposits: %s\n"+
			"Last month bills: %d",
		formatting.FormatDate(report.Day),
		report.Occupancies,
		report.Reminders,
		report.LateFees,
		formatting.FormatMoney(report.DepositDeducted),
		report.LastMonthBills,
	))
}

func (h *Handlers) onApproveBooking(ctx context.Context, _ *bot.Bot, _ *models.CallbackQuery, user *model.User, id int64) (string, error) {
	if _, err := h.bookingService.Approve(ctx, user.ID, id); err != nil {
		return "", err
	}
	return "Viewing approved", nil
}

func (h *Handlers) onRejectBooking(ctx context.Context, _ *bot.Bot, _ *models.CallbackQuery, user *model.User, id int64) (string, error) {
	if _, err := h.bookingService.Reject(ctx, user.ID, id); err != nil {
		return "", err
	}
	return "Viewing rejected, the slot is free again", nil
}

func (h *Handlers) onCompleteBooking(ctx context.Context, _ *bot.Bot, _ *models.CallbackQuery, user *model.User, id int64) (string, error) {
	if _, err := h.bookingService.Complete(ctx, user.ID, id); err != nil {
		return "", err
	}
	return "Viewing marked as done", nil
}

func (h *Handlers) onVerifyBill(ctx context.Context, _ *bot.Bot, _ *models.CallbackQuery, user *model.User, id int64) (string, error) {
	if _, err := h.billService.Verify(ctx, user.ID, id, true); err != nil {
		return "", err
	}
	return "Payment confirmed", nil
}

func (h *Handlers) onRejectBill(ctx context.Context, _ *bot.Bot, _ *models.CallbackQuery, user *model.User, id int64) (string, error) {
	if _, err := h.billService.Verify(ctx, user.ID, id, false); err != nil {
		return "", err
	}
	return "Payment proof rejected", nil
}

func (h *Handlers) onCancelBill(ctx context.Context, _ *bot.Bot, _ *models.CallbackQuery, user *model.User, id int64) (string, error) {
	if _, err := h.billService.Cancel(ctx, user.ID, id); err != nil {
		return "", err
	}
	return "Bill cancelled", nil
}
