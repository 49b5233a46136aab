package notify

import "github.com/Freeeeeet/tenancy_scheduler/internal/model"

var typeEmoji = map[model.NotificationType]string{
	model.NotificationNewBooking:             "📅",
	model.NotificationBookingApproved:        "✅",
	model.NotificationBookingRejected:        "🚫",
	model.NotificationBookingCancelled:       "❌",
	model.NotificationOccupancyAssigned:      "🏠",
	model.NotificationOccupancyEndRequested:  "📦",
	model.NotificationOccupancyEnded:         "🔑",
	model.NotificationRenewalRequest:         "📝",
	model.NotificationRenewalApproved:        "✅",
	model.NotificationRenewalRejected:        "🚫",
	model.NotificationPaymentSubmitted:       "💳",
	model.NotificationPaymentVerified:        "✅",
	model.NotificationPaymentRejected:        "⚠️",
	model.NotificationPaymentLateFee:         "⏰",
	model.NotificationDepositDeduction:       "🏦",
	model.NotificationLastMonthDeposit:       "🏦",
	model.NotificationWaterDueReminder:       "💧",
	model.NotificationElectricityDueReminder: "⚡",
}

// Format renders the chat text of a notification
func Format(n model.Notification) string {
	emoji, ok := typeEmoji[n.Type]
	if !ok {
		emoji = "🔔"
	}
	return emoji + " " + n.Message
}
