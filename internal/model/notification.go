package model

type NotificationType string

const (
	NotificationNewBooking             NotificationType = "new_booking"
	NotificationBookingApproved        NotificationType = "booking_approved"
	NotificationBookingRejected        NotificationType = "booking_rejected"
	NotificationBookingCancelled       NotificationType = "booking_cancelled"
	NotificationOccupancyAssigned      NotificationType = "occupancy_assigned"
	NotificationOccupancyEndRequested  NotificationType = "occupancy_end_requested"
	NotificationOccupancyEnded         NotificationType = "occupancy_ended"
	NotificationRenewalRequest         NotificationType = "contract_renewal_request"
	NotificationRenewalApproved        NotificationType = "contract_renewal_approved"
	NotificationRenewalRejected        NotificationType = "contract_renewal_rejected"
	NotificationPaymentSubmitted       NotificationType = "payment_submitted"
	NotificationPaymentVerified        NotificationType = "payment_verified"
	NotificationPaymentRejected        NotificationType = "payment_rejected"
	NotificationPaymentLateFee         NotificationType = "payment_late_fee"
	NotificationDepositDeduction       NotificationType = "security_deposit_deduction"
	NotificationLastMonthDeposit       NotificationType = "last_month_deposit"
	NotificationWaterDueReminder       NotificationType = "water_due_reminder"
	NotificationElectricityDueReminder NotificationType = "electricity_due_reminder"
)

// Notification is a message for the delivery sink; delivery itself happens elsewhere
type Notification struct {
	RecipientID int64             `json:"recipient_id"`
	Type        NotificationType  `json:"type"`
	Message     string            `json:"message"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}
