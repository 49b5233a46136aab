package state

// UserState is the step a user is at in a multi-message dialog
type UserState string

const (
	StateNone UserState = ""

	// Tenant sends the payment proof link for a bill
	StateAwaitingPaymentProof UserState = "awaiting_payment_proof"
	// Tenant sends the move-out date
	StateAwaitingEndDate UserState = "awaiting_end_date"
	// Tenant picks a viewing slot for a property
	StateChoosingSlot UserState = "choosing_slot"
)

// Data keys
const (
	KeyBillID      = "bill_id"
	KeyOccupancyID = "occupancy_id"
	KeyPropertyID  = "property_id"
)

// UserData holds the dialog state and its scratch values
type UserData struct {
	State UserState
	Data  map[string]int64
}
