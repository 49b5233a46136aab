package formatting

import "github.com/Freeeeeet/tenancy_scheduler/internal/model"

// StatusDisplay is the emoji and label shown for a status
type StatusDisplay struct {
	Emoji string
	Text  string
}

func (d StatusDisplay) String() string {
	return d.Emoji + " " + d.Text
}

var unknownStatus = StatusDisplay{"❓", "Unknown"}

// BookingStatus returns the display for a booking status or the ready_to_book row state
func BookingStatus(status string) StatusDisplay {
	displays := map[string]StatusDisplay{
		string(model.BookingStatusPending):   {"⏳", "Waiting for the landlord"},
		string(model.BookingStatusApproved):  {"✅", "Approved"},
		string(model.BookingStatusCompleted): {"✔️", "Viewing done"},
		string(model.BookingStatusCancelled): {"❌", "Cancelled"},
		string(model.BookingStatusRejected):  {"🚫", "Rejected"},
		"ready_to_book":                      {"🟢", "Ready to book"},
	}

	if display, ok := displays[status]; ok {
		return display
	}
	return unknownStatus
}

// BillStatus returns the display for a bill status
func BillStatus(status model.BillStatus) StatusDisplay {
	displays := map[model.BillStatus]StatusDisplay{
		model.BillStatusPending:             {"🧾", "Unpaid"},
		model.BillStatusPendingConfirmation: {"⏳", "Processing"},
		model.BillStatusPaid:                {"✅", "Paid"},
		model.BillStatusRejected:            {"🚫", "Rejected"},
		model.BillStatusCancelled:           {"⚫️", "Cancelled"},
	}

	if display, ok := displays[status]; ok {
		return display
	}
	return unknownStatus
}

// OccupancyStatus returns the display for a lease status
func OccupancyStatus(status model.OccupancyStatus) StatusDisplay {
	displays := map[model.OccupancyStatus]StatusDisplay{
		model.OccupancyStatusActive:     {"🏠", "Active"},
		model.OccupancyStatusPendingEnd: {"📦", "Move-out requested"},
		model.OccupancyStatusEnded:      {"🔑", "Ended"},
	}

	if display, ok := displays[status]; ok {
		return display
	}
	return unknownStatus
}
