package model

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Waiting for the landlord
	BookingStatusApproved  BookingStatus = "approved"  // Landlord confirmed the viewing
	BookingStatusCompleted BookingStatus = "completed" // Viewing took place
	BookingStatusRejected  BookingStatus = "rejected"  // Landlord declined, slot re-opened
	BookingStatusCancelled BookingStatus = "cancelled" // Tenant withdrew, slot re-opened
)

// ParseBookingStatus maps every spelling seen at the boundary onto the canonical status
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "pending_approval":
		return BookingStatusPending, nil
	case "approved", "accepted", "confirmed":
		return BookingStatusApproved, nil
	case "completed":
		return BookingStatusCompleted, nil
	case "rejected":
		return BookingStatusRejected, nil
	case "cancelled", "canceled":
		return BookingStatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown booking status %q", s)
	}
}

// IsActive reports whether the status still holds a slot and counts against the tenant limit
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusApproved
}

// IsTerminal reports whether no further transitions are possible
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusRejected || s == BookingStatusCancelled
}

// ActiveBookingStatuses lists statuses that count against the single-booking rule
func ActiveBookingStatuses() []BookingStatus {
	return []BookingStatus{BookingStatusPending, BookingStatusApproved}
}

type Booking struct {
	ID          int64         `json:"id"`
	TenantID    int64         `json:"tenant_id"`
	LandlordID  int64         `json:"landlord_id"`
	PropertyID  int64         `json:"property_id"`
	TimeSlotID  int64         `json:"time_slot_id"`
	Status      BookingStatus `json:"status"`
	Notes       string        `json:"notes"`
	BookingDate time.Time     `json:"booking_date"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Filled by the coordinator for notifications and dashboards, not stored
	Slot *TimeSlot `json:"slot,omitempty"`
}
