package model

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type OccupancyStatus string

const (
	OccupancyStatusActive     OccupancyStatus = "active"
	OccupancyStatusPendingEnd OccupancyStatus = "pending_end"
	OccupancyStatusEnded      OccupancyStatus = "ended"
)

type RenewalStatus string

const (
	RenewalStatusNone     RenewalStatus = "none" // Also where an approved renewal ends up
	RenewalStatusPending  RenewalStatus = "pending"
	RenewalStatusRejected RenewalStatus = "rejected"
)

// MinLeaseMonths is the shortest contract a landlord may sign
const MinLeaseMonths = 3

// Occupancy is a lease: one tenant renting one property for a contract period
type Occupancy struct {
	ID                  int64           `json:"id"`
	PropertyID          int64           `json:"property_id"`
	TenantID            int64           `json:"tenant_id"`
	LandlordID          int64           `json:"landlord_id"`
	Status              OccupancyStatus `json:"status"`
	StartDate           civil.Date      `json:"start_date"`
	ContractEndDate     civil.Date      `json:"contract_end_date"`
	EndDate             *civil.Date     `json:"end_date,omitempty"`
	EndRequestDate      *civil.Date     `json:"end_request_date,omitempty"`
	EndReason           string          `json:"end_reason"`
	SecurityDeposit     decimal.Decimal `json:"security_deposit"`
	SecurityDepositUsed decimal.Decimal `json:"security_deposit_used"`
	LateFee             decimal.Decimal `json:"late_fee"`
	WifiDueDay          int             `json:"wifi_due_day"`
	RenewalRequested    bool            `json:"renewal_requested"`
	RenewalStatus       RenewalStatus   `json:"renewal_status"`
	RenewalMeetingDate  *civil.Date     `json:"renewal_meeting_date,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// IsActive checks if the tenant still lives in the property under this lease
func (o *Occupancy) IsActive() bool {
	return o.Status == OccupancyStatusActive
}

// AvailableDeposit is what is left of the security deposit
func (o *Occupancy) AvailableDeposit() decimal.Decimal {
	left := o.SecurityDeposit.Sub(o.SecurityDepositUsed)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// UseDeposit consumes amount from the deposit; the used total never decreases
func (o *Occupancy) UseDeposit(amount decimal.Decimal) {
	if amount.IsPositive() {
		o.SecurityDepositUsed = o.SecurityDepositUsed.Add(amount)
	}
}

// RenewalActive reports whether a renewal request is still open
func (o *Occupancy) RenewalActive() bool {
	return o.RenewalRequested || o.RenewalStatus == RenewalStatusPending
}

// DaysUntilContractEnd counts calendar days from today to the contract end
func (o *Occupancy) DaysUntilContractEnd(today civil.Date) int {
	return o.ContractEndDate.DaysSince(today)
}
