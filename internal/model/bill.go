package model

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type BillStatus string

const (
	BillStatusPending             BillStatus = "pending"              // Waiting for the tenant to pay
	BillStatusPendingConfirmation BillStatus = "pending_confirmation" // Proof submitted, landlord verifies
	BillStatusPaid                BillStatus = "paid"
	BillStatusRejected            BillStatus = "rejected"
	BillStatusCancelled           BillStatus = "cancelled"
)

// ParseBillStatus maps boundary spellings onto the canonical status
func ParseBillStatus(s string) (BillStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "unpaid":
		return BillStatusPending, nil
	case "pending_confirmation", "processing":
		return BillStatusPendingConfirmation, nil
	case "paid":
		return BillStatusPaid, nil
	case "rejected":
		return BillStatusRejected, nil
	case "cancelled", "canceled":
		return BillStatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown bill status %q", s)
	}
}

// IsOpen reports whether the bill still waits for money or verification
func (s BillStatus) IsOpen() bool {
	return s == BillStatusPending || s == BillStatusPendingConfirmation
}

type BillKind string

const (
	BillKindMoveIn    BillKind = "move_in"
	BillKindMonthly   BillKind = "monthly" // Written by the landlord's manual billing, read here for due dates
	BillKindRenewal   BillKind = "renewal"
	BillKindLastMonth BillKind = "last_month"
	BillKindEmergency BillKind = "emergency"
)

// LateFeeMarker is appended to a bill description once a late fee was added to it
const LateFeeMarker = "[LATE FEE APPLIED]"

// Bill is a payment request from a landlord to a tenant
type Bill struct {
	ID                    int64           `json:"id"`
	OccupancyID           int64           `json:"occupancy_id"`
	TenantID              int64           `json:"tenant_id"`
	LandlordID            int64           `json:"landlord_id"`
	PropertyID            int64           `json:"property_id"`
	Kind                  BillKind        `json:"kind"`
	RentAmount            decimal.Decimal `json:"rent_amount"`
	WaterBill             decimal.Decimal `json:"water_bill"`
	ElectricalBill        decimal.Decimal `json:"electrical_bill"`
	WifiBill              decimal.Decimal `json:"wifi_bill"`
	OtherBills            decimal.Decimal `json:"other_bills"`
	SecurityDepositAmount decimal.Decimal `json:"security_deposit_amount"`
	AdvanceAmount         decimal.Decimal `json:"advance_amount"`
	DueDate               civil.Date      `json:"due_date"`
	Status                BillStatus      `json:"status"`
	Description           string          `json:"description"`
	ProofURL              string          `json:"proof_url"`
	PaymentMethod         string          `json:"payment_method"`
	AmountPaid            decimal.Decimal `json:"amount_paid"`
	PaidAt                *time.Time      `json:"paid_at,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// Total is the sum of every monetary field
func (b *Bill) Total() decimal.Decimal {
	return decimal.Sum(
		b.RentAmount,
		b.WaterBill,
		b.ElectricalBill,
		b.WifiBill,
		b.OtherBills,
		b.SecurityDepositAmount,
		b.AdvanceAmount,
	)
}

// IsRentBearing reports whether the bill covers rent and so counts for the billing cycle
func (b *Bill) IsRentBearing() bool {
	return b.RentAmount.IsPositive()
}

// HasLateFee checks the description for the late fee marker
func (b *Bill) HasLateFee() bool {
	return strings.Contains(b.Description, LateFeeMarker)
}

// MonthsCovered is one month plus every whole month paid in advance
func (b *Bill) MonthsCovered() int {
	if !b.RentAmount.IsPositive() {
		return 0
	}
	return 1 + int(b.AdvanceAmount.Div(b.RentAmount).Floor().IntPart())
}
