package model

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookingStatus(t *testing.T) {
	tests := []struct {
		in   string
		want BookingStatus
	}{
		{"pending", BookingStatusPending},
		{"pending_approval", BookingStatusPending},
		{"approved", BookingStatusApproved},
		{"Accepted", BookingStatusApproved},
		{"canceled", BookingStatusCancelled},
		{"cancelled", BookingStatusCancelled},
		{"rejected", BookingStatusRejected},
		{"completed", BookingStatusCompleted},
	}

	for _, tt := range tests {
		got, err := ParseBookingStatus(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseBookingStatus("ready_to_book")
	assert.Error(t, err)
}

func TestBookingStatusClasses(t *testing.T) {
	assert.True(t, BookingStatusPending.IsActive())
	assert.True(t, BookingStatusApproved.IsActive())
	assert.False(t, BookingStatusCompleted.IsActive())
	assert.True(t, BookingStatusCancelled.IsTerminal())
	assert.False(t, BookingStatusApproved.IsTerminal())
}

func TestBillTotalAndMonthsCovered(t *testing.T) {
	b := &Bill{
		RentAmount:            decimal.NewFromInt(9000),
		AdvanceAmount:         decimal.NewFromInt(9000),
		SecurityDepositAmount: decimal.NewFromInt(9000),
		WaterBill:             decimal.NewFromInt(150),
	}
	assert.True(t, decimal.NewFromInt(27150).Equal(b.Total()))
	assert.Equal(t, 2, b.MonthsCovered())

	b.AdvanceAmount = decimal.NewFromInt(20000)
	assert.Equal(t, 3, b.MonthsCovered())

	utility := &Bill{WaterBill: decimal.NewFromInt(300)}
	assert.Equal(t, 0, utility.MonthsCovered())
	assert.False(t, utility.IsRentBearing())
}

func TestLateFeeMarker(t *testing.T) {
	b := &Bill{Description: "Monthly rent"}
	assert.False(t, b.HasLateFee())
	b.Description += " " + LateFeeMarker
	assert.True(t, b.HasLateFee())
}

func TestSlotShapeWindow(t *testing.T) {
	date := civil.Date{Year: 2025, Month: time.June, Day: 10}

	start, end, err := SlotShapePM2.Window(date, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 10, 16, 0, 0, 0, time.UTC), end)

	shape, ok := ShapeOf(start)
	assert.True(t, ok)
	assert.Equal(t, SlotShapePM2, shape)

	_, err = ParseSlotShape("noon")
	assert.Error(t, err)

	parsed, err := ParseSlotShape("am1")
	require.NoError(t, err)
	assert.Equal(t, SlotShapeAM1, parsed)
}

func TestOccupancyDeposit(t *testing.T) {
	o := &Occupancy{
		SecurityDeposit:     decimal.NewFromInt(10000),
		SecurityDepositUsed: decimal.NewFromInt(2000),
		ContractEndDate:     civil.Date{Year: 2025, Month: time.July, Day: 1},
	}
	assert.True(t, decimal.NewFromInt(8000).Equal(o.AvailableDeposit()))

	o.UseDeposit(decimal.NewFromInt(-5))
	assert.True(t, decimal.NewFromInt(2000).Equal(o.SecurityDepositUsed))

	o.UseDeposit(decimal.NewFromInt(8000))
	assert.True(t, o.AvailableDeposit().IsZero())

	assert.Equal(t, 20, o.DaysUntilContractEnd(civil.Date{Year: 2025, Month: time.June, Day: 11}))
}
