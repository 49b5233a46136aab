package formatting

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "₱9000.00", FormatMoney(decimal.NewFromInt(9000)))
	assert.Equal(t, "₱9000", FormatMoneyShort(decimal.NewFromInt(9000)))
	assert.Equal(t, "₱12.50", FormatMoneyShort(decimal.RequireFromString("12.5")))
}

func TestStatusDisplays(t *testing.T) {
	assert.Equal(t, "⏳ Waiting for the landlord", BookingStatus("pending").String())
	assert.Equal(t, "🟢 Ready to book", BookingStatus(service.StatusReadyToBook).String())
	assert.Equal(t, "❓ Unknown", BookingStatus("pending_approval").String())
	assert.Equal(t, "⏳ Processing", BillStatus(model.BillStatusPendingConfirmation).String())
	assert.Equal(t, "📦 Move-out requested", OccupancyStatus(model.OccupancyStatusPendingEnd).String())
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "1 day", FormatDays(1))
	assert.Equal(t, "0 days", FormatDays(0))
	assert.Equal(t, "20 days", FormatDays(20))
}

func TestFormatBill(t *testing.T) {
	b := &model.Bill{
		ID:          4,
		Kind:        model.BillKindMonthly,
		Status:      model.BillStatusPending,
		RentAmount:  decimal.NewFromInt(9000),
		OtherBills:  decimal.NewFromInt(500),
		DueDate:     civil.Date{Year: 2025, Month: time.May, Day: 25},
		Description: "Monthly rent " + model.LateFeeMarker,
	}

	assert.Equal(t,
		"🧾 Unpaid Bill #4: monthly\n"+
			"📅 Due May 25, 2025\n"+
			"  Rent: ₱9000.00\n"+
			"  Other: ₱500.00\n"+
			"💰 Total ₱9500.00 (late fee included)",
		FormatBill(b))
}

func TestFormatLease(t *testing.T) {
	o := &model.Occupancy{
		ID:                  2,
		PropertyID:          9,
		Status:              model.OccupancyStatusActive,
		StartDate:           civil.Date{Year: 2025, Month: time.January, Day: 1},
		ContractEndDate:     civil.Date{Year: 2025, Month: time.July, Day: 1},
		SecurityDeposit:     decimal.NewFromInt(10000),
		SecurityDepositUsed: decimal.NewFromInt(2000),
	}
	today := civil.Date{Year: 2025, Month: time.June, Day: 11}

	got := FormatLease(o, service.NextDue{Kind: service.DueOn, Date: civil.Date{Year: 2025, Month: time.June, Day: 15}}, today)
	assert.Equal(t,
		"🏠 Active Lease #2, property #9\n"+
			"📅 Jan 1, 2025 to Jul 1, 2025 (20 days left)\n"+
			"🏦 Deposit ₱10000.00, available ₱8000.00\n"+
			"🧾 Next payment due Jun 15, 2025",
		got)

	o.RenewalRequested = true
	got = FormatLease(o, service.NextDue{Kind: service.FullyPaid}, today)
	assert.Contains(t, got, "✅ Paid through the contract end\n📝 Renewal requested")
}

func TestFormatDashboardEntry(t *testing.T) {
	loc := time.FixedZone("PHT", 8*60*60)
	start := time.Date(2025, time.June, 10, 8, 30, 0, 0, loc)
	e := service.DashboardEntry{
		PropertyID: 3,
		Status:     "approved",
		Booking: &model.Booking{
			ID:   11,
			Slot: &model.TimeSlot{StartTime: start, EndTime: start.Add(model.SlotDuration)},
		},
	}
	assert.Equal(t, "✅ Approved Property #3\nBooking #11\n🕐 Tue Jun 10 08:30-10:00", FormatDashboardEntry(e, loc))

	ready := service.DashboardEntry{PropertyID: 4, Status: service.StatusReadyToBook, Conflict: true}
	assert.Equal(t, "🟢 Ready to book Property #4\n⚠️ Another viewing is already booked", FormatDashboardEntry(ready, loc))
}
