package formatting

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"github.com/shopspring/decimal"
)

// FormatDashboardEntry renders one row of the bookings dashboard
func FormatDashboardEntry(e service.DashboardEntry, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Property #%d", BookingStatus(e.Status), e.PropertyID)

	if e.Booking != nil {
		fmt.Fprintf(&sb, "\nBooking #%d", e.Booking.ID)
		if e.Booking.Slot != nil {
			fmt.Fprintf(&sb, "\n🕐 %s", FormatTimeRange(e.Booking.Slot.StartTime, e.Booking.Slot.EndTime, loc))
		}
		if e.Booking.Notes != "" {
			fmt.Fprintf(&sb, "\n💬 %s", e.Booking.Notes)
		}
	}
	if e.Conflict {
		sb.WriteString("\n⚠️ Another viewing is already booked")
	}
	return sb.String()
}

// FormatBill renders a bill with its amounts
func FormatBill(b *model.Bill) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Bill #%d: %s\n", BillStatus(b.Status), b.ID, strings.ReplaceAll(string(b.Kind), "_", " "))
	fmt.Fprintf(&sb, "📅 Due %s\n", FormatDate(b.DueDate))

	add := func(label string, v decimal.Decimal) {
		if v.IsPositive() {
			fmt.Fprintf(&sb, "  %s: %s\n", label, FormatMoney(v))
		}
	}
	add("Rent", b.RentAmount)
	add("Advance", b.AdvanceAmount)
	add("Security deposit", b.SecurityDepositAmount)
	add("Water", b.WaterBill)
	add("Electricity", b.ElectricalBill)
	add("Wifi", b.WifiBill)
	add("Other", b.OtherBills)

	fmt.Fprintf(&sb, "💰 Total %s", FormatMoney(b.Total()))
	if b.HasLateFee() {
		sb.WriteString(" (late fee included)")
	}
	return sb.String()
}

// FormatLease renders the tenant's lease summary with the derived next due date
func FormatLease(o *model.Occupancy, next service.NextDue, today civil.Date) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Lease #%d, property #%d\n", OccupancyStatus(o.Status), o.ID, o.PropertyID)
	fmt.Fprintf(&sb, "📅 %s to %s (%s left)\n", FormatDate(o.StartDate), FormatDate(o.ContractEndDate),
		FormatDays(o.DaysUntilContractEnd(today)))
	fmt.Fprintf(&sb, "🏦 Deposit %s, available %s\n", FormatMoney(o.SecurityDeposit), FormatMoney(o.AvailableDeposit()))

	switch next.Kind {
	case service.DueOn:
		fmt.Fprintf(&sb, "🧾 Next payment due %s", FormatDate(next.Date))
	case service.Processing:
		sb.WriteString("⏳ Payment is being verified")
	case service.FullyPaid:
		sb.WriteString("✅ Paid through the contract end")
	}

	if o.RenewalActive() {
		sb.WriteString("\n📝 Renewal requested")
	}
	return sb.String()
}
