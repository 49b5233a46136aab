package service

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
)

type DueKind string

const (
	DueOn      DueKind = "due"        // Date holds the next due date
	Processing DueKind = "processing" // a payment proof waits for verification
	FullyPaid  DueKind = "fully_paid" // paid through the contract end
)

// NextDue is the derived billing position of a lease
type NextDue struct {
	Kind   DueKind    `json:"kind"`
	Date   civil.Date `json:"date"`
	BillID int64      `json:"bill_id,omitempty"`
}

// DeriveNextDueDate computes the next rent due date from the lease and its bills only.
// Nothing about the schedule is stored, so the same inputs always give the same answer.
func DeriveNextDueDate(occ *model.Occupancy, bills []*model.Bill) NextDue {
	var open, paid []*model.Bill
	for _, b := range bills {
		if !b.IsRentBearing() {
			continue
		}
		switch {
		case b.Status.IsOpen():
			open = append(open, b)
		case b.Status == model.BillStatusPaid:
			paid = append(paid, b)
		}
	}

	if len(open) > 0 {
		sortByDue(open)
		first := open[0]
		if first.Status == model.BillStatusPendingConfirmation {
			return NextDue{Kind: Processing, Date: first.DueDate, BillID: first.ID}
		}
		return NextDue{Kind: DueOn, Date: first.DueDate, BillID: first.ID}
	}

	if len(paid) == 0 {
		return NextDue{Kind: DueOn, Date: occ.StartDate}
	}

	sortByDue(paid)
	last := paid[len(paid)-1]
	next := addMonths(last.DueDate, last.MonthsCovered())
	if !next.Before(occ.ContractEndDate) {
		return NextDue{Kind: FullyPaid, Date: occ.ContractEndDate}
	}
	return NextDue{Kind: DueOn, Date: next}
}

func sortByDue(bills []*model.Bill) {
	sort.SliceStable(bills, func(i, j int) bool {
		if bills[i].DueDate != bills[j].DueDate {
			return bills[i].DueDate.Before(bills[j].DueDate)
		}
		return bills[i].ID < bills[j].ID
	})
}
