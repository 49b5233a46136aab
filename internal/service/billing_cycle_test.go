package service_test

import (
	"testing"
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestDeriveNextDueDate(t *testing.T) {
	occ := &model.Occupancy{
		StartDate:       date(2025, time.January, 15),
		ContractEndDate: date(2025, time.July, 15),
	}

	rentBill := func(id int64, due time.Month, status model.BillStatus, advance int64) *model.Bill {
		return &model.Bill{
			ID:            id,
			RentAmount:    money(9000),
			AdvanceAmount: money(advance),
			DueDate:       date(2025, due, 15),
			Status:        status,
		}
	}

	tests := []struct {
		name  string
		bills []*model.Bill
		want  service.NextDue
	}{
		{
			name: "no bills falls back to the start date",
			want: service.NextDue{Kind: service.DueOn, Date: date(2025, time.January, 15)},
		},
		{
			name: "earliest open bill wins",
			bills: []*model.Bill{
				rentBill(2, time.March, model.BillStatusPending, 0),
				rentBill(1, time.February, model.BillStatusPending, 0),
			},
			want: service.NextDue{Kind: service.DueOn, Date: date(2025, time.February, 15), BillID: 1},
		},
		{
			name: "submitted proof shows as processing",
			bills: []*model.Bill{
				rentBill(1, time.January, model.BillStatusPaid, 9000),
				rentBill(2, time.March, model.BillStatusPendingConfirmation, 0),
			},
			want: service.NextDue{Kind: service.Processing, Date: date(2025, time.March, 15), BillID: 2},
		},
		{
			name: "move-in bill with one month advance covers two months",
			bills: []*model.Bill{
				rentBill(1, time.January, model.BillStatusPaid, 9000),
			},
			want: service.NextDue{Kind: service.DueOn, Date: date(2025, time.March, 15)},
		},
		{
			name: "latest paid bill drives the cycle",
			bills: []*model.Bill{
				rentBill(1, time.January, model.BillStatusPaid, 9000),
				rentBill(2, time.March, model.BillStatusPaid, 0),
			},
			want: service.NextDue{Kind: service.DueOn, Date: date(2025, time.April, 15)},
		},
		{
			name: "cancelled and non-rent bills are ignored",
			bills: []*model.Bill{
				rentBill(1, time.January, model.BillStatusPaid, 9000),
				rentBill(2, time.March, model.BillStatusCancelled, 0),
				{ID: 3, WaterBill: money(300), DueDate: date(2025, time.February, 1), Status: model.BillStatusPending},
			},
			want: service.NextDue{Kind: service.DueOn, Date: date(2025, time.March, 15)},
		},
		{
			name: "paid through the contract end",
			bills: []*model.Bill{
				rentBill(1, time.June, model.BillStatusPaid, 0),
			},
			want: service.NextDue{Kind: service.FullyPaid, Date: date(2025, time.July, 15)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.DeriveNextDueDate(occ, tt.bills)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, service.DeriveNextDueDate(occ, tt.bills), "derivation is deterministic")
		})
	}
}

func TestDeriveNextDueDateMonthEnd(t *testing.T) {
	occ := &model.Occupancy{
		StartDate:       date(2025, time.January, 31),
		ContractEndDate: date(2026, time.January, 31),
	}
	bills := []*model.Bill{{ID: 1, RentAmount: money(9000), DueDate: date(2025, time.January, 31), Status: model.BillStatusPaid}}

	// time.AddDate normalisation: Jan 31 + 1 month rolls into March
	got := service.DeriveNextDueDate(occ, bills)
	assert.Equal(t, date(2025, time.March, 3), got.Date)
}
