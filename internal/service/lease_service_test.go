package service_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOccupancy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.May, 20, 10, 0))
	landlord := f.landlord(t)
	tenant := f.tenant(t)
	home := f.property(landlord.ID, 9000)

	req := service.CreateOccupancyRequest{
		LandlordID: landlord.ID,
		PropertyID: home.ID,
		TenantID:   tenant.ID,
		StartDate:  date(2025, time.June, 1),
		Months:     2,
		LateFee:    money(500),
	}
	_, _, err := f.leases.CreateOccupancy(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	req.Months = 6
	req.WifiDueDay = 32
	_, _, err = f.leases.CreateOccupancy(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.ErrorContains(t, err, "0 (unset) or between 1 and 31")

	req.WifiDueDay = 0
	occ, moveIn, err := f.leases.CreateOccupancy(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, model.OccupancyStatusActive, occ.Status)
	assert.Equal(t, date(2025, time.December, 1), occ.ContractEndDate)
	assert.True(t, occ.SecurityDeposit.Equal(money(9000)))
	assert.True(t, occ.SecurityDepositUsed.IsZero())

	assert.Equal(t, model.BillKindMoveIn, moveIn.Kind)
	assert.Equal(t, model.BillStatusPending, moveIn.Status)
	assert.Equal(t, date(2025, time.June, 1), moveIn.DueDate)
	assert.True(t, moveIn.Total().Equal(money(27000)), "rent, advance and deposit")
	assert.Equal(t, 2, moveIn.MonthsCovered())

	property, err := f.store.GetProperty(ctx, home.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PropertyStatusOccupied, property.Status)

	notes := f.notes.ofType(model.NotificationOccupancyAssigned)
	require.Len(t, notes, 1)
	assert.Equal(t, tenant.ID, notes[0].RecipientID)

	_, _, err = f.leases.CreateOccupancy(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateOccupancyRollsBackOnBillFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.May, 20, 10, 0))
	landlord := f.landlord(t)
	tenant := f.tenant(t)
	home := f.property(landlord.ID, 9000)

	f.store.FailOn("CreateBill", assert.AnError)
	_, _, err := f.leases.CreateOccupancy(ctx, service.CreateOccupancyRequest{
		LandlordID: landlord.ID,
		PropertyID: home.ID,
		TenantID:   tenant.ID,
		StartDate:  date(2025, time.June, 1),
		Months:     3,
	})
	assert.ErrorIs(t, err, apperr.ErrPersistence)

	active, err := f.leases.ActiveLease(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	property, err := f.store.GetProperty(ctx, home.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PropertyStatusAvailable, property.Status)
	assert.Empty(t, f.notes.ofType(model.NotificationOccupancyAssigned))
}

// lease seeds an active occupancy on a property with the given rent
func (f *fixture) lease(t *testing.T, rent int64, deposit, used int64, end civil.Date) *model.Occupancy {
	t.Helper()
	landlord := f.landlord(t)
	tenant := f.tenant(t)
	home := f.property(landlord.ID, rent)
	occ := &model.Occupancy{
		PropertyID:          home.ID,
		TenantID:            tenant.ID,
		LandlordID:          landlord.ID,
		Status:              model.OccupancyStatusActive,
		StartDate:           end.AddDays(-365),
		ContractEndDate:     end,
		SecurityDeposit:     money(deposit),
		SecurityDepositUsed: money(used),
		LateFee:             money(500),
	}
	f.store.AddOccupancy(occ)
	require.NoError(t, f.store.SetPropertyStatus(context.Background(), home.ID, model.PropertyStatusOccupied))
	return occ
}

func TestLastMonthDepositShortfall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.June, 11, 10, 0))
	occ := f.lease(t, 9000, 10000, 2000, date(2025, time.July, 1))

	bill, err := f.leases.ApplyLastMonthDepositLogic(ctx, occ.ID)
	require.NoError(t, err)
	require.NotNil(t, bill)

	assert.Equal(t, model.BillKindEmergency, bill.Kind)
	assert.Equal(t, model.BillStatusPending, bill.Status)
	assert.True(t, bill.Total().Equal(money(1000)))
	assert.Equal(t, date(2025, time.June, 11), bill.DueDate)

	updated, err := f.leases.GetOccupancy(ctx, occ.ID)
	require.NoError(t, err)
	assert.True(t, updated.SecurityDepositUsed.Equal(money(10000)), "deposit fully consumed")
	assert.True(t, updated.AvailableDeposit().IsZero())

	again, err := f.leases.ApplyLastMonthDepositLogic(ctx, occ.ID)
	require.NoError(t, err)
	assert.Nil(t, again)

	bills, err := f.store.ListBillsByOccupancy(ctx, occ.ID)
	require.NoError(t, err)
	assert.Len(t, bills, 1)
	assert.Len(t, f.notes.ofType(model.NotificationLastMonthDeposit), 1)
}

func TestLastMonthDepositNotReissuedAfterCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.June, 11, 10, 0))
	occ := f.lease(t, 9000, 10000, 2000, date(2025, time.July, 1))

	emergency, err := f.leases.ApplyLastMonthDepositLogic(ctx, occ.ID)
	require.NoError(t, err)
	require.NotNil(t, emergency)

	cancelled, err := f.bills.Cancel(ctx, occ.LandlordID, emergency.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusCancelled, cancelled.Status)

	for _, day := range []int{11, 12, 13} {
		f.clock.Set(at(2025, time.June, day, 10, 0))
		again, err := f.leases.ApplyLastMonthDepositLogic(ctx, occ.ID)
		require.NoError(t, err)
		assert.Nil(t, again, "June %d", day)
	}

	bills, err := f.store.ListBillsByOccupancy(ctx, occ.ID)
	require.NoError(t, err)
	assert.Len(t, bills, 1)
	assert.Len(t, f.notes.ofType(model.NotificationLastMonthDeposit), 1)
}

func TestLastMonthDepositSkipsRentFreeLease(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.June, 11, 10, 0))
	occ := f.lease(t, 0, 0, 0, date(2025, time.July, 1))

	for _, day := range []int{11, 12, 13} {
		f.clock.Set(at(2025, time.June, day, 10, 0))
		bill, err := f.leases.ApplyLastMonthDepositLogic(ctx, occ.ID)
		require.NoError(t, err)
		assert.Nil(t, bill, "June %d", day)
	}

	bills, err := f.store.ListBillsByOccupancy(ctx, occ.ID)
	require.NoError(t, err)
	assert.Empty(t, bills)
	assert.Empty(t, f.notes.ofType(model.NotificationLastMonthDeposit))
}

func TestLastMonthDepositCoversRent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.June, 11, 10, 0))
	occ := f.lease(t, 9000, 10000, 0, date(2025, time.July, 1))

	bill, err := f.leases.ApplyLastMonthDepositLogic(ctx, occ.ID)
	require.NoError(t, err)
	require.NotNil(t, bill)

	assert.Equal(t, model.BillKindLastMonth, bill.Kind)
	assert.Equal(t, model.BillStatusPaid, bill.Status)
	assert.True(t, bill.RentAmount.Equal(money(9000)))
	assert.True(t, bill.AmountPaid.Equal(money(9000)))
	require.NotNil(t, bill.PaidAt)

	updated, err := f.leases.GetOccupancy(ctx, occ.ID)
	require.NoError(t, err)
	assert.True(t, updated.SecurityDepositUsed.Equal(money(9000)))

	// a later day in the same window adds nothing
	f.clock.Set(at(2025, time.June, 20, 10, 0))
	again, err := f.leases.ApplyLastMonthDepositLogic(ctx, occ.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestLastMonthDepositPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("too far from the contract end", func(t *testing.T) {
		f := newFixture(t, at(2025, time.June, 2, 10, 0))
		occ := f.lease(t, 9000, 9000, 0, date(2025, time.July, 1))
		bill, err := f.leases.ApplyLastMonthDepositLogic(ctx, occ.ID)
		require.NoError(t, err)
		assert.Nil(t, bill)
	})

	t.Run("contract already over", func(t *testing.T) {
		f := newFixture(t, at(2025, time.July, 2, 10, 0))
		occ := f.lease(t, 9000, 9000, 0, date(2025, time.July, 1))
		bill, err := f.leases.ApplyLastMonthDepositLogic(ctx, occ.ID)
		require.NoError(t, err)
		assert.Nil(t, bill)
	})

	t.Run("renewal in progress", func(t *testing.T) {
		f := newFixture(t, at(2025, time.June, 11, 10, 0))
		occ := f.lease(t, 9000, 9000, 0, date(2025, time.July, 1))
		occ.RenewalRequested = true
		occ.RenewalStatus = model.RenewalStatusPending
		require.NoError(t, f.store.UpdateOccupancy(ctx, occ))

		bill, err := f.leases.ApplyLastMonthDepositLogic(ctx, occ.ID)
		require.NoError(t, err)
		assert.Nil(t, bill)
	})

	t.Run("rent bill already inside the window", func(t *testing.T) {
		f := newFixture(t, at(2025, time.June, 11, 10, 0))
		occ := f.lease(t, 9000, 9000, 0, date(2025, time.July, 1))
		f.store.AddBill(&model.Bill{
			OccupancyID: occ.ID,
			TenantID:    occ.TenantID,
			LandlordID:  occ.LandlordID,
			PropertyID:  occ.PropertyID,
			Kind:        model.BillKindMonthly,
			RentAmount:  money(9000),
			DueDate:     date(2025, time.May, 25),
			Status:      model.BillStatusPaid,
		})

		bill, err := f.leases.ApplyLastMonthDepositLogic(ctx, occ.ID)
		require.NoError(t, err)
		assert.Nil(t, bill)
	})
}

func TestEndOccupancy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.June, 11, 10, 0))
	occ := f.lease(t, 9000, 9000, 0, date(2025, time.December, 1))

	_, err := f.leases.ApproveEnd(ctx, occ.LandlordID, occ.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.leases.RequestEnd(ctx, occ.LandlordID, occ.ID, date(2025, time.August, 31), "moving")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	requested, err := f.leases.RequestEnd(ctx, occ.TenantID, occ.ID, date(2025, time.August, 31), "moving")
	require.NoError(t, err)
	assert.Equal(t, model.OccupancyStatusPendingEnd, requested.Status)
	assert.Len(t, f.notes.ofType(model.NotificationOccupancyEndRequested), 1)

	ended, err := f.leases.ApproveEnd(ctx, occ.LandlordID, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OccupancyStatusEnded, ended.Status)
	require.NotNil(t, ended.EndDate)
	assert.Equal(t, date(2025, time.August, 31), *ended.EndDate)

	property, err := f.store.GetProperty(ctx, occ.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, model.PropertyStatusAvailable, property.Status)
	assert.Len(t, f.notes.ofType(model.NotificationOccupancyEnded), 1)
}

func TestEndWithDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.June, 11, 10, 0))
	occ := f.lease(t, 9000, 9000, 0, date(2025, time.December, 1))

	ended, err := f.leases.EndWithDate(ctx, occ.LandlordID, occ.ID, date(2025, time.June, 30), "contract breach")
	require.NoError(t, err)
	assert.Equal(t, model.OccupancyStatusEnded, ended.Status)
	assert.Equal(t, "contract breach", ended.EndReason)

	_, err = f.leases.EndWithDate(ctx, occ.LandlordID, occ.ID, date(2025, time.June, 30), "")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	active, err := f.leases.ActiveLease(ctx, occ.TenantID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestRenewal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.June, 11, 10, 0))
	occ := f.lease(t, 9000, 9000, 0, date(2025, time.August, 30))

	renewing, err := f.leases.RequestRenewal(ctx, occ.TenantID, occ.ID, date(2025, time.July, 1))
	require.NoError(t, err)
	assert.True(t, renewing.RenewalActive())
	require.NotNil(t, renewing.RenewalMeetingDate)
	assert.Len(t, f.notes.ofType(model.NotificationRenewalRequest), 1)

	_, err = f.leases.RequestRenewal(ctx, occ.TenantID, occ.ID, civil.Date{})
	assert.ErrorIs(t, err, apperr.ErrConflict, "already pending")

	_, _, err = f.leases.ResolveRenewal(ctx, service.ResolveRenewalRequest{
		LandlordID:  occ.LandlordID,
		OccupancyID: occ.ID,
		Approve:     true,
		NewEndDate:  date(2025, time.August, 1),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	renewed, bill, err := f.leases.ResolveRenewal(ctx, service.ResolveRenewalRequest{
		LandlordID:  occ.LandlordID,
		OccupancyID: occ.ID,
		Approve:     true,
		NewEndDate:  date(2026, time.August, 30),
		SigningDate: date(2025, time.July, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.August, 30), renewed.ContractEndDate)
	assert.Equal(t, model.RenewalStatusNone, renewed.RenewalStatus)
	assert.False(t, renewed.RenewalRequested)

	require.NotNil(t, bill)
	assert.Equal(t, model.BillKindRenewal, bill.Kind)
	assert.Equal(t, date(2025, time.July, 5), bill.DueDate)
	assert.True(t, bill.Total().Equal(money(18000)))
	assert.Len(t, f.notes.ofType(model.NotificationRenewalApproved), 1)
}

func TestRenewalRejectedAndCutoff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.June, 11, 10, 0))
	occ := f.lease(t, 9000, 9000, 0, date(2025, time.August, 30))

	_, err := f.leases.RequestRenewal(ctx, occ.TenantID, occ.ID, civil.Date{})
	require.NoError(t, err)

	rejected, bill, err := f.leases.ResolveRenewal(ctx, service.ResolveRenewalRequest{
		LandlordID:  occ.LandlordID,
		OccupancyID: occ.ID,
	})
	require.NoError(t, err)
	assert.Nil(t, bill)
	assert.Equal(t, model.RenewalStatusRejected, rejected.RenewalStatus)
	assert.False(t, rejected.RenewalActive())
	assert.Equal(t, date(2025, time.August, 30), rejected.ContractEndDate)
	assert.Len(t, f.notes.ofType(model.NotificationRenewalRejected), 1)

	// 29 days before the end is too late
	f.clock.Set(at(2025, time.August, 1, 10, 0))
	_, err = f.leases.RequestRenewal(ctx, occ.TenantID, occ.ID, civil.Date{})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestNextDueDateFollowsPayments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.May, 20, 10, 0))
	landlord := f.landlord(t)
	tenant := f.tenant(t)
	home := f.property(landlord.ID, 9000)

	occ, moveIn, err := f.leases.CreateOccupancy(ctx, service.CreateOccupancyRequest{
		LandlordID: landlord.ID,
		PropertyID: home.ID,
		TenantID:   tenant.ID,
		StartDate:  date(2025, time.June, 1),
		Months:     6,
	})
	require.NoError(t, err)

	due, err := f.leases.NextDueDate(ctx, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, service.NextDue{Kind: service.DueOn, Date: date(2025, time.June, 1), BillID: moveIn.ID}, due)

	_, err = f.bills.SubmitProof(ctx, tenant.ID, moveIn.ID, "https://example.com/receipt.jpg", "gcash", nil)
	require.NoError(t, err)

	due, err = f.leases.NextDueDate(ctx, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, service.Processing, due.Kind)

	_, err = f.bills.Verify(ctx, landlord.ID, moveIn.ID, true)
	require.NoError(t, err)

	due, err = f.leases.NextDueDate(ctx, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, service.NextDue{Kind: service.DueOn, Date: date(2025, time.August, 1)}, due)
}
