package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDashboardWeights(t *testing.T) {
	base := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	bookings := []*model.Booking{
		{ID: 1, TenantID: 10, PropertyID: 100, Status: model.BookingStatusApproved, BookingDate: base},
		{ID: 2, TenantID: 11, PropertyID: 101, Status: model.BookingStatusPending, BookingDate: base},
		{ID: 3, TenantID: 12, PropertyID: 102, Status: model.BookingStatusCancelled, BookingDate: base},
		{ID: 4, TenantID: 13, PropertyID: 103, Status: model.BookingStatusCompleted, BookingDate: base},
	}
	applications := []*model.Application{
		{ID: 20, TenantID: 14, PropertyID: 104, Status: model.ApplicationStatusAccepted, CreatedAt: base},
		{ID: 21, TenantID: 15, PropertyID: 105, Status: model.ApplicationStatusAccepted, CreatedAt: base},
		// has a live booking for the same property, so no ready row
		{ID: 22, TenantID: 11, PropertyID: 101, Status: model.ApplicationStatusAccepted, CreatedAt: base},
		{ID: 23, TenantID: 16, PropertyID: 106, Status: model.ApplicationStatusPending, CreatedAt: base},
	}

	entries := service.BuildDashboard(bookings, applications, map[int64]bool{15: true})

	var got []string
	for _, e := range entries {
		got = append(got, e.Status)
	}
	assert.Equal(t, []string{
		"pending",
		service.StatusReadyToBook,
		service.StatusReadyToBook,
		"approved",
		"cancelled",
		"completed",
	}, got)

	assert.False(t, entries[1].Conflict)
	assert.Equal(t, int64(14), entries[1].TenantID)
	assert.True(t, entries[2].Conflict)
	assert.Equal(t, 3, entries[2].Weight)
}

func TestSortDashboardNewestFirstWithinWeight(t *testing.T) {
	base := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	entries := []service.DashboardEntry{
		{PropertyID: 1, Weight: 1, Date: base},
		{PropertyID: 2, Weight: 1, Date: base.Add(time.Hour)},
		{PropertyID: 3, Weight: 0, Date: base.Add(-time.Hour)},
	}
	service.SortDashboard(entries)
	assert.Equal(t, []int64{3, 2, 1}, []int64{entries[0].PropertyID, entries[1].PropertyID, entries[2].PropertyID})
}

func TestDedupeByProperty(t *testing.T) {
	base := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	cancelled := &model.Booking{ID: 1, PropertyID: 7, Status: model.BookingStatusCancelled, BookingDate: base.Add(2 * time.Hour)}
	live := &model.Booking{ID: 2, PropertyID: 7, Status: model.BookingStatusPending, BookingDate: base}
	oldRejected := &model.Booking{ID: 3, PropertyID: 8, Status: model.BookingStatusRejected, BookingDate: base}
	newRejected := &model.Booking{ID: 4, PropertyID: 8, Status: model.BookingStatusRejected, BookingDate: base.Add(time.Hour)}

	entries := service.BuildDashboard(
		[]*model.Booking{cancelled, live, oldRejected, newRejected},
		[]*model.Application{{ID: 9, TenantID: 1, PropertyID: 8, Status: model.ApplicationStatusAccepted, CreatedAt: base}},
		nil,
	)
	deduped := service.DedupeByProperty(entries)
	require.Len(t, deduped, 2)

	byProperty := map[int64]service.DashboardEntry{}
	for _, e := range deduped {
		byProperty[e.PropertyID] = e
	}
	assert.Equal(t, int64(2), byProperty[7].Booking.ID, "active booking wins over a newer terminal one")
	assert.Equal(t, service.StatusReadyToBook, byProperty[8].Status, "ready row wins over terminal bookings")
}

func TestTenantAndLandlordDashboards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.June, 1, 9, 0))
	landlord := f.landlord(t)
	tenant := f.tenant(t)
	waiting := f.tenant(t)
	home := f.property(landlord.ID, 9000)
	second := f.property(landlord.ID, 8000)
	slots := f.slotsOn(t, landlord.ID, date(2025, time.June, 10))

	f.store.AddApplication(&model.Application{TenantID: tenant.ID, PropertyID: home.ID, LandlordID: landlord.ID, Status: model.ApplicationStatusAccepted})
	f.store.AddApplication(&model.Application{TenantID: tenant.ID, PropertyID: second.ID, LandlordID: landlord.ID, Status: model.ApplicationStatusAccepted})
	f.store.AddApplication(&model.Application{TenantID: waiting.ID, PropertyID: second.ID, LandlordID: landlord.ID, Status: model.ApplicationStatusAccepted})

	_, err := f.bookings.CreateBooking(ctx, tenant.ID, home.ID, slots[0].ID, "")
	require.NoError(t, err)

	mine, err := f.bookings.TenantDashboard(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "pending", mine[0].Status)
	assert.Equal(t, service.StatusReadyToBook, mine[1].Status)
	assert.True(t, mine[1].Conflict, "tenant already holds an active booking")

	all, err := f.bookings.LandlordDashboard(ctx, landlord.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "pending", all[0].Status)
	assert.Equal(t, waiting.ID, all[1].TenantID)
	assert.False(t, all[1].Conflict)
	assert.Equal(t, tenant.ID, all[2].TenantID)
	assert.True(t, all[2].Conflict)
}
