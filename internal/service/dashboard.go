package service

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
)

// StatusReadyToBook is the derived state of an accepted application without a live booking
const StatusReadyToBook = "ready_to_book"

// DashboardEntry is one row of a booking dashboard. It is derived on every read and never stored.
type DashboardEntry struct {
	TenantID    int64              `json:"tenant_id"`
	PropertyID  int64              `json:"property_id"`
	Status      string             `json:"status"`
	Conflict    bool               `json:"conflict"` // ready_to_book while an active booking exists elsewhere
	Weight      int                `json:"weight"`
	Date        time.Time          `json:"date"`
	Booking     *model.Booking     `json:"booking,omitempty"`
	Application *model.Application `json:"application,omitempty"`
}

func bookingWeight(status model.BookingStatus) int {
	switch status {
	case model.BookingStatusPending:
		return 1
	case model.BookingStatusApproved:
		return 4
	case model.BookingStatusRejected, model.BookingStatusCancelled:
		return 5
	default:
		return 6
	}
}

func readyWeight(conflict bool) int {
	if conflict {
		return 3
	}
	return 2
}

// BuildDashboard projects bookings and accepted applications into ranked rows.
// activeTenants holds tenants with a booking in pending or approved anywhere.
func BuildDashboard(bookings []*model.Booking, applications []*model.Application, activeTenants map[int64]bool) []DashboardEntry {
	type pair struct{ tenant, property int64 }
	live := make(map[pair]bool)

	entries := make([]DashboardEntry, 0, len(bookings)+len(applications))
	for _, b := range bookings {
		if b.Status.IsActive() {
			live[pair{b.TenantID, b.PropertyID}] = true
		}
		entries = append(entries, DashboardEntry{
			TenantID:   b.TenantID,
			PropertyID: b.PropertyID,
			Status:     string(b.Status),
			Weight:     bookingWeight(b.Status),
			Date:       b.BookingDate,
			Booking:    b,
		})
	}

	for _, a := range applications {
		if !a.IsAccepted() || live[pair{a.TenantID, a.PropertyID}] {
			continue
		}
		conflict := activeTenants[a.TenantID]
		entries = append(entries, DashboardEntry{
			TenantID:    a.TenantID,
			PropertyID:  a.PropertyID,
			Status:      StatusReadyToBook,
			Conflict:    conflict,
			Weight:      readyWeight(conflict),
			Date:        a.CreatedAt,
			Application: a,
		})
	}

	SortDashboard(entries)
	return entries
}

// SortDashboard orders rows by weight, then newest first
func SortDashboard(entries []DashboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight < entries[j].Weight
		}
		return entries[i].Date.After(entries[j].Date)
	})
}

// dedupe priority: active booking, then ready_to_book, then anything terminal
func entryClass(e DashboardEntry) int {
	switch {
	case e.Booking != nil && e.Booking.Status.IsActive():
		return 0
	case e.Status == StatusReadyToBook:
		return 1
	default:
		return 2
	}
}

// DedupeByProperty keeps one row per property, preferring the highest priority class
// and the newest row within a class. The result is sorted.
func DedupeByProperty(entries []DashboardEntry) []DashboardEntry {
	best := make(map[int64]DashboardEntry)
	order := make([]int64, 0)
	for _, e := range entries {
		cur, ok := best[e.PropertyID]
		if !ok {
			best[e.PropertyID] = e
			order = append(order, e.PropertyID)
			continue
		}
		ce, ne := entryClass(cur), entryClass(e)
		if ne < ce || (ne == ce && e.Date.After(cur.Date)) {
			best[e.PropertyID] = e
		}
	}

	out := make([]DashboardEntry, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	SortDashboard(out)
	return out
}

// TenantDashboard lists the tenant's bookings and bookable properties, one row per property
func (s *BookingService) TenantDashboard(ctx context.Context, tenantID int64) ([]DashboardEntry, error) {
	bookings, err := s.bookings.ListBookingsByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperr.Persistence("list tenant bookings", err)
	}
	applications, err := s.applications.ListAcceptedByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperr.Persistence("list tenant applications", err)
	}

	active := map[int64]bool{}
	for _, b := range bookings {
		if b.Status.IsActive() {
			active[tenantID] = true
			break
		}
	}

	return DedupeByProperty(BuildDashboard(bookings, applications, active)), nil
}

// LandlordDashboard lists every booking and ready_to_book applicant of the landlord's properties
func (s *BookingService) LandlordDashboard(ctx context.Context, landlordID int64) ([]DashboardEntry, error) {
	bookings, err := s.bookings.ListBookingsByLandlord(ctx, landlordID)
	if err != nil {
		return nil, apperr.Persistence("list landlord bookings", err)
	}
	applications, err := s.applications.ListAcceptedByLandlord(ctx, landlordID)
	if err != nil {
		return nil, apperr.Persistence("list landlord applications", err)
	}

	tenantIDs := make([]int64, 0, len(applications))
	seen := map[int64]bool{}
	for _, a := range applications {
		if !seen[a.TenantID] {
			seen[a.TenantID] = true
			tenantIDs = append(tenantIDs, a.TenantID)
		}
	}

	active := map[int64]bool{}
	if len(tenantIDs) > 0 {
		active, err = s.bookings.ActiveTenants(ctx, tenantIDs)
		if err != nil {
			return nil, apperr.Persistence("find active tenants", err)
		}
	}

	return BuildDashboard(bookings, applications, active), nil
}
