package service

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lookups return (nil, nil) when the row does not exist.

// Transactor runs fn inside one database transaction. Stores called with the ctx
// passed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
}

type PropertyStore interface {
	GetProperty(ctx context.Context, id int64) (*model.Property, error)
	LockProperty(ctx context.Context, id int64) (*model.Property, error)
	SetPropertyStatus(ctx context.Context, id int64, status model.PropertyStatus) error
}

type ApplicationStore interface {
	ListAcceptedByTenant(ctx context.Context, tenantID int64) ([]*model.Application, error)
	ListAcceptedByLandlord(ctx context.Context, landlordID int64) ([]*model.Application, error)
}

type SlotStore interface {
	CreateSlots(ctx context.Context, slots []*model.TimeSlot) error
	GetSlot(ctx context.Context, id int64) (*model.TimeSlot, error)
	// ReserveSlot flips is_booked from false to true; false means someone else holds it
	ReserveSlot(ctx context.Context, id int64) (bool, error)
	ReleaseSlot(ctx context.Context, id int64) error
	// DeleteFreeSlot removes an unbooked slot starting after now
	DeleteFreeSlot(ctx context.Context, landlordID, id int64, now time.Time) (bool, error)
	ListSlots(ctx context.Context, landlordID int64, from, to time.Time) ([]*model.TimeSlot, error)
}

type BookingStore interface {
	CreateBooking(ctx context.Context, booking *model.Booking) error
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	// LockTenantBookings serialises booking changes of one tenant until the transaction ends
	LockTenantBookings(ctx context.Context, tenantID int64) error
	CountActiveByTenant(ctx context.Context, tenantID, excludeBookingID int64) (int, error)
	// UpdateBookingStatus moves a booking to status only if it currently is one of from
	UpdateBookingStatus(ctx context.Context, id int64, to model.BookingStatus, from ...model.BookingStatus) (bool, error)
	ListBookingsByTenant(ctx context.Context, tenantID int64) ([]*model.Booking, error)
	ListBookingsByLandlord(ctx context.Context, landlordID int64) ([]*model.Booking, error)
	ActiveTenants(ctx context.Context, tenantIDs []int64) (map[int64]bool, error)
}

type OccupancyStore interface {
	CreateOccupancy(ctx context.Context, occ *model.Occupancy) error
	GetOccupancy(ctx context.Context, id int64) (*model.Occupancy, error)
	// LockOccupancy reads the row with a row lock held until the transaction ends
	LockOccupancy(ctx context.Context, id int64) (*model.Occupancy, error)
	UpdateOccupancy(ctx context.Context, occ *model.Occupancy) error
	GetActiveByTenant(ctx context.Context, tenantID int64) (*model.Occupancy, error)
	ListActiveByLandlord(ctx context.Context, landlordID int64) ([]*model.Occupancy, error)
	ListLandlordsWithActive(ctx context.Context) ([]int64, error)
}

type BillStore interface {
	CreateBill(ctx context.Context, bill *model.Bill) error
	GetBill(ctx context.Context, id int64) (*model.Bill, error)
	LockBill(ctx context.Context, id int64) (*model.Bill, error)
	UpdateBill(ctx context.Context, bill *model.Bill) error
	ListBillsByOccupancy(ctx context.Context, occupancyID int64) ([]*model.Bill, error)
	ListBillsByTenant(ctx context.Context, tenantID int64) ([]*model.Bill, error)
	// ListOverdueRent returns pending rent-bearing bills of a lease due before day without a late fee
	ListOverdueRent(ctx context.Context, occupancyID int64, day civil.Date) ([]*model.Bill, error)
}

type BalanceStore interface {
	GetBalance(ctx context.Context, occupancyID int64) (decimal.Decimal, error)
	SetBalance(ctx context.Context, occupancyID, tenantID int64, balance decimal.Decimal) error
}

type AutomationStore interface {
	// ClaimRun inserts the (landlord, day) marker; false when it already exists
	ClaimRun(ctx context.Context, run *model.AutomationRun) (bool, error)
	// RecordReminder inserts the (tenant, kind, day) reminder; false when it already exists
	RecordReminder(ctx context.Context, reminder *model.Reminder) (bool, error)
}

// Notifier hands a notification to the delivery sink
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// Clock returns the current instant
type Clock func() time.Time

// newRunID is swapped in tests
var newRunID = uuid.New
