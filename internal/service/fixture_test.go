package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	_ service.Transactor       = (*memory.Store)(nil)
	_ service.UserStore        = (*memory.Store)(nil)
	_ service.PropertyStore    = (*memory.Store)(nil)
	_ service.ApplicationStore = (*memory.Store)(nil)
	_ service.SlotStore        = (*memory.Store)(nil)
	_ service.BookingStore     = (*memory.Store)(nil)
	_ service.OccupancyStore   = (*memory.Store)(nil)
	_ service.BillStore        = (*memory.Store)(nil)
	_ service.BalanceStore     = (*memory.Store)(nil)
	_ service.AutomationStore  = (*memory.Store)(nil)
)

// manila keeps civil-day logic honest: local midnight is not UTC midnight
var manila = time.FixedZone("PHT", 8*60*60)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recorder struct {
	mu    sync.Mutex
	notes []model.Notification
	err   error
}

func (r *recorder) Notify(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	return r.err
}

func (r *recorder) ofType(typ model.NotificationType) []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.notes {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

type fixture struct {
	store    *memory.Store
	clock    *fakeClock
	notes    *recorder
	users    *service.UserService
	slots    *service.SlotService
	bookings *service.BookingService
	bills    *service.BillService
	leases   *service.LeaseService
	runner   *service.AutomationRunner
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	store := memory.NewStore()
	clock := &fakeClock{t: now}
	store.Now = clock.Now
	notes := &recorder{}
	logger := zap.NewNop()

	slots := service.NewSlotService(store, store, clock.Now, manila, logger)
	bills := service.NewBillService(store, store, store, notes, clock.Now, manila, logger)
	leases := service.NewLeaseService(store, store, store, store, store, bills, notes, clock.Now, manila, logger)

	return &fixture{
		store:    store,
		clock:    clock,
		notes:    notes,
		users:    service.NewUserService(store, logger),
		slots:    slots,
		bookings: service.NewBookingService(store, store, store, store, store, slots, notes, clock.Now, manila, logger),
		bills:    bills,
		leases:   leases,
		runner: service.NewAutomationRunner(store, store, store, store, leases, notes, clock.Now, manila, logger,
			service.RunnerOptions{Hour: 8, Workers: 4}),
	}
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, manila)
}

func date(year int, month time.Month, day int) civil.Date {
	return civil.Date{Year: year, Month: month, Day: day}
}

func money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func (f *fixture) user(t *testing.T, telegramID int64, role model.Role) *model.User {
	t.Helper()
	u := &model.User{TelegramID: telegramID, Username: "user", Role: role}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) landlord(t *testing.T) *model.User {
	return f.user(t, atomic.AddInt64(&telegramSeq, 1), model.RoleLandlord)
}

func (f *fixture) tenant(t *testing.T) *model.User {
	return f.user(t, atomic.AddInt64(&telegramSeq, 1), model.RoleTenant)
}

func (f *fixture) property(landlordID int64, rent int64) *model.Property {
	p := &model.Property{LandlordID: landlordID, Title: "Unit", RentAmount: money(rent)}
	f.store.AddProperty(p)
	return p
}

// slotsOn publishes all four shapes for the landlord on day
func (f *fixture) slotsOn(t *testing.T, landlordID int64, day civil.Date) []*model.TimeSlot {
	t.Helper()
	var reqs []model.SlotRequest
	for _, shape := range model.AllSlotShapes() {
		reqs = append(reqs, model.SlotRequest{Date: day, Shape: shape})
	}
	slots, err := f.slots.CreateSlots(context.Background(), landlordID, reqs)
	require.NoError(t, err)
	return slots
}

var (
	errSink     = errors.New("sink down")
	telegramSeq int64
)
