// Package memory is an in-process implementation of the service stores. It keeps the
// Postgres semantics the services rely on: compare-and-swap reservation, the live booking
// unique indexes, insert-if-absent markers and all-or-nothing transactions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/shopspring/decimal"
)

type txKey struct{}

type runKey struct {
	landlordID int64
	day        civil.Date
}

type reminderKey struct {
	tenantID int64
	kind     model.ReminderKind
	day      civil.Date
}

type balanceRow struct {
	tenantID int64
	balance  decimal.Decimal
}

type state struct {
	nextID       int64
	users        map[int64]model.User
	properties   map[int64]model.Property
	applications map[int64]model.Application
	slots        map[int64]model.TimeSlot
	bookings     map[int64]model.Booking
	occupancies  map[int64]model.Occupancy
	bills        map[int64]model.Bill
	balances     map[int64]balanceRow
	runs         map[runKey]model.AutomationRun
	reminders    map[reminderKey]model.Reminder
}

func newState() state {
	return state{
		users:        map[int64]model.User{},
		properties:   map[int64]model.Property{},
		applications: map[int64]model.Application{},
		slots:        map[int64]model.TimeSlot{},
		bookings:     map[int64]model.Booking{},
		occupancies:  map[int64]model.Occupancy{},
		bills:        map[int64]model.Bill{},
		balances:     map[int64]balanceRow{},
		runs:         map[runKey]model.AutomationRun{},
		reminders:    map[reminderKey]model.Reminder{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		nextID:       s.nextID,
		users:        cloneMap(s.users),
		properties:   cloneMap(s.properties),
		applications: cloneMap(s.applications),
		slots:        cloneMap(s.slots),
		bookings:     cloneMap(s.bookings),
		occupancies:  cloneMap(s.occupancies),
		bills:        cloneMap(s.bills),
		balances:     cloneMap(s.balances),
		runs:         cloneMap(s.runs),
		reminders:    cloneMap(s.reminders),
	}
}

// Store implements every store interface of the service package plus Transactor.
// Transactions are serialised; a failed one restores the snapshot taken at its start.
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	data     state
	failures map[string]error

	// Now stamps created_at and booking_date
	Now func() time.Time
}

func NewStore() *Store {
	return &Store{
		data:     newState(),
		failures: map[string]error{},
		Now:      time.Now,
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// FailOn makes the named store method return err until cleared with a nil err
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// lock takes the data mutex and returns the injected failure for method, if any
func (s *Store) lock(method string) error {
	s.mu.Lock()
	if err, ok := s.failures[method]; ok {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (s *Store) id() int64 {
	s.data.nextID++
	return s.data.nextID
}

// Users

func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateUser"); err != nil {
		return err
	}
	for _, u := range s.data.users {
		if u.TelegramID == user.TelegramID {
			return fmt.Errorf("create user: %w", apperr.ErrDuplicate)
		}
	}
	user.ID = s.id()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.Now()
	}
	s.data.users[user.ID] = *user
	return nil
}

func (s *Store) UpdateUser(_ context.Context, user *model.User) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateUser"); err != nil {
		return err
	}
	if _, ok := s.data.users[user.ID]; !ok {
		return apperr.NotFound("user", user.ID)
	}
	s.data.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*model.User, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetUser"); err != nil {
		return nil, err
	}
	u, ok := s.data.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) GetUserByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetUserByTelegramID"); err != nil {
		return nil, err
	}
	for _, u := range s.data.users {
		if u.TelegramID == telegramID {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

// Properties and applications

// AddProperty seeds a property row
func (s *Store) AddProperty(p *model.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	if p.Status == "" {
		p.Status = model.PropertyStatusAvailable
	}
	s.data.properties[p.ID] = *p
}

// AddApplication seeds an application row
func (s *Store) AddApplication(a *model.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.Now()
	}
	s.data.applications[a.ID] = *a
}

func (s *Store) GetProperty(_ context.Context, id int64) (*model.Property, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetProperty"); err != nil {
		return nil, err
	}
	p, ok := s.data.properties[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) LockProperty(ctx context.Context, id int64) (*model.Property, error) {
	return s.GetProperty(ctx, id)
}

func (s *Store) SetPropertyStatus(_ context.Context, id int64, status model.PropertyStatus) error {
	defer s.mu.Unlock()
	if err := s.lock("SetPropertyStatus"); err != nil {
		return err
	}
	p, ok := s.data.properties[id]
	if !ok {
		return apperr.NotFound("property", id)
	}
	p.Status = status
	s.data.properties[id] = p
	return nil
}

func (s *Store) listApplications(match func(model.Application) bool) []*model.Application {
	var out []*model.Application
	for _, a := range s.data.applications {
		if a.IsAccepted() && match(a) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListAcceptedByTenant(_ context.Context, tenantID int64) ([]*model.Application, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListAcceptedByTenant"); err != nil {
		return nil, err
	}
	return s.listApplications(func(a model.Application) bool { return a.TenantID == tenantID }), nil
}

func (s *Store) ListAcceptedByLandlord(_ context.Context, landlordID int64) ([]*model.Application, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListAcceptedByLandlord"); err != nil {
		return nil, err
	}
	return s.listApplications(func(a model.Application) bool { return a.LandlordID == landlordID }), nil
}

// Slots

func (s *Store) CreateSlots(_ context.Context, slots []*model.TimeSlot) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateSlots"); err != nil {
		return err
	}
	for _, slot := range slots {
		for _, existing := range s.data.slots {
			if existing.LandlordID == slot.LandlordID && existing.StartTime.Equal(slot.StartTime) {
				return fmt.Errorf("create slot: %w", apperr.ErrDuplicate)
			}
		}
	}
	for _, slot := range slots {
		slot.ID = s.id()
		slot.IsBooked = false
		slot.CreatedAt = s.Now()
		s.data.slots[slot.ID] = *slot
	}
	return nil
}

func (s *Store) GetSlot(_ context.Context, id int64) (*model.TimeSlot, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetSlot"); err != nil {
		return nil, err
	}
	slot, ok := s.data.slots[id]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

func (s *Store) ReserveSlot(_ context.Context, id int64) (bool, error) {
	defer s.mu.Unlock()
	if err := s.lock("ReserveSlot"); err != nil {
		return false, err
	}
	slot, ok := s.data.slots[id]
	if !ok || slot.IsBooked {
		return false, nil
	}
	slot.IsBooked = true
	s.data.slots[id] = slot
	return true, nil
}

func (s *Store) ReleaseSlot(_ context.Context, id int64) error {
	defer s.mu.Unlock()
	if err := s.lock("ReleaseSlot"); err != nil {
		return err
	}
	if slot, ok := s.data.slots[id]; ok {
		slot.IsBooked = false
		s.data.slots[id] = slot
	}
	return nil
}

func (s *Store) DeleteFreeSlot(_ context.Context, landlordID, id int64, now time.Time) (bool, error) {
	defer s.mu.Unlock()
	if err := s.lock("DeleteFreeSlot"); err != nil {
		return false, err
	}
	slot, ok := s.data.slots[id]
	if !ok || slot.LandlordID != landlordID || slot.IsBooked || !slot.StartTime.After(now) {
		return false, nil
	}
	delete(s.data.slots, id)
	return true, nil
}

func (s *Store) ListSlots(_ context.Context, landlordID int64, from, to time.Time) ([]*model.TimeSlot, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListSlots"); err != nil {
		return nil, err
	}
	var out []*model.TimeSlot
	for _, slot := range s.data.slots {
		if slot.LandlordID == landlordID && !slot.StartTime.Before(from) && slot.StartTime.Before(to) {
			slot := slot
			out = append(out, &slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// Bookings

func (s *Store) withSlot(b model.Booking) *model.Booking {
	if slot, ok := s.data.slots[b.TimeSlotID]; ok {
		b.Slot = &slot
	}
	return &b
}

func (s *Store) CreateBooking(_ context.Context, booking *model.Booking) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateBooking"); err != nil {
		return err
	}
	if booking.Status.IsActive() {
		for _, b := range s.data.bookings {
			if !b.Status.IsActive() {
				continue
			}
			if b.TimeSlotID == booking.TimeSlotID {
				return fmt.Errorf("create booking: %w", apperr.ErrSlotTaken)
			}
			if b.TenantID == booking.TenantID {
				return fmt.Errorf("create booking: %w", apperr.ErrLimitExceeded)
			}
		}
	}
	now := s.Now()
	booking.ID = s.id()
	if booking.BookingDate.IsZero() {
		booking.BookingDate = now
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now
	stored := *booking
	stored.Slot = nil
	s.data.bookings[booking.ID] = stored
	return nil
}

func (s *Store) GetBooking(_ context.Context, id int64) (*model.Booking, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetBooking"); err != nil {
		return nil, err
	}
	b, ok := s.data.bookings[id]
	if !ok {
		return nil, nil
	}
	return s.withSlot(b), nil
}

// LockTenantBookings is covered by the transaction mutex
func (s *Store) LockTenantBookings(_ context.Context, _ int64) error {
	defer s.mu.Unlock()
	return s.lock("LockTenantBookings")
}

func (s *Store) CountActiveByTenant(_ context.Context, tenantID, excludeBookingID int64) (int, error) {
	defer s.mu.Unlock()
	if err := s.lock("CountActiveByTenant"); err != nil {
		return 0, err
	}
	n := 0
	for _, b := range s.data.bookings {
		if b.TenantID == tenantID && b.ID != excludeBookingID && b.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateBookingStatus(_ context.Context, id int64, to model.BookingStatus, from ...model.BookingStatus) (bool, error) {
	defer s.mu.Unlock()
	if err := s.lock("UpdateBookingStatus"); err != nil {
		return false, err
	}
	b, ok := s.data.bookings[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, f := range from {
		if b.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = s.Now()
	s.data.bookings[id] = b
	return true, nil
}

func (s *Store) listBookings(match func(model.Booking) bool) []*model.Booking {
	var out []*model.Booking
	for _, b := range s.data.bookings {
		if match(b) {
			out = append(out, s.withSlot(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookingDate.Equal(out[j].BookingDate) {
			return out[i].BookingDate.After(out[j].BookingDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) ListBookingsByTenant(_ context.Context, tenantID int64) ([]*model.Booking, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListBookingsByTenant"); err != nil {
		return nil, err
	}
	return s.listBookings(func(b model.Booking) bool { return b.TenantID == tenantID }), nil
}

func (s *Store) ListBookingsByLandlord(_ context.Context, landlordID int64) ([]*model.Booking, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListBookingsByLandlord"); err != nil {
		return nil, err
	}
	return s.listBookings(func(b model.Booking) bool { return b.LandlordID == landlordID }), nil
}

func (s *Store) ActiveTenants(_ context.Context, tenantIDs []int64) (map[int64]bool, error) {
	defer s.mu.Unlock()
	if err := s.lock("ActiveTenants"); err != nil {
		return nil, err
	}
	wanted := make(map[int64]bool, len(tenantIDs))
	for _, id := range tenantIDs {
		wanted[id] = true
	}
	active := map[int64]bool{}
	for _, b := range s.data.bookings {
		if wanted[b.TenantID] && b.Status.IsActive() {
			active[b.TenantID] = true
		}
	}
	return active, nil
}
