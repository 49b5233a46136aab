package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"go.uber.org/zap"
)

// ModificationWindow is how long before the appointment a booking freezes
const ModificationWindow = 12 * time.Hour

// DefaultSlotHorizonDays is how far ahead AvailableSlots looks by default
const DefaultSlotHorizonDays = 14

type BookingService struct {
	tx           Transactor
	users        UserStore
	properties   PropertyStore
	bookings     BookingStore
	applications ApplicationStore
	slots        *SlotService
	cal          calendar
	out          dispatcher
	logger       *zap.Logger
}

func NewBookingService(
	tx Transactor,
	users UserStore,
	properties PropertyStore,
	bookings BookingStore,
	applications ApplicationStore,
	slots *SlotService,
	notifier Notifier,
	now Clock,
	loc *time.Location,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		tx:           tx,
		users:        users,
		properties:   properties,
		bookings:     bookings,
		applications: applications,
		slots:        slots,
		cal:          newCalendar(now, loc),
		out:          dispatcher{notifier: notifier, logger: logger},
		logger:       logger,
	}
}

// CreateBooking reserves a slot for a property viewing. The tenant limit check,
// the reservation and the insert share one transaction.
func (s *BookingService) CreateBooking(ctx context.Context, tenantID, propertyID, slotID int64, notes string) (*model.Booking, error) {
	if slotID == 0 {
		return nil, apperr.Validation("no slot selected")
	}

	if _, err := requireRole(ctx, s.users, tenantID, model.RoleTenant); err != nil {
		return nil, err
	}

	property, err := s.getProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSlotFor(property, slot); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		TenantID:    tenantID,
		LandlordID:  property.LandlordID,
		PropertyID:  propertyID,
		TimeSlotID:  slotID,
		Status:      model.BookingStatusPending,
		Notes:       notes,
		BookingDate: s.cal.Now(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureNoActiveBooking(ctx, tenantID, 0); err != nil {
			return err
		}
		if err := s.slots.Reserve(ctx, slotID); err != nil {
			return err
		}
		if err := s.bookings.CreateBooking(ctx, booking); err != nil {
			return apperr.Persistence("create booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("tenant_id", tenantID),
		zap.Int64("property_id", propertyID),
		zap.Int64("slot_id", slotID),
	)

	booking.Slot = slot
	s.out.send(ctx, s.note(booking, booking.LandlordID, model.NotificationNewBooking,
		fmt.Sprintf("New viewing request for %s on %s", property.Title, formatSlot(slot))))

	return booking, nil
}

// Approve confirms a pending booking; the slot stays reserved
func (s *BookingService) Approve(ctx context.Context, landlordID, bookingID int64) (*model.Booking, error) {
	booking, err := s.getOwnedByLandlord(ctx, landlordID, bookingID)
	if err != nil {
		return nil, err
	}

	ok, err := s.bookings.UpdateBookingStatus(ctx, bookingID, model.BookingStatusApproved, model.BookingStatusPending)
	if err != nil {
		return nil, apperr.Persistence("approve booking", err)
	}
	if !ok {
		return nil, apperr.Conflict("booking %d is not pending", bookingID)
	}
	booking.Status = model.BookingStatusApproved

	s.logger.Info("Booking approved",
		zap.Int64("booking_id", bookingID),
		zap.Int64("landlord_id", landlordID),
	)

	s.out.send(ctx, s.note(booking, booking.TenantID, model.NotificationBookingApproved,
		fmt.Sprintf("Your viewing on %s was approved", formatSlot(booking.Slot))))

	return booking, nil
}

// Reject declines a pending or approved booking and re-opens its slot
func (s *BookingService) Reject(ctx context.Context, landlordID, bookingID int64) (*model.Booking, error) {
	booking, err := s.getOwnedByLandlord(ctx, landlordID, bookingID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.bookings.UpdateBookingStatus(ctx, bookingID, model.BookingStatusRejected, model.ActiveBookingStatuses()...)
		if err != nil {
			return apperr.Persistence("reject booking", err)
		}
		if !ok {
			return apperr.Conflict("booking %d is no longer active", bookingID)
		}
		return s.slots.Release(ctx, booking.TimeSlotID)
	})
	if err != nil {
		return nil, err
	}
	booking.Status = model.BookingStatusRejected

	s.logger.Info("Booking rejected",
		zap.Int64("booking_id", bookingID),
		zap.Int64("landlord_id", landlordID),
	)

	s.out.send(ctx, s.note(booking, booking.TenantID, model.NotificationBookingRejected,
		fmt.Sprintf("Your viewing on %s was declined", formatSlot(booking.Slot))))

	return booking, nil
}

// Complete closes an approved booking once the viewing started; the slot stays consumed
func (s *BookingService) Complete(ctx context.Context, landlordID, bookingID int64) (*model.Booking, error) {
	booking, err := s.getOwnedByLandlord(ctx, landlordID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Slot != nil && s.cal.Now().Before(booking.Slot.StartTime) {
		return nil, apperr.Validation("viewing for booking %d has not started yet", bookingID)
	}

	ok, err := s.bookings.UpdateBookingStatus(ctx, bookingID, model.BookingStatusCompleted, model.BookingStatusApproved)
	if err != nil {
		return nil, apperr.Persistence("complete booking", err)
	}
	if !ok {
		return nil, apperr.Conflict("booking %d is not approved", bookingID)
	}
	booking.Status = model.BookingStatusCompleted

	s.logger.Info("Booking completed", zap.Int64("booking_id", bookingID))
	return booking, nil
}

// Cancel withdraws a tenant's booking outside the modification window and releases the slot
func (s *BookingService) Cancel(ctx context.Context, tenantID, bookingID int64) (*model.Booking, error) {
	booking, err := s.getOwnedByTenant(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.IsActive() {
		return nil, apperr.Conflict("booking %d is not active", bookingID)
	}
	if err := s.checkWindow(booking.Slot); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.cancelLocked(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	booking.Status = model.BookingStatusCancelled

	s.logger.Info("Booking cancelled",
		zap.Int64("booking_id", bookingID),
		zap.Int64("tenant_id", tenantID),
	)

	s.out.send(ctx, s.note(booking, booking.LandlordID, model.NotificationBookingCancelled,
		fmt.Sprintf("Viewing on %s was cancelled by the tenant", formatSlot(booking.Slot))))

	return booking, nil
}

// Reschedule cancels a booking and books another slot of the same landlord in one transaction.
// The booking being replaced does not count against the tenant limit.
func (s *BookingService) Reschedule(ctx context.Context, tenantID, bookingID, newSlotID int64) (*model.Booking, error) {
	old, err := s.getOwnedByTenant(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	if !old.Status.IsActive() {
		return nil, apperr.Conflict("booking %d is not active", bookingID)
	}
	if newSlotID == old.TimeSlotID {
		return nil, apperr.Validation("booking %d already uses slot %d", bookingID, newSlotID)
	}
	if err := s.checkWindow(old.Slot); err != nil {
		return nil, err
	}

	property, err := s.getProperty(ctx, old.PropertyID)
	if err != nil {
		return nil, err
	}
	newSlot, err := s.slots.GetSlot(ctx, newSlotID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSlotFor(property, newSlot); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		TenantID:    tenantID,
		LandlordID:  old.LandlordID,
		PropertyID:  old.PropertyID,
		TimeSlotID:  newSlotID,
		Status:      model.BookingStatusPending,
		Notes:       old.Notes,
		BookingDate: s.cal.Now(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureNoActiveBooking(ctx, tenantID, old.ID); err != nil {
			return err
		}
		if err := s.slots.Reserve(ctx, newSlotID); err != nil {
			return err
		}
		if err := s.cancelLocked(ctx, old); err != nil {
			return err
		}
		if err := s.bookings.CreateBooking(ctx, booking); err != nil {
			return apperr.Persistence("create booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking rescheduled",
		zap.Int64("old_booking_id", old.ID),
		zap.Int64("booking_id", booking.ID),
		zap.Int64("slot_id", newSlotID),
	)

	booking.Slot = newSlot
	s.out.send(ctx, s.note(booking, booking.LandlordID, model.NotificationNewBooking,
		fmt.Sprintf("Viewing for %s moved from %s to %s", property.Title, formatSlot(old.Slot), formatSlot(newSlot))))

	return booking, nil
}

// GetBooking returns a booking with its slot
func (s *BookingService) GetBooking(ctx context.Context, bookingID int64) (*model.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, apperr.Persistence("get booking", err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking", bookingID)
	}

	slot, err := s.slots.GetSlot(ctx, booking.TimeSlotID)
	if err != nil {
		return nil, err
	}
	booking.Slot = slot
	return booking, nil
}

func (s *BookingService) cancelLocked(ctx context.Context, booking *model.Booking) error {
	ok, err := s.bookings.UpdateBookingStatus(ctx, booking.ID, model.BookingStatusCancelled, model.ActiveBookingStatuses()...)
	if err != nil {
		return apperr.Persistence("cancel booking", err)
	}
	if !ok {
		return apperr.Conflict("booking %d is no longer active", booking.ID)
	}
	return s.slots.Release(ctx, booking.TimeSlotID)
}

func (s *BookingService) ensureNoActiveBooking(ctx context.Context, tenantID, excludeBookingID int64) error {
	if err := s.bookings.LockTenantBookings(ctx, tenantID); err != nil {
		return apperr.Persistence("lock tenant bookings", err)
	}
	active, err := s.bookings.CountActiveByTenant(ctx, tenantID, excludeBookingID)
	if err != nil {
		return apperr.Persistence("count active bookings", err)
	}
	if active > 0 {
		return apperr.ErrLimitExceeded
	}
	return nil
}

func (s *BookingService) checkWindow(slot *model.TimeSlot) error {
	if slot == nil {
		return nil
	}
	if !s.cal.Now().Before(slot.StartTime.Add(-ModificationWindow)) {
		return apperr.ErrWindowClosed
	}
	return nil
}

func (s *BookingService) checkSlotFor(property *model.Property, slot *model.TimeSlot) error {
	if slot.LandlordID != property.LandlordID {
		return apperr.Validation("slot %d is not offered for property %d", slot.ID, property.ID)
	}
	if !slot.StartTime.After(s.cal.Now()) {
		return apperr.Validation("slot %d already started", slot.ID)
	}
	return nil
}

// AvailableSlots lists the free future viewing slots of the property's landlord within the next days
func (s *BookingService) AvailableSlots(ctx context.Context, propertyID int64, days int) (*model.Property, []*model.TimeSlot, error) {
	property, err := s.getProperty(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	if days <= 0 {
		days = DefaultSlotHorizonDays
	}

	now := s.cal.Now()
	all, err := s.slots.ListSlots(ctx, property.LandlordID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, nil, err
	}

	free := make([]*model.TimeSlot, 0, len(all))
	for _, slot := range all {
		if !slot.IsBooked && slot.StartTime.After(now) {
			free = append(free, slot)
		}
	}
	return property, free, nil
}

func (s *BookingService) getProperty(ctx context.Context, propertyID int64) (*model.Property, error) {
	property, err := s.properties.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, apperr.Persistence("get property", err)
	}
	if property == nil {
		return nil, apperr.NotFound("property", propertyID)
	}
	return property, nil
}

func (s *BookingService) getOwnedByLandlord(ctx context.Context, landlordID, bookingID int64) (*model.Booking, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.LandlordID != landlordID {
		return nil, apperr.Forbidden("booking %d belongs to another landlord", bookingID)
	}
	return booking, nil
}

func (s *BookingService) getOwnedByTenant(ctx context.Context, tenantID, bookingID int64) (*model.Booking, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.TenantID != tenantID {
		return nil, apperr.Forbidden("booking %d belongs to another tenant", bookingID)
	}
	return booking, nil
}

func (s *BookingService) note(b *model.Booking, recipientID int64, typ model.NotificationType, msg string) model.Notification {
	return model.Notification{
		RecipientID: recipientID,
		Type:        typ,
		Message:     msg,
		Metadata: map[string]string{
			"booking_id":  strconv.FormatInt(b.ID, 10),
			"property_id": strconv.FormatInt(b.PropertyID, 10),
			"status":      string(b.Status),
		},
	}
}

func formatSlot(slot *model.TimeSlot) string {
	if slot == nil {
		return "an unknown slot"
	}
	return fmt.Sprintf("%s %s-%s",
		slot.StartTime.Format("02.01.2006"),
		slot.StartTime.Format("15:04"),
		slot.EndTime.Format("15:04"),
	)
}
