package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"go.uber.org/zap"
)

// SlotService owns viewing slots and their exclusive reservation
type SlotService struct {
	users  UserStore
	slots  SlotStore
	cal    calendar
	logger *zap.Logger
}

func NewSlotService(users UserStore, slots SlotStore, now Clock, loc *time.Location, logger *zap.Logger) *SlotService {
	return &SlotService{
		users:  users,
		slots:  slots,
		cal:    newCalendar(now, loc),
		logger: logger,
	}
}

// CreateSlots publishes viewing slots for a landlord. Any slot in the past rejects the whole batch.
func (s *SlotService) CreateSlots(ctx context.Context, landlordID int64, requests []model.SlotRequest) ([]*model.TimeSlot, error) {
	if len(requests) == 0 {
		return nil, apperr.Validation("no slot selected")
	}

	if _, err := requireRole(ctx, s.users, landlordID, model.RoleLandlord); err != nil {
		return nil, err
	}

	now := s.cal.Now()
	slots := make([]*model.TimeSlot, 0, len(requests))
	for _, req := range requests {
		start, end, err := req.Shape.Window(req.Date, s.cal.loc)
		if err != nil {
			return nil, apperr.Validation("%v", err)
		}
		if !start.After(now) {
			return nil, apperr.Validation("slot %s %s is in the past", req.Date, req.Shape)
		}
		slots = append(slots, &model.TimeSlot{
			LandlordID: landlordID,
			StartTime:  start,
			EndTime:    end,
		})
	}

	if err := s.slots.CreateSlots(ctx, slots); err != nil {
		return nil, apperr.Persistence("create slots", err)
	}

	s.logger.Info("Slots created",
		zap.Int64("landlord_id", landlordID),
		zap.Int("count", len(slots)),
	)

	return slots, nil
}

// Reserve marks a slot as booked. Two concurrent callers get exactly one success.
func (s *SlotService) Reserve(ctx context.Context, slotID int64) error {
	ok, err := s.slots.ReserveSlot(ctx, slotID)
	if err != nil {
		return apperr.Persistence("reserve slot", err)
	}
	if ok {
		return nil
	}

	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return apperr.Persistence("get slot", err)
	}
	if slot == nil {
		return apperr.NotFound("slot", slotID)
	}
	return apperr.ErrSlotTaken
}

// Release frees a slot after its booking was rejected or cancelled
func (s *SlotService) Release(ctx context.Context, slotID int64) error {
	if err := s.slots.ReleaseSlot(ctx, slotID); err != nil {
		return apperr.Persistence("release slot", err)
	}
	return nil
}

// GetSlot returns a slot or a not-found error
func (s *SlotService) GetSlot(ctx context.Context, slotID int64) (*model.TimeSlot, error) {
	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return nil, apperr.Persistence("get slot", err)
	}
	if slot == nil {
		return nil, apperr.NotFound("slot", slotID)
	}
	return slot, nil
}

// DeleteSlot removes an unbooked future slot of the landlord
func (s *SlotService) DeleteSlot(ctx context.Context, landlordID, slotID int64) error {
	slot, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if slot.LandlordID != landlordID {
		return apperr.Forbidden("slot %d belongs to another landlord", slotID)
	}

	deleted, err := s.slots.DeleteFreeSlot(ctx, landlordID, slotID, s.cal.Now())
	if err != nil {
		return apperr.Persistence("delete slot", err)
	}
	if !deleted {
		return apperr.Conflict("slot %d is booked or already started", slotID)
	}

	s.logger.Info("Slot deleted",
		zap.Int64("slot_id", slotID),
		zap.Int64("landlord_id", landlordID),
	)
	return nil
}

// ListSlots returns the landlord's slots starting in [from, to)
func (s *SlotService) ListSlots(ctx context.Context, landlordID int64, from, to time.Time) ([]*model.TimeSlot, error) {
	slots, err := s.slots.ListSlots(ctx, landlordID, from, to)
	if err != nil {
		return nil, apperr.Persistence("list slots", err)
	}
	return slots, nil
}
