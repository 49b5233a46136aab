package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type SlotRepository struct {
	db *base.Repository
}

func NewSlotRepository(db *base.Repository) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = `id, landlord_id, start_time, end_time, is_booked, created_at`

func scanSlot(row pgx.Row) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	err := row.Scan(
		&slot.ID,
		&slot.LandlordID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsBooked,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// CreateSlots inserts the batch in one round trip; a batch runs in an implicit
// transaction, so either every slot is stored or none is.
func (r *SlotRepository) CreateSlots(ctx context.Context, slots []*model.TimeSlot) error {
	query := `
		INSERT INTO time_slots (landlord_id, start_time, end_time, is_booked)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id, created_at
	`

	batch := &pgx.Batch{}
	for _, slot := range slots {
		batch.Queue(query, slot.LandlordID, slot.StartTime, slot.EndTime)
	}

	results := r.db.Conn(ctx).SendBatch(ctx, batch)
	defer results.Close()

	for _, slot := range slots {
		if err := results.QueryRow().Scan(&slot.ID, &slot.CreatedAt); err != nil {
			if base.IsUniqueViolation(err) {
				return fmt.Errorf("create slot at %s: %w", slot.StartTime.Format(time.RFC3339), apperr.ErrDuplicate)
			}
			return fmt.Errorf("create slot: %w", err)
		}
	}

	return nil
}

func (r *SlotRepository) GetSlot(ctx context.Context, id int64) (*model.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// ReserveSlot is a compare-and-swap on is_booked
func (r *SlotRepository) ReserveSlot(ctx context.Context, id int64) (bool, error) {
	affected, err := r.db.ExecAffected(ctx,
		`UPDATE time_slots SET is_booked = TRUE WHERE id = $1 AND is_booked = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}
	return affected == 1, nil
}

func (r *SlotRepository) ReleaseSlot(ctx context.Context, id int64) error {
	_, err := r.db.ExecAffected(ctx, `UPDATE time_slots SET is_booked = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

func (r *SlotRepository) DeleteFreeSlot(ctx context.Context, landlordID, id int64, now time.Time) (bool, error) {
	query := `
		DELETE FROM time_slots
		WHERE id = $1 AND landlord_id = $2 AND is_booked = FALSE AND start_time > $3
	`

	affected, err := r.db.ExecAffected(ctx, query, id, landlordID, now)
	if err != nil {
		return false, fmt.Errorf("delete slot: %w", err)
	}
	return affected == 1, nil
}

func (r *SlotRepository) ListSlots(ctx context.Context, landlordID int64, from, to time.Time) ([]*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE landlord_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, landlordID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.TimeSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}
