package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type BookingRepository struct {
	db *base.Repository
}

func NewBookingRepository(db *base.Repository) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingSelect = `
	SELECT b.id, b.tenant_id, b.landlord_id, b.property_id, b.time_slot_id, b.status, b.notes,
	       b.booking_date, b.created_at, b.updated_at,
	       s.id, s.landlord_id, s.start_time, s.end_time, s.is_booked, s.created_at
	FROM bookings b
	JOIN time_slots s ON s.id = b.time_slot_id
`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	var slot model.TimeSlot
	err := row.Scan(
		&b.ID,
		&b.TenantID,
		&b.LandlordID,
		&b.PropertyID,
		&b.TimeSlotID,
		&b.Status,
		&b.Notes,
		&b.BookingDate,
		&b.CreatedAt,
		&b.UpdatedAt,
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
	b.Slot = &slot
	return &b, nil
}

func activeStatuses() []string {
	statuses := model.ActiveBookingStatuses()
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// CreateBooking inserts a booking. The partial unique indexes back up the service checks:
// a second live booking on a slot or for a tenant fails here even under a race.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (tenant_id, landlord_id, property_id, time_slot_id, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, booking_date, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		booking.TenantID,
		booking.LandlordID,
		booking.PropertyID,
		booking.TimeSlotID,
		booking.Status,
		booking.Notes,
	).Scan(&booking.ID, &booking.BookingDate, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			switch base.ConstraintName(err) {
			case "uq_bookings_live_slot":
				return fmt.Errorf("create booking: %w", apperr.ErrSlotTaken)
			case "uq_bookings_live_tenant":
				return fmt.Errorf("create booking: %w", apperr.ErrLimitExceeded)
			}
			return fmt.Errorf("create booking: %w", apperr.ErrDuplicate)
		}
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

func (r *BookingRepository) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	booking, err := scanBooking(r.db.QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}
	return booking, nil
}

// LockTenantBookings takes a transaction scoped advisory lock keyed by tenant.
// Outside a transaction the lock is released immediately.
func (r *BookingRepository) LockTenantBookings(ctx context.Context, tenantID int64) error {
	if _, err := r.db.ExecAffected(ctx, `SELECT pg_advisory_xact_lock($1)`, tenantID); err != nil {
		return fmt.Errorf("lock tenant bookings: %w", err)
	}
	return nil
}

func (r *BookingRepository) CountActiveByTenant(ctx context.Context, tenantID, excludeBookingID int64) (int, error) {
	query := `
		SELECT count(*)
		FROM bookings
		WHERE tenant_id = $1 AND status = ANY($2) AND id <> $3
	`

	var count int
	if err := r.db.QueryRow(ctx, query, tenantID, activeStatuses(), excludeBookingID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active bookings: %w", err)
	}
	return count, nil
}

func (r *BookingRepository) UpdateBookingStatus(ctx context.Context, id int64, to model.BookingStatus, from ...model.BookingStatus) (bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	query := `
		UPDATE bookings
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = ANY($3)
	`

	affected, err := r.db.ExecAffected(ctx, query, to, id, allowed)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return false, fmt.Errorf("update booking status: %w", apperr.ErrDuplicate)
		}
		return false, fmt.Errorf("update booking status: %w", err)
	}
	return affected == 1, nil
}

func (r *BookingRepository) list(ctx context.Context, where string, arg any) ([]*model.Booking, error) {
	rows, err := r.db.Query(ctx, bookingSelect+where+` ORDER BY b.booking_date DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

func (r *BookingRepository) ListBookingsByTenant(ctx context.Context, tenantID int64) ([]*model.Booking, error) {
	return r.list(ctx, ` WHERE b.tenant_id = $1`, tenantID)
}

func (r *BookingRepository) ListBookingsByLandlord(ctx context.Context, landlordID int64) ([]*model.Booking, error) {
	return r.list(ctx, ` WHERE b.landlord_id = $1`, landlordID)
}

// ActiveTenants reports which of the tenants hold a pending or approved booking anywhere
func (r *BookingRepository) ActiveTenants(ctx context.Context, tenantIDs []int64) (map[int64]bool, error) {
	active := make(map[int64]bool)
	if len(tenantIDs) == 0 {
		return active, nil
	}

	query := `
		SELECT DISTINCT tenant_id
		FROM bookings
		WHERE tenant_id = ANY($1) AND status = ANY($2)
	`

	rows, err := r.db.Query(ctx, query, tenantIDs, activeStatuses())
	if err != nil {
		return nil, fmt.Errorf("find active tenants: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect active tenants: %w", err)
	}
	for _, id := range ids {
		active[id] = true
	}

	return active, nil
}
