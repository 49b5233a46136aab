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

type OccupancyRepository struct {
	db *base.Repository
}

func NewOccupancyRepository(db *base.Repository) *OccupancyRepository {
	return &OccupancyRepository{db: db}
}

const occupancyColumns = `
	id, property_id, tenant_id, landlord_id, status, start_date, contract_end_date,
	end_date, end_request_date, end_reason, security_deposit, security_deposit_used,
	late_fee, wifi_due_day, renewal_requested, renewal_status, renewal_meeting_date,
	created_at, updated_at
`

func scanOccupancy(row pgx.Row) (*model.Occupancy, error) {
	var o model.Occupancy
	var start, contractEnd time.Time
	var end, endRequest, meeting *time.Time
	err := row.Scan(
		&o.ID,
		&o.PropertyID,
		&o.TenantID,
		&o.LandlordID,
		&o.Status,
		&start,
		&contractEnd,
		&end,
		&endRequest,
		&o.EndReason,
		&o.SecurityDeposit,
		&o.SecurityDepositUsed,
		&o.LateFee,
		&o.WifiDueDay,
		&o.RenewalRequested,
		&o.RenewalStatus,
		&meeting,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.StartDate = base.Date(start)
	o.ContractEndDate = base.Date(contractEnd)
	o.EndDate = base.NullDate(end)
	o.EndRequestDate = base.NullDate(endRequest)
	o.RenewalMeetingDate = base.NullDate(meeting)
	return &o, nil
}

func (r *OccupancyRepository) CreateOccupancy(ctx context.Context, occ *model.Occupancy) error {
	query := `
		INSERT INTO occupancies (
			property_id, tenant_id, landlord_id, status, start_date, contract_end_date,
			security_deposit, security_deposit_used, late_fee, wifi_due_day, renewal_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		occ.PropertyID,
		occ.TenantID,
		occ.LandlordID,
		occ.Status,
		base.DateArg(occ.StartDate),
		base.DateArg(occ.ContractEndDate),
		occ.SecurityDeposit,
		occ.SecurityDepositUsed,
		occ.LateFee,
		occ.WifiDueDay,
		occ.RenewalStatus,
	).Scan(&occ.ID, &occ.CreatedAt, &occ.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create occupancy: %w", apperr.ErrDuplicate)
		}
		return fmt.Errorf("create occupancy: %w", err)
	}

	return nil
}

func (r *OccupancyRepository) get(ctx context.Context, id int64, lock bool) (*model.Occupancy, error) {
	query := `SELECT ` + occupancyColumns + ` FROM occupancies WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	occ, err := scanOccupancy(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get occupancy: %w", err)
	}
	return occ, nil
}

func (r *OccupancyRepository) GetOccupancy(ctx context.Context, id int64) (*model.Occupancy, error) {
	return r.get(ctx, id, false)
}

func (r *OccupancyRepository) LockOccupancy(ctx context.Context, id int64) (*model.Occupancy, error) {
	return r.get(ctx, id, true)
}

func (r *OccupancyRepository) UpdateOccupancy(ctx context.Context, occ *model.Occupancy) error {
	query := `
		UPDATE occupancies
		SET status = $1, contract_end_date = $2, end_date = $3, end_request_date = $4,
		    end_reason = $5, security_deposit = $6, security_deposit_used = $7, late_fee = $8,
		    wifi_due_day = $9, renewal_requested = $10, renewal_status = $11,
		    renewal_meeting_date = $12, updated_at = now()
		WHERE id = $13
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		occ.Status,
		base.DateArg(occ.ContractEndDate),
		base.NullDateArg(occ.EndDate),
		base.NullDateArg(occ.EndRequestDate),
		occ.EndReason,
		occ.SecurityDeposit,
		occ.SecurityDepositUsed,
		occ.LateFee,
		occ.WifiDueDay,
		occ.RenewalRequested,
		occ.RenewalStatus,
		base.NullDateArg(occ.RenewalMeetingDate),
		occ.ID,
	).Scan(&occ.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return apperr.NotFound("occupancy", occ.ID)
		}
		return fmt.Errorf("update occupancy: %w", err)
	}

	return nil
}

func (r *OccupancyRepository) GetActiveByTenant(ctx context.Context, tenantID int64) (*model.Occupancy, error) {
	query := `
		SELECT ` + occupancyColumns + `
		FROM occupancies
		WHERE tenant_id = $1 AND status IN ('active', 'pending_end')
		ORDER BY start_date DESC
		LIMIT 1
	`

	occ, err := scanOccupancy(r.db.QueryRow(ctx, query, tenantID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active occupancy: %w", err)
	}
	return occ, nil
}

func (r *OccupancyRepository) ListActiveByLandlord(ctx context.Context, landlordID int64) ([]*model.Occupancy, error) {
	query := `
		SELECT ` + occupancyColumns + `
		FROM occupancies
		WHERE landlord_id = $1 AND status = 'active'
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, landlordID)
	if err != nil {
		return nil, fmt.Errorf("list active occupancies: %w", err)
	}
	defer rows.Close()

	var out []*model.Occupancy
	for rows.Next() {
		occ, err := scanOccupancy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan occupancy: %w", err)
		}
		out = append(out, occ)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate occupancies: %w", err)
	}

	return out, nil
}

func (r *OccupancyRepository) ListLandlordsWithActive(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT landlord_id FROM occupancies WHERE status = 'active' ORDER BY landlord_id`)
	if err != nil {
		return nil, fmt.Errorf("list landlords: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect landlords: %w", err)
	}
	return ids, nil
}
