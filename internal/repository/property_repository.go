package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/repository/base"
)

// PropertyRepository reads the property rows owned by the listings service
type PropertyRepository struct {
	db *base.Repository
}

func NewPropertyRepository(db *base.Repository) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) get(ctx context.Context, id int64, lock bool) (*model.Property, error) {
	query := `
		SELECT id, landlord_id, title, rent_amount, status
		FROM properties
		WHERE id = $1
	`
	if lock {
		query += ` FOR UPDATE`
	}

	var p model.Property
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.LandlordID,
		&p.Title,
		&p.RentAmount,
		&p.Status,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get property: %w", err)
	}

	return &p, nil
}

func (r *PropertyRepository) GetProperty(ctx context.Context, id int64) (*model.Property, error) {
	return r.get(ctx, id, false)
}

// LockProperty reads the property with FOR UPDATE; call it inside WithinTx
func (r *PropertyRepository) LockProperty(ctx context.Context, id int64) (*model.Property, error) {
	return r.get(ctx, id, true)
}

func (r *PropertyRepository) SetPropertyStatus(ctx context.Context, id int64, status model.PropertyStatus) error {
	affected, err := r.db.ExecAffected(ctx, `UPDATE properties SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("set property status: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("property", id)
	}
	return nil
}

// ApplicationRepository lists rental applications; they are written by the listings service
type ApplicationRepository struct {
	db *base.Repository
}

func NewApplicationRepository(db *base.Repository) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) list(ctx context.Context, column string, id int64) ([]*model.Application, error) {
	query := `
		SELECT id, tenant_id, property_id, landlord_id, status, created_at
		FROM applications
		WHERE ` + column + ` = $1 AND status = $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, id, model.ApplicationStatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []*model.Application
	for rows.Next() {
		var a model.Application
		if err := rows.Scan(&a.ID, &a.TenantID, &a.PropertyID, &a.LandlordID, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}

	return apps, nil
}

func (r *ApplicationRepository) ListAcceptedByTenant(ctx context.Context, tenantID int64) ([]*model.Application, error) {
	return r.list(ctx, "tenant_id", tenantID)
}

func (r *ApplicationRepository) ListAcceptedByLandlord(ctx context.Context, landlordID int64) ([]*model.Application, error) {
	return r.list(ctx, "landlord_id", landlordID)
}
