package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type BillRepository struct {
	db *base.Repository
}

func NewBillRepository(db *base.Repository) *BillRepository {
	return &BillRepository{db: db}
}

const billColumns = `
	id, occupancy_id, tenant_id, landlord_id, property_id, kind, rent_amount, water_bill,
	electrical_bill, wifi_bill, other_bills, security_deposit_amount, advance_amount,
	due_date, status, description, proof_url, payment_method, amount_paid, paid_at,
	created_at, updated_at
`

func scanBill(row pgx.Row) (*model.Bill, error) {
	var b model.Bill
	var due time.Time
	err := row.Scan(
		&b.ID,
		&b.OccupancyID,
		&b.TenantID,
		&b.LandlordID,
		&b.PropertyID,
		&b.Kind,
		&b.RentAmount,
		&b.WaterBill,
		&b.ElectricalBill,
		&b.WifiBill,
		&b.OtherBills,
		&b.SecurityDepositAmount,
		&b.AdvanceAmount,
		&due,
		&b.Status,
		&b.Description,
		&b.ProofURL,
		&b.PaymentMethod,
		&b.AmountPaid,
		&b.PaidAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.DueDate = base.Date(due)
	return &b, nil
}

func (r *BillRepository) CreateBill(ctx context.Context, bill *model.Bill) error {
	query := `
		INSERT INTO bills (
			occupancy_id, tenant_id, landlord_id, property_id, kind, rent_amount, water_bill,
			electrical_bill, wifi_bill, other_bills, security_deposit_amount, advance_amount,
			due_date, status, description, proof_url, payment_method, amount_paid, paid_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		bill.OccupancyID,
		bill.TenantID,
		bill.LandlordID,
		bill.PropertyID,
		bill.Kind,
		bill.RentAmount,
		bill.WaterBill,
		bill.ElectricalBill,
		bill.WifiBill,
		bill.OtherBills,
		bill.SecurityDepositAmount,
		bill.AdvanceAmount,
		base.DateArg(bill.DueDate),
		bill.Status,
		bill.Description,
		bill.ProofURL,
		bill.PaymentMethod,
		bill.AmountPaid,
		bill.PaidAt,
	).Scan(&bill.ID, &bill.CreatedAt, &bill.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create bill: %w", err)
	}

	return nil
}

func (r *BillRepository) get(ctx context.Context, id int64, lock bool) (*model.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	bill, err := scanBill(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return bill, nil
}

func (r *BillRepository) GetBill(ctx context.Context, id int64) (*model.Bill, error) {
	return r.get(ctx, id, false)
}

func (r *BillRepository) LockBill(ctx context.Context, id int64) (*model.Bill, error) {
	return r.get(ctx, id, true)
}

func (r *BillRepository) UpdateBill(ctx context.Context, bill *model.Bill) error {
	query := `
		UPDATE bills
		SET water_bill = $1, electrical_bill = $2, wifi_bill = $3, other_bills = $4,
		    due_date = $5, status = $6, description = $7, proof_url = $8,
		    payment_method = $9, amount_paid = $10, paid_at = $11, updated_at = now()
		WHERE id = $12
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		bill.WaterBill,
		bill.ElectricalBill,
		bill.WifiBill,
		bill.OtherBills,
		base.DateArg(bill.DueDate),
		bill.Status,
		bill.Description,
		bill.ProofURL,
		bill.PaymentMethod,
		bill.AmountPaid,
		bill.PaidAt,
		bill.ID,
	).Scan(&bill.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return apperr.NotFound("bill", bill.ID)
		}
		return fmt.Errorf("update bill: %w", err)
	}

	return nil
}

func (r *BillRepository) list(ctx context.Context, query string, args ...any) ([]*model.Bill, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var bills []*model.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, bill)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}

	return bills, nil
}

func (r *BillRepository) ListBillsByOccupancy(ctx context.Context, occupancyID int64) ([]*model.Bill, error) {
	return r.list(ctx,
		`SELECT `+billColumns+` FROM bills WHERE occupancy_id = $1 ORDER BY due_date, id`,
		occupancyID)
}

func (r *BillRepository) ListBillsByTenant(ctx context.Context, tenantID int64) ([]*model.Bill, error) {
	return r.list(ctx,
		`SELECT `+billColumns+` FROM bills WHERE tenant_id = $1 ORDER BY due_date DESC, id DESC`,
		tenantID)
}

// ListOverdueRent locks the pending rent bills of a lease due before day that carry no late fee yet
func (r *BillRepository) ListOverdueRent(ctx context.Context, occupancyID int64, day civil.Date) ([]*model.Bill, error) {
	query := `
		SELECT ` + billColumns + `
		FROM bills
		WHERE occupancy_id = $1
		  AND status = $2
		  AND rent_amount > 0
		  AND due_date < $3
		  AND strpos(description, $4) = 0
		ORDER BY due_date, id
		FOR UPDATE
	`
	return r.list(ctx, query, occupancyID, model.BillStatusPending, base.DateArg(day), model.LateFeeMarker)
}

// BalanceRepository stores the running tenant balance per lease
type BalanceRepository struct {
	db *base.Repository
}

func NewBalanceRepository(db *base.Repository) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// GetBalance returns zero for a lease without a balance row
func (r *BalanceRepository) GetBalance(ctx context.Context, occupancyID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT balance FROM tenant_balances WHERE occupancy_id = $1`, occupancyID).Scan(&balance)
	if err != nil {
		if base.IsNotFound(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (r *BalanceRepository) SetBalance(ctx context.Context, occupancyID, tenantID int64, balance decimal.Decimal) error {
	query := `
		INSERT INTO tenant_balances (occupancy_id, tenant_id, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (occupancy_id) DO UPDATE
		SET balance = EXCLUDED.balance, updated_at = now()
	`

	if _, err := r.db.ExecAffected(ctx, query, occupancyID, tenantID, balance); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}
