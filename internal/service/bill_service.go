package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BillService issues payment requests and runs their verification state machine
type BillService struct {
	tx       Transactor
	bills    BillStore
	balances BalanceStore
	cal      calendar
	out      dispatcher
	logger   *zap.Logger
}

func NewBillService(tx Transactor, bills BillStore, balances BalanceStore, notifier Notifier, now Clock, loc *time.Location, logger *zap.Logger) *BillService {
	return &BillService{
		tx:       tx,
		bills:    bills,
		balances: balances,
		cal:      newCalendar(now, loc),
		out:      dispatcher{notifier: notifier, logger: logger},
		logger:   logger,
	}
}

// Issue stores a bill for a lease. Callers run it inside their own transaction.
func (s *BillService) Issue(ctx context.Context, occ *model.Occupancy, bill *model.Bill) error {
	bill.OccupancyID = occ.ID
	bill.TenantID = occ.TenantID
	bill.LandlordID = occ.LandlordID
	bill.PropertyID = occ.PropertyID
	if bill.Status == "" {
		bill.Status = model.BillStatusPending
	}
	if bill.Status == model.BillStatusPaid && bill.PaidAt == nil {
		now := s.cal.Now()
		bill.PaidAt = &now
		bill.AmountPaid = bill.Total()
	}

	if err := s.bills.CreateBill(ctx, bill); err != nil {
		return apperr.Persistence("create bill", err)
	}

	s.logger.Info("Bill issued",
		zap.Int64("bill_id", bill.ID),
		zap.Int64("occupancy_id", occ.ID),
		zap.String("kind", string(bill.Kind)),
		zap.String("status", string(bill.Status)),
		zap.String("total", bill.Total().String()),
		zap.String("due_date", bill.DueDate.String()),
	)
	return nil
}

// SubmitProof records the tenant's payment proof. amountPaid defaults to the bill total.
func (s *BillService) SubmitProof(ctx context.Context, tenantID, billID int64, proofURL, method string, amountPaid *decimal.Decimal) (*model.Bill, error) {
	proofURL = strings.TrimSpace(proofURL)
	if proofURL == "" {
		return nil, apperr.Validation("payment proof is required")
	}
	if amountPaid != nil && amountPaid.IsNegative() {
		return nil, apperr.Validation("amount paid cannot be negative")
	}

	var bill *model.Bill
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		bill, err = s.lock(ctx, billID)
		if err != nil {
			return err
		}
		if bill.TenantID != tenantID {
			return apperr.Forbidden("bill %d belongs to another tenant", billID)
		}
		if bill.Status != model.BillStatusPending {
			return apperr.Conflict("bill %d is %s, not pending", billID, bill.Status)
		}

		bill.ProofURL = proofURL
		bill.PaymentMethod = method
		bill.AmountPaid = bill.Total()
		if amountPaid != nil {
			bill.AmountPaid = *amountPaid
		}
		bill.Status = model.BillStatusPendingConfirmation

		return apperr.Persistence("update bill", s.bills.UpdateBill(ctx, bill))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment proof submitted",
		zap.Int64("bill_id", billID),
		zap.Int64("tenant_id", tenantID),
		zap.String("amount_paid", bill.AmountPaid.String()),
	)

	s.out.send(ctx, billNote(bill, bill.LandlordID, model.NotificationPaymentSubmitted,
		fmt.Sprintf("Payment of %s submitted for verification", bill.AmountPaid.StringFixed(2))))

	return bill, nil
}

// Verify approves or rejects a submitted payment. Approval settles the tenant balance,
// rejection clears the proof and sends the bill back to pending.
func (s *BillService) Verify(ctx context.Context, landlordID, billID int64, approve bool) (*model.Bill, error) {
	var bill *model.Bill
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		bill, err = s.lock(ctx, billID)
		if err != nil {
			return err
		}
		if bill.LandlordID != landlordID {
			return apperr.Forbidden("bill %d belongs to another landlord", billID)
		}
		if bill.Status != model.BillStatusPendingConfirmation {
			return apperr.Conflict("bill %d is %s, not waiting for confirmation", billID, bill.Status)
		}

		if !approve {
			bill.ProofURL = ""
			bill.PaymentMethod = ""
			bill.AmountPaid = decimal.Zero
			bill.Status = model.BillStatusPending
			return apperr.Persistence("update bill", s.bills.UpdateBill(ctx, bill))
		}

		total := bill.Total()
		old, err := s.balances.GetBalance(ctx, bill.OccupancyID)
		if err != nil {
			return apperr.Persistence("get balance", err)
		}
		balance := old.Add(bill.AmountPaid.Sub(total))
		if err := s.balances.SetBalance(ctx, bill.OccupancyID, bill.TenantID, balance); err != nil {
			return apperr.Persistence("set balance", err)
		}

		now := s.cal.Now()
		bill.Status = model.BillStatusPaid
		bill.PaidAt = &now
		return apperr.Persistence("update bill", s.bills.UpdateBill(ctx, bill))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment verified",
		zap.Int64("bill_id", billID),
		zap.Bool("approved", approve),
	)

	if approve {
		s.out.send(ctx, billNote(bill, bill.TenantID, model.NotificationPaymentVerified,
			fmt.Sprintf("Your payment of %s was confirmed", bill.AmountPaid.StringFixed(2))))
	} else {
		s.out.send(ctx, billNote(bill, bill.TenantID, model.NotificationPaymentRejected,
			"Your payment proof was rejected, please submit it again"))
	}

	return bill, nil
}

// Cancel withdraws a pending bill; cancelled bills never count for due dates
func (s *BillService) Cancel(ctx context.Context, landlordID, billID int64) (*model.Bill, error) {
	var bill *model.Bill
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		bill, err = s.lock(ctx, billID)
		if err != nil {
			return err
		}
		if bill.LandlordID != landlordID {
			return apperr.Forbidden("bill %d belongs to another landlord", billID)
		}
		if bill.Status != model.BillStatusPending {
			return apperr.Conflict("bill %d is %s, not pending", billID, bill.Status)
		}
		bill.Status = model.BillStatusCancelled
		return apperr.Persistence("update bill", s.bills.UpdateBill(ctx, bill))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bill cancelled",
		zap.Int64("bill_id", billID),
		zap.Int64("landlord_id", landlordID),
	)
	return bill, nil
}

// GetBill returns a bill or a not-found error
func (s *BillService) GetBill(ctx context.Context, billID int64) (*model.Bill, error) {
	bill, err := s.bills.GetBill(ctx, billID)
	if err != nil {
		return nil, apperr.Persistence("get bill", err)
	}
	if bill == nil {
		return nil, apperr.NotFound("bill", billID)
	}
	return bill, nil
}

// TenantBills lists every bill of the tenant, newest due date first
func (s *BillService) TenantBills(ctx context.Context, tenantID int64) ([]*model.Bill, error) {
	bills, err := s.bills.ListBillsByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperr.Persistence("list tenant bills", err)
	}
	return bills, nil
}

// Balance returns the tenant's running balance on a lease
func (s *BillService) Balance(ctx context.Context, occupancyID int64) (decimal.Decimal, error) {
	balance, err := s.balances.GetBalance(ctx, occupancyID)
	if err != nil {
		return decimal.Zero, apperr.Persistence("get balance", err)
	}
	return balance, nil
}

func (s *BillService) lock(ctx context.Context, billID int64) (*model.Bill, error) {
	bill, err := s.bills.LockBill(ctx, billID)
	if err != nil {
		return nil, apperr.Persistence("lock bill", err)
	}
	if bill == nil {
		return nil, apperr.NotFound("bill", billID)
	}
	return bill, nil
}

func billNote(b *model.Bill, recipientID int64, typ model.NotificationType, msg string) model.Notification {
	return model.Notification{
		RecipientID: recipientID,
		Type:        typ,
		Message:     msg,
		Metadata: map[string]string{
			"bill_id":      strconv.FormatInt(b.ID, 10),
			"occupancy_id": strconv.FormatInt(b.OccupancyID, 10),
			"amount":       b.Total().StringFixed(2),
			"due_date":     b.DueDate.String(),
		},
	}
}
