package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// LastMonthWindowDays is how close to the contract end the deposit starts covering rent
	LastMonthWindowDays = 28
	// LastMonthLookbackDays is the range before the contract end searched for an existing rent bill
	LastMonthLookbackDays = 40
	// RenewalCutoffDays is the minimum notice for a renewal request
	RenewalCutoffDays = 29
)

// LeaseService owns occupancies: creation, billing cycle, deposit use, ending and renewal
type LeaseService struct {
	tx          Transactor
	users       UserStore
	properties  PropertyStore
	occupancies OccupancyStore
	bills       BillStore
	billing     *BillService
	cal         calendar
	out         dispatcher
	logger      *zap.Logger
}

func NewLeaseService(
	tx Transactor,
	users UserStore,
	properties PropertyStore,
	occupancies OccupancyStore,
	bills BillStore,
	billing *BillService,
	notifier Notifier,
	now Clock,
	loc *time.Location,
	logger *zap.Logger,
) *LeaseService {
	return &LeaseService{
		tx:          tx,
		users:       users,
		properties:  properties,
		occupancies: occupancies,
		bills:       bills,
		billing:     billing,
		cal:         newCalendar(now, loc),
		out:         dispatcher{notifier: notifier, logger: logger},
		logger:      logger,
	}
}

// CreateOccupancyRequest carries the landlord's tenant assignment
type CreateOccupancyRequest struct {
	LandlordID int64
	PropertyID int64
	TenantID   int64
	StartDate  civil.Date
	Months     int
	LateFee    decimal.Decimal
	WifiDueDay int
}

func (r CreateOccupancyRequest) validate() error {
	if r.Months < model.MinLeaseMonths {
		return apperr.Validation("contract must last at least %d months", model.MinLeaseMonths)
	}
	if !r.StartDate.IsValid() {
		return apperr.Validation("start date is required")
	}
	if r.LateFee.IsNegative() {
		return apperr.Validation("late fee cannot be negative")
	}
	if r.WifiDueDay < 0 || r.WifiDueDay > 31 {
		return apperr.Validation("wifi due day must be 0 (unset) or between 1 and 31")
	}
	return nil
}

// CreateOccupancy assigns a tenant to a property. The lease, the move-in bill and the
// property status flip commit together.
func (s *LeaseService) CreateOccupancy(ctx context.Context, req CreateOccupancyRequest) (*model.Occupancy, *model.Bill, error) {
	if err := req.validate(); err != nil {
		return nil, nil, err
	}
	if _, err := requireRole(ctx, s.users, req.LandlordID, model.RoleLandlord); err != nil {
		return nil, nil, err
	}
	if _, err := requireRole(ctx, s.users, req.TenantID, model.RoleTenant); err != nil {
		return nil, nil, err
	}

	var occ *model.Occupancy
	var moveIn *model.Bill
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		property, err := s.properties.LockProperty(ctx, req.PropertyID)
		if err != nil {
			return apperr.Persistence("lock property", err)
		}
		if property == nil {
			return apperr.NotFound("property", req.PropertyID)
		}
		if property.LandlordID != req.LandlordID {
			return apperr.Forbidden("property %d belongs to another landlord", req.PropertyID)
		}
		if property.Status == model.PropertyStatusOccupied {
			return apperr.Conflict("property %d is already occupied", req.PropertyID)
		}

		occ = &model.Occupancy{
			PropertyID:          req.PropertyID,
			TenantID:            req.TenantID,
			LandlordID:          req.LandlordID,
			Status:              model.OccupancyStatusActive,
			StartDate:           req.StartDate,
			ContractEndDate:     addMonths(req.StartDate, req.Months),
			SecurityDeposit:     property.RentAmount,
			SecurityDepositUsed: decimal.Zero,
			LateFee:             req.LateFee,
			WifiDueDay:          req.WifiDueDay,
			RenewalStatus:       model.RenewalStatusNone,
		}
		if err := s.occupancies.CreateOccupancy(ctx, occ); err != nil {
			return apperr.Persistence("create occupancy", err)
		}

		moveIn = &model.Bill{
			Kind:                  model.BillKindMoveIn,
			RentAmount:            property.RentAmount,
			AdvanceAmount:         property.RentAmount,
			SecurityDepositAmount: property.RentAmount,
			DueDate:               req.StartDate,
			Description:           "Move-in payment: first month rent, one month advance and security deposit",
		}
		if err := s.billing.Issue(ctx, occ, moveIn); err != nil {
			return err
		}
		if err := s.billing.balances.SetBalance(ctx, occ.ID, occ.TenantID, decimal.Zero); err != nil {
			return apperr.Persistence("init balance", err)
		}
		if err := s.properties.SetPropertyStatus(ctx, property.ID, model.PropertyStatusOccupied); err != nil {
			return apperr.Persistence("mark property occupied", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Occupancy created",
		zap.Int64("occupancy_id", occ.ID),
		zap.Int64("property_id", occ.PropertyID),
		zap.Int64("tenant_id", occ.TenantID),
		zap.String("contract_end", occ.ContractEndDate.String()),
	)

	s.out.send(ctx, leaseNote(occ, occ.TenantID, model.NotificationOccupancyAssigned,
		fmt.Sprintf("You were assigned to your new home from %s to %s. Move-in payment of %s is due on %s",
			occ.StartDate, occ.ContractEndDate, moveIn.Total().StringFixed(2), moveIn.DueDate)))

	return occ, moveIn, nil
}

// GetOccupancy returns a lease or a not-found error
func (s *LeaseService) GetOccupancy(ctx context.Context, occupancyID int64) (*model.Occupancy, error) {
	occ, err := s.occupancies.GetOccupancy(ctx, occupancyID)
	if err != nil {
		return nil, apperr.Persistence("get occupancy", err)
	}
	if occ == nil {
		return nil, apperr.NotFound("occupancy", occupancyID)
	}
	return occ, nil
}

// ActiveLease returns the tenant's current lease, nil when there is none
func (s *LeaseService) ActiveLease(ctx context.Context, tenantID int64) (*model.Occupancy, error) {
	occ, err := s.occupancies.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperr.Persistence("get active occupancy", err)
	}
	return occ, nil
}

// NextDueDate derives the lease's next due date from its bills
func (s *LeaseService) NextDueDate(ctx context.Context, occupancyID int64) (NextDue, error) {
	occ, err := s.GetOccupancy(ctx, occupancyID)
	if err != nil {
		return NextDue{}, err
	}
	bills, err := s.bills.ListBillsByOccupancy(ctx, occupancyID)
	if err != nil {
		return NextDue{}, apperr.Persistence("list bills", err)
	}
	return DeriveNextDueDate(occ, bills), nil
}

// ApplyLastMonthDepositLogic covers the final month's rent from the security deposit.
// It returns the bill it created, or nil when nothing had to be done.
func (s *LeaseService) ApplyLastMonthDepositLogic(ctx context.Context, occupancyID int64) (*model.Bill, error) {
	var bill *model.Bill
	var notes []model.Notification
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		bill, notes, err = s.applyLastMonth(ctx, occupancyID, s.cal.Today())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.out.send(ctx, notes...)
	return bill, nil
}

// lastMonthBilled reports whether the final month already has a bill. A last-month or
// emergency bill counts in any status, so a cancelled one is never reissued.
func lastMonthBilled(occ *model.Occupancy, bills []*model.Bill) bool {
	windowStart := occ.ContractEndDate.AddDays(-LastMonthLookbackDays)
	for _, b := range bills {
		if b.DueDate.Before(windowStart) || b.DueDate.After(occ.ContractEndDate) {
			continue
		}
		if b.Kind == model.BillKindLastMonth || b.Kind == model.BillKindEmergency {
			return true
		}
		if b.IsRentBearing() && b.Status != model.BillStatusCancelled {
			return true
		}
	}
	return false
}

// applyLastMonth must run inside a transaction; it holds the occupancy row lock
func (s *LeaseService) applyLastMonth(ctx context.Context, occupancyID int64, today civil.Date) (*model.Bill, []model.Notification, error) {
	occ, err := s.lock(ctx, occupancyID)
	if err != nil {
		return nil, nil, err
	}
	if !occ.IsActive() || occ.RenewalActive() {
		return nil, nil, nil
	}
	days := occ.DaysUntilContractEnd(today)
	if days <= 0 || days > LastMonthWindowDays {
		return nil, nil, nil
	}

	bills, err := s.bills.ListBillsByOccupancy(ctx, occ.ID)
	if err != nil {
		return nil, nil, apperr.Persistence("list bills", err)
	}
	if lastMonthBilled(occ, bills) {
		return nil, nil, nil
	}

	property, err := s.properties.GetProperty(ctx, occ.PropertyID)
	if err != nil {
		return nil, nil, apperr.Persistence("get property", err)
	}
	if property == nil {
		return nil, nil, apperr.NotFound("property", occ.PropertyID)
	}
	rent := property.RentAmount
	if !rent.IsPositive() {
		return nil, nil, nil
	}
	available := occ.AvailableDeposit()

	var bill *model.Bill
	var msg string
	if available.GreaterThanOrEqual(rent) {
		occ.UseDeposit(rent)
		bill = &model.Bill{
			Kind:        model.BillKindLastMonth,
			RentAmount:  rent,
			DueDate:     today,
			Status:      model.BillStatusPaid,
			Description: "Last month rent covered by the security deposit",
		}
		msg = fmt.Sprintf("Your last month rent of %s was covered by your security deposit", rent.StringFixed(2))
	} else {
		shortfall := rent.Sub(available)
		occ.UseDeposit(available)
		bill = &model.Bill{
			Kind:        model.BillKindEmergency,
			RentAmount:  shortfall,
			DueDate:     today,
			Status:      model.BillStatusPending,
			Description: fmt.Sprintf("Emergency bill: last month rent shortfall after using %s of the security deposit", available.StringFixed(2)),
		}
		msg = fmt.Sprintf("Your security deposit covered %s of the last month rent. Please pay the remaining %s",
			available.StringFixed(2), shortfall.StringFixed(2))
	}

	if err := s.occupancies.UpdateOccupancy(ctx, occ); err != nil {
		return nil, nil, apperr.Persistence("update occupancy", err)
	}
	if err := s.billing.Issue(ctx, occ, bill); err != nil {
		return nil, nil, err
	}

	s.logger.Info("Last month deposit applied",
		zap.Int64("occupancy_id", occ.ID),
		zap.String("kind", string(bill.Kind)),
		zap.String("deposit_used", occ.SecurityDepositUsed.String()),
	)

	note := leaseNote(occ, occ.TenantID, model.NotificationLastMonthDeposit, msg)
	note.Metadata["bill_id"] = strconv.FormatInt(bill.ID, 10)
	return bill, []model.Notification{note}, nil
}

// RequestEnd lets the tenant ask to move out
func (s *LeaseService) RequestEnd(ctx context.Context, tenantID, occupancyID int64, date civil.Date, reason string) (*model.Occupancy, error) {
	if !date.IsValid() {
		return nil, apperr.Validation("end date is required")
	}

	occ, err := s.mutate(ctx, occupancyID, func(occ *model.Occupancy) error {
		if occ.TenantID != tenantID {
			return apperr.Forbidden("occupancy %d belongs to another tenant", occupancyID)
		}
		if occ.Status != model.OccupancyStatusActive {
			return apperr.Conflict("occupancy %d is %s", occupancyID, occ.Status)
		}
		occ.Status = model.OccupancyStatusPendingEnd
		occ.EndRequestDate = &date
		occ.EndReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Occupancy end requested", zap.Int64("occupancy_id", occupancyID))
	s.out.send(ctx, leaseNote(occ, occ.LandlordID, model.NotificationOccupancyEndRequested,
		fmt.Sprintf("Your tenant asked to end the lease on %s", date)))

	return occ, nil
}

// ApproveEnd accepts the tenant's move-out request
func (s *LeaseService) ApproveEnd(ctx context.Context, landlordID, occupancyID int64) (*model.Occupancy, error) {
	return s.end(ctx, landlordID, occupancyID, func(occ *model.Occupancy) error {
		if occ.Status != model.OccupancyStatusPendingEnd {
			return apperr.Conflict("occupancy %d has no pending end request", occupancyID)
		}
		end := s.cal.Today()
		if occ.EndRequestDate != nil {
			end = *occ.EndRequestDate
		}
		occ.EndDate = &end
		return nil
	})
}

// EndWithDate ends a lease on the landlord's initiative
func (s *LeaseService) EndWithDate(ctx context.Context, landlordID, occupancyID int64, date civil.Date, reason string) (*model.Occupancy, error) {
	if !date.IsValid() {
		return nil, apperr.Validation("end date is required")
	}
	return s.end(ctx, landlordID, occupancyID, func(occ *model.Occupancy) error {
		if occ.Status == model.OccupancyStatusEnded {
			return apperr.Conflict("occupancy %d already ended", occupancyID)
		}
		occ.EndDate = &date
		occ.EndReason = reason
		return nil
	})
}

func (s *LeaseService) end(ctx context.Context, landlordID, occupancyID int64, apply func(*model.Occupancy) error) (*model.Occupancy, error) {
	var occ *model.Occupancy
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		occ, err = s.lock(ctx, occupancyID)
		if err != nil {
			return err
		}
		if occ.LandlordID != landlordID {
			return apperr.Forbidden("occupancy %d belongs to another landlord", occupancyID)
		}
		if err := apply(occ); err != nil {
			return err
		}
		occ.Status = model.OccupancyStatusEnded
		if err := s.occupancies.UpdateOccupancy(ctx, occ); err != nil {
			return apperr.Persistence("update occupancy", err)
		}
		if err := s.properties.SetPropertyStatus(ctx, occ.PropertyID, model.PropertyStatusAvailable); err != nil {
			return apperr.Persistence("mark property available", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Occupancy ended",
		zap.Int64("occupancy_id", occupancyID),
		zap.String("end_date", occ.EndDate.String()),
	)
	s.out.send(ctx, leaseNote(occ, occ.TenantID, model.NotificationOccupancyEnded,
		fmt.Sprintf("Your lease ends on %s", occ.EndDate)))

	return occ, nil
}

// RequestRenewal opens a renewal request; it needs more than RenewalCutoffDays of notice
func (s *LeaseService) RequestRenewal(ctx context.Context, tenantID, occupancyID int64, meetingDate civil.Date) (*model.Occupancy, error) {
	today := s.cal.Today()
	occ, err := s.mutate(ctx, occupancyID, func(occ *model.Occupancy) error {
		if occ.TenantID != tenantID {
			return apperr.Forbidden("occupancy %d belongs to another tenant", occupancyID)
		}
		if !occ.IsActive() {
			return apperr.Conflict("occupancy %d is %s", occupancyID, occ.Status)
		}
		if occ.RenewalStatus == model.RenewalStatusPending {
			return apperr.Conflict("renewal for occupancy %d is already pending", occupancyID)
		}
		if occ.DaysUntilContractEnd(today) <= RenewalCutoffDays {
			return apperr.Conflict("renewal must be requested more than %d days before the contract ends", RenewalCutoffDays)
		}
		occ.RenewalRequested = true
		occ.RenewalStatus = model.RenewalStatusPending
		if meetingDate.IsValid() {
			occ.RenewalMeetingDate = &meetingDate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Renewal requested", zap.Int64("occupancy_id", occupancyID))
	s.out.send(ctx, leaseNote(occ, occ.LandlordID, model.NotificationRenewalRequest,
		fmt.Sprintf("Your tenant wants to renew the contract ending %s", occ.ContractEndDate)))

	return occ, nil
}

// ResolveRenewalRequest carries the landlord's decision on a renewal
type ResolveRenewalRequest struct {
	LandlordID  int64
	OccupancyID int64
	Approve     bool
	NewEndDate  civil.Date
	SigningDate civil.Date
}

// ResolveRenewal approves a renewal (new contract end plus a renewal bill) or rejects it
func (s *LeaseService) ResolveRenewal(ctx context.Context, req ResolveRenewalRequest) (*model.Occupancy, *model.Bill, error) {
	var occ *model.Occupancy
	var bill *model.Bill
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		occ, err = s.lock(ctx, req.OccupancyID)
		if err != nil {
			return err
		}
		if occ.LandlordID != req.LandlordID {
			return apperr.Forbidden("occupancy %d belongs to another landlord", req.OccupancyID)
		}
		if occ.RenewalStatus != model.RenewalStatusPending {
			return apperr.Conflict("occupancy %d has no pending renewal", req.OccupancyID)
		}

		occ.RenewalRequested = false
		occ.RenewalMeetingDate = nil
		if !req.Approve {
			occ.RenewalStatus = model.RenewalStatusRejected
			return apperr.Persistence("update occupancy", s.occupancies.UpdateOccupancy(ctx, occ))
		}

		if !req.NewEndDate.IsValid() || !req.NewEndDate.After(occ.ContractEndDate) {
			return apperr.Validation("new contract end must be after %s", occ.ContractEndDate)
		}
		property, err := s.properties.GetProperty(ctx, occ.PropertyID)
		if err != nil {
			return apperr.Persistence("get property", err)
		}
		if property == nil {
			return apperr.NotFound("property", occ.PropertyID)
		}

		occ.ContractEndDate = req.NewEndDate
		occ.RenewalStatus = model.RenewalStatusNone
		if err := s.occupancies.UpdateOccupancy(ctx, occ); err != nil {
			return apperr.Persistence("update occupancy", err)
		}

		due := s.cal.Today()
		if req.SigningDate.IsValid() {
			due = req.SigningDate
		}
		bill = &model.Bill{
			Kind:          model.BillKindRenewal,
			RentAmount:    property.RentAmount,
			AdvanceAmount: property.RentAmount,
			DueDate:       due,
			Description:   fmt.Sprintf("Contract renewal until %s: first month rent and one month advance", req.NewEndDate),
		}
		return s.billing.Issue(ctx, occ, bill)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Renewal resolved",
		zap.Int64("occupancy_id", req.OccupancyID),
		zap.Bool("approved", req.Approve),
	)

	if req.Approve {
		s.out.send(ctx, leaseNote(occ, occ.TenantID, model.NotificationRenewalApproved,
			fmt.Sprintf("Your contract was renewed until %s", occ.ContractEndDate)))
	} else {
		s.out.send(ctx, leaseNote(occ, occ.TenantID, model.NotificationRenewalRejected,
			"Your renewal request was declined"))
	}

	return occ, bill, nil
}

// mutate applies fn to the locked occupancy and saves it in one transaction
func (s *LeaseService) mutate(ctx context.Context, occupancyID int64, fn func(*model.Occupancy) error) (*model.Occupancy, error) {
	var occ *model.Occupancy
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		occ, err = s.lock(ctx, occupancyID)
		if err != nil {
			return err
		}
		if err := fn(occ); err != nil {
			return err
		}
		return apperr.Persistence("update occupancy", s.occupancies.UpdateOccupancy(ctx, occ))
	})
	if err != nil {
		return nil, err
	}
	return occ, nil
}

func (s *LeaseService) lock(ctx context.Context, occupancyID int64) (*model.Occupancy, error) {
	occ, err := s.occupancies.LockOccupancy(ctx, occupancyID)
	if err != nil {
		return nil, apperr.Persistence("lock occupancy", err)
	}
	if occ == nil {
		return nil, apperr.NotFound("occupancy", occupancyID)
	}
	return occ, nil
}

func leaseNote(o *model.Occupancy, recipientID int64, typ model.NotificationType, msg string) model.Notification {
	return model.Notification{
		RecipientID: recipientID,
		Type:        typ,
		Message:     msg,
		Metadata: map[string]string{
			"occupancy_id": strconv.FormatInt(o.ID, 10),
			"property_id":  strconv.FormatInt(o.PropertyID, 10),
		},
	}
}
