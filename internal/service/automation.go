package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultAutomationHour    = 8
	DefaultAutomationWorkers = 4
	// utility reminders go out on the first days of a month
	reminderLastDay = 3
)

type RunnerOptions struct {
	Hour    int
	Workers int
}

// RunReport summarises the effects of one landlord run
type RunReport struct {
	LandlordID      int64           `json:"landlord_id"`
	Day             civil.Date      `json:"day"`
	RunID           uuid.UUID       `json:"run_id"`
	Occupancies     int             `json:"occupancies"`
	Reminders       int             `json:"reminders"`
	LateFees        int             `json:"late_fees"`
	DepositDeducted decimal.Decimal `json:"deposit_deducted"`
	LastMonthBills  int             `json:"last_month_bills"`
}

// AutomationRunner is the daily batch: utility reminders, late fees and last-month deposit use.
// Each landlord is processed at most once per local civil day.
type AutomationRunner struct {
	tx          Transactor
	occupancies OccupancyStore
	bills       BillStore
	runs        AutomationStore
	lease       *LeaseService
	cal         calendar
	out         dispatcher
	logger      *zap.Logger
	hour        int
	workers     int
}

func NewAutomationRunner(
	tx Transactor,
	occupancies OccupancyStore,
	bills BillStore,
	runs AutomationStore,
	lease *LeaseService,
	notifier Notifier,
	now Clock,
	loc *time.Location,
	logger *zap.Logger,
	opts RunnerOptions,
) *AutomationRunner {
	if opts.Hour < 0 || opts.Hour > 23 {
		opts.Hour = DefaultAutomationHour
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultAutomationWorkers
	}
	return &AutomationRunner{
		tx:          tx,
		occupancies: occupancies,
		bills:       bills,
		runs:        runs,
		lease:       lease,
		cal:         newCalendar(now, loc),
		out:         dispatcher{notifier: notifier, logger: logger},
		logger:      logger,
		hour:        opts.Hour,
		workers:     opts.Workers,
	}
}

// RunForLandlord applies the daily batch for one landlord. Every effect and the run marker
// commit in one transaction, so a second call on the same day returns ErrAlreadyRun.
func (r *AutomationRunner) RunForLandlord(ctx context.Context, landlordID int64) (*RunReport, error) {
	now := r.cal.Now()
	if now.Hour() < r.hour {
		return nil, apperr.ErrTooEarly
	}
	today := civil.DateOf(now)

	report := &RunReport{
		LandlordID:      landlordID,
		Day:             today,
		RunID:           newRunID(),
		DepositDeducted: decimal.Zero,
	}
	var notes []model.Notification

	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		notes = nil
		claimed, err := r.runs.ClaimRun(ctx, &model.AutomationRun{
			LandlordID: landlordID,
			RunDay:     today,
			RunID:      report.RunID,
			StartedAt:  now,
		})
		if err != nil {
			return apperr.Persistence("claim automation run", err)
		}
		if !claimed {
			return apperr.ErrAlreadyRun
		}

		active, err := r.occupancies.ListActiveByLandlord(ctx, landlordID)
		if err != nil {
			return apperr.Persistence("list active occupancies", err)
		}
		report.Occupancies = len(active)

		for _, occ := range active {
			out, err := r.processOccupancy(ctx, occ.ID, today, report)
			if err != nil {
				return fmt.Errorf("occupancy %d: %w", occ.ID, err)
			}
			notes = append(notes, out...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Daily automation finished",
		zap.Int64("landlord_id", landlordID),
		zap.String("run_id", report.RunID.String()),
		zap.String("day", today.String()),
		zap.Int("occupancies", report.Occupancies),
		zap.Int("reminders", report.Reminders),
		zap.Int("late_fees", report.LateFees),
		zap.String("deposit_deducted", report.DepositDeducted.String()),
		zap.Int("last_month_bills", report.LastMonthBills),
	)

	r.out.send(ctx, notes...)
	return report, nil
}

func (r *AutomationRunner) processOccupancy(ctx context.Context, occupancyID int64, today civil.Date, report *RunReport) ([]model.Notification, error) {
	occ, err := r.occupancies.LockOccupancy(ctx, occupancyID)
	if err != nil {
		return nil, apperr.Persistence("lock occupancy", err)
	}
	if occ == nil || !occ.IsActive() {
		return nil, nil
	}

	var notes []model.Notification

	if today.Day <= reminderLastDay {
		out, err := r.remind(ctx, occ, today)
		if err != nil {
			return nil, err
		}
		report.Reminders += len(out)
		notes = append(notes, out...)
	}

	out, err := r.applyLateFees(ctx, occ, today, report)
	if err != nil {
		return nil, err
	}
	notes = append(notes, out...)

	bill, out, err := r.lease.applyLastMonth(ctx, occ.ID, today)
	if err != nil {
		return nil, err
	}
	if bill != nil {
		report.LastMonthBills++
	}
	return append(notes, out...), nil
}

func (r *AutomationRunner) remind(ctx context.Context, occ *model.Occupancy, today civil.Date) ([]model.Notification, error) {
	kinds := []struct {
		kind  model.ReminderKind
		typ   model.NotificationType
		label string
	}{
		{model.ReminderKindWater, model.NotificationWaterDueReminder, "Water"},
		{model.ReminderKindElectricity, model.NotificationElectricityDueReminder, "Electricity"},
	}
	period := fmt.Sprintf("%s %d", today.Month, today.Year)

	var notes []model.Notification
	for _, k := range kinds {
		created, err := r.runs.RecordReminder(ctx, &model.Reminder{
			TenantID:    occ.TenantID,
			OccupancyID: occ.ID,
			Kind:        k.kind,
			Day:         today,
		})
		if err != nil {
			return nil, apperr.Persistence("record reminder", err)
		}
		if !created {
			continue
		}
		n := leaseNote(occ, occ.TenantID, k.typ,
			fmt.Sprintf("%s bill is due in the first week of %s", k.label, period))
		n.Metadata["period"] = period
		notes = append(notes, n)
	}
	return notes, nil
}

// applyLateFees charges the lease late fee once per overdue rent bill and takes what it can
// from the remaining security deposit. The caller holds the occupancy lock.
func (r *AutomationRunner) applyLateFees(ctx context.Context, occ *model.Occupancy, today civil.Date, report *RunReport) ([]model.Notification, error) {
	if !occ.LateFee.IsPositive() {
		return nil, nil
	}
	overdue, err := r.bills.ListOverdueRent(ctx, occ.ID, today)
	if err != nil {
		return nil, apperr.Persistence("list overdue bills", err)
	}

	var notes []model.Notification
	for _, bill := range overdue {
		if bill.Status != model.BillStatusPending || bill.HasLateFee() {
			continue
		}
		fee := occ.LateFee
		bill.OtherBills = bill.OtherBills.Add(fee)
		bill.Description = strings.TrimSpace(bill.Description + " " + model.LateFeeMarker)
		if err := r.bills.UpdateBill(ctx, bill); err != nil {
			return nil, apperr.Persistence("apply late fee", err)
		}

		deduct := decimal.Min(fee, occ.AvailableDeposit())
		occ.UseDeposit(deduct)
		report.LateFees++
		report.DepositDeducted = report.DepositDeducted.Add(deduct)

		n := billNote(bill, occ.TenantID, model.NotificationPaymentLateFee,
			fmt.Sprintf("A late fee of %s was added to your bill due %s", fee.StringFixed(2), bill.DueDate))
		n.Metadata["late_fee"] = fee.StringFixed(2)
		notes = append(notes, n)

		if deduct.IsPositive() {
			d := billNote(bill, occ.TenantID, model.NotificationDepositDeduction,
				fmt.Sprintf("%s was deducted from your security deposit to cover the late fee", deduct.StringFixed(2)))
			d.Metadata["deducted"] = deduct.StringFixed(2)
			d.Metadata["deposit_left"] = occ.AvailableDeposit().StringFixed(2)
			notes = append(notes, d)
		}
	}

	if len(notes) > 0 {
		if err := r.occupancies.UpdateOccupancy(ctx, occ); err != nil {
			return nil, apperr.Persistence("update occupancy", err)
		}
	}
	return notes, nil
}

// RunAll runs every landlord with an active lease on a bounded worker group.
// Landlords already processed today are skipped silently.
func (r *AutomationRunner) RunAll(ctx context.Context) ([]*RunReport, error) {
	if r.cal.Now().Hour() < r.hour {
		return nil, apperr.ErrTooEarly
	}
	landlords, err := r.occupancies.ListLandlordsWithActive(ctx)
	if err != nil {
		return nil, apperr.Persistence("list landlords", err)
	}

	var (
		mu      sync.Mutex
		reports []*RunReport
		errs    []error
		g       errgroup.Group
	)
	g.SetLimit(r.workers)

	for _, landlordID := range landlords {
		landlordID := landlordID
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			report, err := r.RunForLandlord(ctx, landlordID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				reports = append(reports, report)
			case errors.Is(err, apperr.ErrAlreadyRun), errors.Is(err, apperr.ErrTooEarly):
			default:
				r.logger.Error("Daily automation failed",
					zap.Int64("landlord_id", landlordID),
					zap.Error(err),
				)
				errs = append(errs, fmt.Errorf("landlord %s: %w", strconv.FormatInt(landlordID, 10), err))
			}
			return nil
		})
	}
	_ = g.Wait()

	return reports, errors.Join(errs...)
}
