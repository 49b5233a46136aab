package memory

import (
	"context"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/shopspring/decimal"
)

// Occupancies

func (s *Store) CreateOccupancy(_ context.Context, occ *model.Occupancy) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateOccupancy"); err != nil {
		return err
	}
	for _, o := range s.data.occupancies {
		if o.PropertyID == occ.PropertyID && o.Status != model.OccupancyStatusEnded {
			return apperr.ErrDuplicate
		}
	}
	now := s.Now()
	occ.ID = s.id()
	occ.CreatedAt = now
	occ.UpdatedAt = now
	s.data.occupancies[occ.ID] = *occ
	return nil
}

// AddOccupancy seeds a lease row as is, for tests that need a specific history
func (s *Store) AddOccupancy(occ *model.Occupancy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	occ.ID = s.id()
	if occ.RenewalStatus == "" {
		occ.RenewalStatus = model.RenewalStatusNone
	}
	s.data.occupancies[occ.ID] = *occ
}

func (s *Store) GetOccupancy(_ context.Context, id int64) (*model.Occupancy, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetOccupancy"); err != nil {
		return nil, err
	}
	o, ok := s.data.occupancies[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *Store) LockOccupancy(ctx context.Context, id int64) (*model.Occupancy, error) {
	return s.GetOccupancy(ctx, id)
}

func (s *Store) UpdateOccupancy(_ context.Context, occ *model.Occupancy) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateOccupancy"); err != nil {
		return err
	}
	if _, ok := s.data.occupancies[occ.ID]; !ok {
		return apperr.NotFound("occupancy", occ.ID)
	}
	occ.UpdatedAt = s.Now()
	s.data.occupancies[occ.ID] = *occ
	return nil
}

func (s *Store) GetActiveByTenant(_ context.Context, tenantID int64) (*model.Occupancy, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetActiveByTenant"); err != nil {
		return nil, err
	}
	var found *model.Occupancy
	for _, o := range s.data.occupancies {
		if o.TenantID != tenantID || o.Status == model.OccupancyStatusEnded {
			continue
		}
		if found == nil || o.StartDate.After(found.StartDate) {
			o := o
			found = &o
		}
	}
	return found, nil
}

func (s *Store) ListActiveByLandlord(_ context.Context, landlordID int64) ([]*model.Occupancy, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListActiveByLandlord"); err != nil {
		return nil, err
	}
	var out []*model.Occupancy
	for _, o := range s.data.occupancies {
		if o.LandlordID == landlordID && o.IsActive() {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListLandlordsWithActive(_ context.Context) ([]int64, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListLandlordsWithActive"); err != nil {
		return nil, err
	}
	seen := map[int64]bool{}
	var out []int64
	for _, o := range s.data.occupancies {
		if o.IsActive() && !seen[o.LandlordID] {
			seen[o.LandlordID] = true
			out = append(out, o.LandlordID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Bills

func (s *Store) CreateBill(_ context.Context, bill *model.Bill) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateBill"); err != nil {
		return err
	}
	now := s.Now()
	bill.ID = s.id()
	bill.CreatedAt = now
	bill.UpdatedAt = now
	s.data.bills[bill.ID] = *bill
	return nil
}

// AddBill seeds a bill row as is
func (s *Store) AddBill(bill *model.Bill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bill.ID = s.id()
	s.data.bills[bill.ID] = *bill
}

func (s *Store) GetBill(_ context.Context, id int64) (*model.Bill, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetBill"); err != nil {
		return nil, err
	}
	b, ok := s.data.bills[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *Store) LockBill(ctx context.Context, id int64) (*model.Bill, error) {
	return s.GetBill(ctx, id)
}

func (s *Store) UpdateBill(_ context.Context, bill *model.Bill) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateBill"); err != nil {
		return err
	}
	if _, ok := s.data.bills[bill.ID]; !ok {
		return apperr.NotFound("bill", bill.ID)
	}
	bill.UpdatedAt = s.Now()
	s.data.bills[bill.ID] = *bill
	return nil
}

func (s *Store) listBills(match func(model.Bill) bool, desc bool) []*model.Bill {
	var out []*model.Bill
	for _, b := range s.data.bills {
		if match(b) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		less := out[i].DueDate.Before(out[j].DueDate) ||
			(out[i].DueDate == out[j].DueDate && out[i].ID < out[j].ID)
		if desc {
			return !less
		}
		return less
	})
	return out
}

func (s *Store) ListBillsByOccupancy(_ context.Context, occupancyID int64) ([]*model.Bill, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListBillsByOccupancy"); err != nil {
		return nil, err
	}
	return s.listBills(func(b model.Bill) bool { return b.OccupancyID == occupancyID }, false), nil
}

func (s *Store) ListBillsByTenant(_ context.Context, tenantID int64) ([]*model.Bill, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListBillsByTenant"); err != nil {
		return nil, err
	}
	return s.listBills(func(b model.Bill) bool { return b.TenantID == tenantID }, true), nil
}

func (s *Store) ListOverdueRent(_ context.Context, occupancyID int64, day civil.Date) ([]*model.Bill, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListOverdueRent"); err != nil {
		return nil, err
	}
	return s.listBills(func(b model.Bill) bool {
		return b.OccupancyID == occupancyID &&
			b.Status == model.BillStatusPending &&
			b.IsRentBearing() &&
			b.DueDate.Before(day) &&
			!strings.Contains(b.Description, model.LateFeeMarker)
	}, false), nil
}

// Balances

func (s *Store) GetBalance(_ context.Context, occupancyID int64) (decimal.Decimal, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetBalance"); err != nil {
		return decimal.Zero, err
	}
	row, ok := s.data.balances[occupancyID]
	if !ok {
		return decimal.Zero, nil
	}
	return row.balance, nil
}

func (s *Store) SetBalance(_ context.Context, occupancyID, tenantID int64, balance decimal.Decimal) error {
	defer s.mu.Unlock()
	if err := s.lock("SetBalance"); err != nil {
		return err
	}
	s.data.balances[occupancyID] = balanceRow{tenantID: tenantID, balance: balance}
	return nil
}

// Automation markers

func (s *Store) ClaimRun(_ context.Context, run *model.AutomationRun) (bool, error) {
	defer s.mu.Unlock()
	if err := s.lock("ClaimRun"); err != nil {
		return false, err
	}
	key := runKey{landlordID: run.LandlordID, day: run.RunDay}
	if _, ok := s.data.runs[key]; ok {
		return false, nil
	}
	s.data.runs[key] = *run
	return true, nil
}

func (s *Store) RecordReminder(_ context.Context, reminder *model.Reminder) (bool, error) {
	defer s.mu.Unlock()
	if err := s.lock("RecordReminder"); err != nil {
		return false, err
	}
	key := reminderKey{tenantID: reminder.TenantID, kind: reminder.Kind, day: reminder.Day}
	if _, ok := s.data.reminders[key]; ok {
		return false, nil
	}
	s.data.reminders[key] = *reminder
	return true, nil
}

// Runs lists the stored run markers of a landlord
func (s *Store) Runs(landlordID int64) []model.AutomationRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AutomationRun
	for k, r := range s.data.runs {
		if k.landlordID == landlordID {
			out = append(out, r)
		}
	}
	return out
}

// Reminders returns how many reminders were recorded for a tenant
func (s *Store) Reminders(tenantID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.data.reminders {
		if k.tenantID == tenantID {
			n++
		}
	}
	return n
}
