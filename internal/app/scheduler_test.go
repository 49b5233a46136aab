package app

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.Notification) error { return nil }

func newRunner(store *memory.Store, now time.Time) *service.AutomationRunner {
	clock := func() time.Time { return now }
	loc := time.FixedZone("PHT", 8*60*60)
	logger := zap.NewNop()
	bills := service.NewBillService(store, store, store, nopNotifier{}, clock, loc, logger)
	leases := service.NewLeaseService(store, store, store, store, store, bills, nopNotifier{}, clock, loc, logger)
	return service.NewAutomationRunner(store, store, store, store, leases, nopNotifier{}, clock, loc, logger,
		service.RunnerOptions{Hour: 8, Workers: 2})
}

func TestSchedulerRunsOnStartAndStops(t *testing.T) {
	store := memory.NewStore()
	occ := &model.Occupancy{
		PropertyID:      1,
		TenantID:        2,
		LandlordID:      3,
		Status:          model.OccupancyStatusActive,
		StartDate:       civil.Date{Year: 2025, Month: time.January, Day: 1},
		ContractEndDate: civil.Date{Year: 2026, Month: time.January, Day: 1},
		SecurityDeposit: decimal.NewFromInt(9000),
		LateFee:         decimal.NewFromInt(500),
	}
	store.AddOccupancy(occ)

	now := time.Date(2025, time.May, 10, 9, 0, 0, 0, time.FixedZone("PHT", 8*60*60))
	s := NewScheduler(newRunner(store, now), time.Hour, zap.NewNop())
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(store.Runs(occ.LandlordID)) == 1
	}, time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerSkipsBeforeHour(t *testing.T) {
	store := memory.NewStore()
	store.AddOccupancy(&model.Occupancy{LandlordID: 3, TenantID: 2, Status: model.OccupancyStatusActive})

	early := time.Date(2025, time.May, 10, 6, 0, 0, 0, time.FixedZone("PHT", 8*60*60))
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(newRunner(store, early), time.Hour, zap.NewNop())
	s.Start(ctx)
	cancel()
	<-s.done

	assert.Empty(t, store.Runs(3))
}
