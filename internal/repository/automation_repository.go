package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/Freeeeeet/tenancy_scheduler/internal/repository/base"
)

// AutomationRepository keeps the daily run markers and the sent utility reminders
type AutomationRepository struct {
	db *base.Repository
}

func NewAutomationRepository(db *base.Repository) *AutomationRepository {
	return &AutomationRepository{db: db}
}

// ClaimRun inserts the marker if absent. Two workers racing on the same landlord and day
// both reach the insert; the primary key lets exactly one of them through.
func (r *AutomationRepository) ClaimRun(ctx context.Context, run *model.AutomationRun) (bool, error) {
	query := `
		INSERT INTO automation_runs (landlord_id, run_day, run_id, started_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (landlord_id, run_day) DO NOTHING
	`

	affected, err := r.db.ExecAffected(ctx, query,
		run.LandlordID,
		base.DateArg(run.RunDay),
		run.RunID,
		run.StartedAt,
	)
	if err != nil {
		return false, fmt.Errorf("claim automation run: %w", err)
	}
	return affected == 1, nil
}

func (r *AutomationRepository) RecordReminder(ctx context.Context, reminder *model.Reminder) (bool, error) {
	query := `
		INSERT INTO reminders (tenant_id, kind, reminder_day, occupancy_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, kind, reminder_day) DO NOTHING
	`

	affected, err := r.db.ExecAffected(ctx, query,
		reminder.TenantID,
		reminder.Kind,
		base.DateArg(reminder.Day),
		reminder.OccupancyID,
	)
	if err != nil {
		return false, fmt.Errorf("record reminder: %w", err)
	}
	return affected == 1, nil
}
