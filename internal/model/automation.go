package model

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// AutomationRun marks that the daily batch ran for a landlord on a civil day
type AutomationRun struct {
	LandlordID int64      `json:"landlord_id"`
	RunDay     civil.Date `json:"run_day"`
	RunID      uuid.UUID  `json:"run_id"`
	StartedAt  time.Time  `json:"started_at"`
}

type ReminderKind string

const (
	ReminderKindWater       ReminderKind = "water"
	ReminderKindElectricity ReminderKind = "electricity"
)

// Reminder records that a tenant got a reminder of a kind on a day
type Reminder struct {
	TenantID    int64        `json:"tenant_id"`
	OccupancyID int64        `json:"occupancy_id"`
	Kind        ReminderKind `json:"kind"`
	Day         civil.Date   `json:"day"`
}
