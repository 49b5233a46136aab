package model

import "time"

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Application represents a tenant's rental application for a property
type Application struct {
	ID         int64             `json:"id"`
	TenantID   int64             `json:"tenant_id"`
	PropertyID int64             `json:"property_id"`
	LandlordID int64             `json:"landlord_id"`
	Status     ApplicationStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// IsAccepted checks if the landlord accepted the application
func (a *Application) IsAccepted() bool {
	return a.Status == ApplicationStatusAccepted
}
