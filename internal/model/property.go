package model

import "github.com/shopspring/decimal"

type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusOccupied  PropertyStatus = "occupied"
)

// Property is the slice of a listing this subsystem needs: owner, rent and availability.
type Property struct {
	ID         int64           `json:"id"`
	LandlordID int64           `json:"landlord_id"`
	Title      string          `json:"title"`
	RentAmount decimal.Decimal `json:"rent_amount"`
	Status     PropertyStatus  `json:"status"`
}
