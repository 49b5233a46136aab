package model

import "time"

type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
)

type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsLandlord checks if the user manages properties
func (u *User) IsLandlord() bool {
	return u.Role == RoleLandlord
}

// IsTenant checks if the user rents or looks for properties
func (u *User) IsTenant() bool {
	return u.Role == RoleTenant
}

// DisplayName returns the name shown in notifications
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "user"
}
