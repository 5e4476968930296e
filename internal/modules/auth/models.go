package auth

import "time"

// User is a registered business owner. The password hash never leaves the
// module.
type User struct {
	ID                int64     `json:"id,omitempty"`
	Username          string    `json:"username"`
	PasswordHash      string    `json:"-"`
	BusinessName      string    `json:"business_name"`
	BusinessStructure string    `json:"business_structure"`
	VATEnabled        bool      `json:"vat_enabled"`
	HasEmployees      bool      `json:"has_employees"`
	NumEmployees      *int64    `json:"num_employees"` // null unless has_employees
	CreatedAt         time.Time `json:"created_at"`
}

// Profile is the public view of a user.
type Profile struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	BusinessName      string `json:"business_name"`
	BusinessStructure string `json:"business_structure"`
	VATEnabled        bool   `json:"vat_enabled"`
	HasEmployees      bool   `json:"has_employees"`
	NumEmployees      *int64 `json:"num_employees"`
}

// Profile returns the user without credential material.
func (u *User) Profile() Profile {
	return Profile{
		ID:                u.ID,
		Username:          u.Username,
		BusinessName:      u.BusinessName,
		BusinessStructure: u.BusinessStructure,
		VATEnabled:        u.VATEnabled,
		HasEmployees:      u.HasEmployees,
		NumEmployees:      u.NumEmployees,
	}
}
