package profile

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("profile: not found")
	ErrInvalidInput = errors.New("profile: invalid input")
)

// Profile is the application-level record describing a role and the business
// data attached to an identity. Its ID equals the owning identity's id: the
// current schema enforces one profile per identity. Supporting several
// profiles per identity requires a schema change (a separate owning-identity
// foreign key distinct from the profile's own primary key); the resolver
// already returns a list so callers are insulated from that change.
type Profile struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Website        string    `json:"website,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Role           Role      `json:"role"`
	EmployerID     string    `json:"employer_id,omitempty"`
	RestaurantName string    `json:"restaurant_name,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Update carries the fields an admin or employer may change on an existing
// profile. Nil pointers leave the stored value untouched.
type Update struct {
	Username       *string
	Website        *string
	AvatarURL      *string
	RestaurantName *string
	Phone          *string
	Address        *string
	IsActive       *bool
}
