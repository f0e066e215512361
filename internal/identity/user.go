package identity

import (
	"errors"
	"time"
)

const (
	userStatusActive   = "active"
	userStatusDisabled = "disabled"
)

var (
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrAlreadyRegistered  = errors.New("identity: email already registered")
	ErrInvalidInput       = errors.New("identity: invalid input")
	ErrNotFound           = errors.New("identity: not found")
)

// User is an authentication subject. It carries no business data; that lives
// on the profile record keyed by the same id.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is the authenticated identity handed to consumers: the subject id
// and email plus the bearer token it was derived from. It is immutable once
// issued and replaced wholesale on sign-in/out.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RefreshToken is a persisted long-lived credential. Only its hash is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}
