package identity

import "context"

// Store describes persistence operations required by the identity service.
type Store interface {
	// CreateUser inserts a new user. A duplicate email returns
	// ErrAlreadyRegistered.
	CreateUser(ctx context.Context, u *User) error
	// FindUser returns the user by id or ErrNotFound.
	FindUser(ctx context.Context, id string) (*User, error)
	// FindUserByEmail returns the user by normalized email or ErrNotFound.
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	// CreateRefreshToken persists a refresh token record.
	CreateRefreshToken(ctx context.Context, t *RefreshToken) error
	// RevokeRefreshTokens marks every token of the user revoked. Revoking a
	// user without tokens is not an error.
	RevokeRefreshTokens(ctx context.Context, userID string) error
}
