// Package invite issues, validates, consumes, and expires the single-use
// signup tokens an employer hands out to provision employee accounts out of
// band.
package invite

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFoundOrExpired is the single signal for an unusable token. It
	// deliberately does not distinguish "never existed" from "expired" or
	// "used" so the lookup cannot be used to enumerate tokens.
	ErrNotFoundOrExpired = errors.New("invite: invalid or expired invitation")
	// ErrAlreadyUsed reports a redeem that lost the race or repeated. Callers
	// whose signup already completed treat it as non-fatal.
	ErrAlreadyUsed = errors.New("invite: invitation already used")
	// ErrInvalidInput rejects malformed create/cancel requests.
	ErrInvalidInput = errors.New("invite: invalid input")
)

// Invitation is a single-use, time-limited signup credential tied to the
// employer that issued it. It is consumable iff used is false and expires_at
// is in the future; consumed and expired rows stay in storage for audit and
// are made unusable by the validation predicate, not by deletion.
type Invitation struct {
	ID         string    `json:"id"`
	EmployerID string    `json:"employer_id"`
	Email      string    `json:"email"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	Used       bool      `json:"used"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store describes persistence operations for invitations.
type Store interface {
	// Create persists a new invitation.
	Create(ctx context.Context, inv *Invitation) error
	// FindConsumable returns the invitation for token if it is unused and
	// unexpired at now; every miss is ErrNotFoundOrExpired.
	FindConsumable(ctx context.Context, token string, now time.Time) (*Invitation, error)
	// MarkUsed flips used=true iff the token is currently unused and
	// unexpired at now, as one atomic conditional update. Losing the
	// condition returns ErrAlreadyUsed.
	MarkUsed(ctx context.Context, token string, now time.Time) error
	// Delete removes the invitation by id, scoped to the employer that
	// issued it. An absent or foreign id is not an error.
	Delete(ctx context.Context, id, employerID string) error
	// ListPending returns the employer's unused, unexpired invitations,
	// newest first.
	ListPending(ctx context.Context, employerID string, now time.Time) ([]Invitation, error)
}
