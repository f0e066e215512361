package profile

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Resolver maps an identity to its profile records and normalizes the result
// to a single current profile. The first record in creation order wins; an
// empty set is a defined outcome, not an error, because a freshly signed-up
// identity has no profile until setup completes.
type Resolver struct {
	store Store
	now   func() time.Time
}

// ResolverOption configures Resolver behavior.
type ResolverOption func(*Resolver)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.now = fn
		}
	}
}

func NewResolver(store Store, opts ...ResolverOption) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidInput)
	}
	r := &Resolver{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Store exposes the underlying store for directory-style reads (employer and
// employee listings) that need no resolution logic.
func (r *Resolver) Store() Store { return r.store }

// Resolve returns all profiles owned by the identity and the current one
// (first in creation order, nil when the identity has none).
func (r *Resolver) Resolve(ctx context.Context, identityID string) ([]Profile, *Profile, error) {
	identityID = strings.TrimSpace(identityID)
	if identityID == "" {
		return nil, nil, fmt.Errorf("%w: identity id is required", ErrInvalidInput)
	}
	all, err := r.store.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, nil, fmt.Errorf("profile: resolve %s: %w", identityID, err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	current := all[0]
	return all, &current, nil
}

// Upsert merges the caller-supplied delta with the server-stamped identity id
// and update timestamp, writes it through the store, and returns the freshly
// read record so callers always see server-confirmed data rather than the
// optimistic local delta. On failure no state is mutated.
func (r *Resolver) Upsert(ctx context.Context, identityID string, delta Profile) (*Profile, error) {
	identityID = strings.TrimSpace(identityID)
	if identityID == "" {
		return nil, fmt.Errorf("%w: identity id is required", ErrInvalidInput)
	}
	if !delta.Role.Valid() {
		return nil, fmt.Errorf("%w: role is required", ErrInvalidInput)
	}
	if delta.Role == RoleEmployee && strings.TrimSpace(delta.EmployerID) == "" {
		return nil, fmt.Errorf("%w: employee profile requires employer_id", ErrInvalidInput)
	}
	if delta.Role != RoleEmployee && delta.EmployerID != "" {
		return nil, fmt.Errorf("%w: employer_id is only valid for employees", ErrInvalidInput)
	}

	delta.ID = identityID
	delta.UpdatedAt = r.now().UTC()
	if err := r.store.Upsert(ctx, &delta); err != nil {
		return nil, fmt.Errorf("profile: upsert %s: %w", identityID, err)
	}
	fresh, err := r.store.Get(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("profile: reread %s: %w", identityID, err)
	}
	return fresh, nil
}
