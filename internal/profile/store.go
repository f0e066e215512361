package profile

import "context"

// Store describes persistence operations for profile records.
type Store interface {
	// ListByIdentity returns every profile owned by the identity in creation
	// order. An empty result is not an error.
	ListByIdentity(ctx context.Context, identityID string) ([]Profile, error)
	// Get returns the profile by its primary key or ErrNotFound.
	Get(ctx context.Context, id string) (*Profile, error)
	// Upsert inserts the profile or replaces the mutable columns of an
	// existing row with the same id.
	Upsert(ctx context.Context, p *Profile) error
	// Update patches an existing profile and returns the stored result.
	Update(ctx context.Context, id string, upd Update) (*Profile, error)
	// Delete removes the profile. Deleting an absent id returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	// ListByRole returns all profiles carrying the role, newest first.
	ListByRole(ctx context.Context, role Role) ([]Profile, error)
	// ListEmployees returns the employee profiles linked to an employer,
	// newest first.
	ListEmployees(ctx context.Context, employerID string) ([]Profile, error)
}
