package profile

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResolveEmptySetIsNotAnError(t *testing.T) {
	store := NewMemoryStore()
	r, err := NewResolver(store)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	all, current, err := r.Resolve(context.Background(), "identity-without-profile")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if current != nil {
		t.Fatalf("expected nil current profile, got %+v", current)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty set, got %d", len(all))
	}
}

func TestResolveFirstRecordWins(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := store.Upsert(context.Background(), &Profile{
		ID: "u1", Username: "first", Role: RoleEmployer, CreatedAt: base,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	r, err := NewResolver(store)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	all, current, err := r.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if current == nil || current.Username != "first" {
		t.Fatalf("unexpected current profile: %+v", current)
	}
	if len(all) != 1 {
		t.Fatalf("expected one profile, got %d", len(all))
	}
}

func TestUpsertStampsAndRereads(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	r, err := NewResolver(store, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	got, err := r.Upsert(context.Background(), "u2", Profile{
		ID:       "ignored-caller-id",
		Username: "bram",
		Role:     RoleEmployer,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got.ID != "u2" {
		t.Fatalf("identity id not stamped, got %q", got.ID)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("updated_at not stamped: %v", got.UpdatedAt)
	}

	// The returned record must come from the store, not the local delta.
	stored, err := store.Get(context.Background(), "u2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CreatedAt != stored.CreatedAt {
		t.Fatalf("result not re-read from store: %v vs %v", got.CreatedAt, stored.CreatedAt)
	}
}

func TestUpsertValidation(t *testing.T) {
	store := NewMemoryStore()
	r, err := NewResolver(store)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	// Employee without employer link.
	if _, err := r.Upsert(context.Background(), "u3", Profile{
		Username: "caro", Role: RoleEmployee,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// Employer carrying an employer link.
	if _, err := r.Upsert(context.Background(), "u3", Profile{
		Username: "caro", Role: RoleEmployer, EmployerID: "u1",
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// Nothing was written on failure.
	if _, err := store.Get(context.Background(), "u3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("store mutated on failed upsert: %v", err)
	}
}

func TestUpsertFailureLeavesPreviousState(t *testing.T) {
	store := &failingStore{Store: NewMemoryStore()}
	r, err := NewResolver(store)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if _, err := r.Upsert(context.Background(), "u4", Profile{
		Username: "dee", Role: RoleEmployer,
	}); err == nil {
		t.Fatal("expected store failure to surface")
	}
}

type failingStore struct {
	Store
}

func (f *failingStore) Upsert(ctx context.Context, p *Profile) error {
	return errors.New("store unavailable")
}
