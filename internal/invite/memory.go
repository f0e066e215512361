package invite

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store with in-process concurrency safety. MarkUsed
// performs its conditional flip under the store mutex, matching the atomic
// update the SQL implementation gets from the database.
type MemoryStore struct {
	mu      sync.Mutex
	byToken map[string]*Invitation
	byID    map[string]string // id -> token
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byToken: make(map[string]*Invitation),
		byID:    make(map[string]string),
	}
}

func (s *MemoryStore) Create(ctx context.Context, inv *Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *inv
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.byToken[inv.Token] = &stored
	s.byID[inv.ID] = inv.Token
	return nil
}

func (s *MemoryStore) FindConsumable(ctx context.Context, token string, now time.Time) (*Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.byToken[token]
	if !ok || inv.Used || !inv.ExpiresAt.After(now) {
		return nil, ErrNotFoundOrExpired
	}
	copied := *inv
	return &copied, nil
}

func (s *MemoryStore) MarkUsed(ctx context.Context, token string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.byToken[token]
	if !ok || inv.Used || !inv.ExpiresAt.After(now) {
		return ErrAlreadyUsed
	}
	inv.Used = true
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id, employerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.byID[id]
	if !ok || s.byToken[token].EmployerID != employerID {
		return nil
	}
	delete(s.byID, id)
	delete(s.byToken, token)
	return nil
}

func (s *MemoryStore) ListPending(ctx context.Context, employerID string, now time.Time) ([]Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Invitation
	for _, inv := range s.byToken {
		if inv.EmployerID == employerID && !inv.Used && inv.ExpiresAt.After(now) {
			res = append(res, *inv)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}
