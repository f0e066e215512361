package profile

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store with in-process concurrency safety. It backs
// tests and local development without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

func (s *MemoryStore) ListByIdentity(ctx context.Context, identityID string) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Profile
	for _, p := range s.profiles {
		if p.ID == identityID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *p
	if existing, ok := s.profiles[p.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.profiles[p.ID] = stored
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, upd Update) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Username != nil {
		p.Username = *upd.Username
	}
	if upd.Website != nil {
		p.Website = *upd.Website
	}
	if upd.AvatarURL != nil {
		p.AvatarURL = *upd.AvatarURL
	}
	if upd.RestaurantName != nil {
		p.RestaurantName = *upd.RestaurantName
	}
	if upd.Phone != nil {
		p.Phone = *upd.Phone
	}
	if upd.Address != nil {
		p.Address = *upd.Address
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	p.UpdatedAt = time.Now().UTC()
	s.profiles[id] = p
	return &p, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(s.profiles, id)
	return nil
}

func (s *MemoryStore) ListByRole(ctx context.Context, role Role) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Profile
	for _, p := range s.profiles {
		if p.Role == role {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (s *MemoryStore) ListEmployees(ctx context.Context, employerID string) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Profile
	for _, p := range s.profiles {
		if p.Role == RoleEmployee && p.EmployerID == employerID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}
