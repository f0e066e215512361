// Package session holds the authoritative, observable answer to "who is
// signed in and as what". A Store is explicitly constructed and passed to its
// consumers; there is no package-level singleton. Its lifecycle is
// uninitialized -> resolving -> ready, re-entering resolving on every auth
// state change.
package session

import (
	"context"
	"errors"
	"sync"

	"platewise.app/internal/identity"
	"platewise.app/internal/profile"
)

var ErrUnknownProfile = errors.New("session: profile not in resolved set")

// Identity is the reduced view of an authenticated session the store
// publishes: the opaque subject id and email issued by the auth boundary.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// State is the published session tuple. Invariant: Profile != nil implies
// Identity != nil. Initialized flips to true exactly once, after the first
// profile resolution attempt completes (success or failure), and never
// reverts; it is the gate consumers must wait on before trusting Profile.
type State struct {
	Identity    *Identity         `json:"identity"`
	Profile     *profile.Profile  `json:"profile"`
	AllProfiles []profile.Profile `json:"all_profiles"`
	Initialized bool              `json:"initialized"`
}

type subscriber struct {
	ch chan State
}

// Store resolves auth events into observable session state. All reads return
// the latest value; subscriptions replay the current value immediately and
// then deliver future states in publish order, conflating intermediate states
// for slow consumers so the newest value is never lost.
type Store struct {
	resolver *profile.Resolver

	mu      sync.Mutex
	state   State
	seq     uint64 // recency order of auth events; stale resolutions lose
	subs    map[int]*subscriber
	nextSub int
	closed  bool
	initCh  chan struct{} // closed when Initialized first becomes true
}

// New constructs a session store around the given profile resolver.
func New(resolver *profile.Resolver) (*Store, error) {
	if resolver == nil {
		return nil, errors.New("session: resolver is required")
	}
	return &Store{
		resolver: resolver,
		subs:     make(map[int]*subscriber),
		initCh:   make(chan struct{}),
	}, nil
}

// Close tears the store down. Subscriber channels are closed; subsequent auth
// events are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, sub := range s.subs {
		close(sub.ch)
		delete(s.subs, id)
	}
}

// HandleAuthChange ingests a boundary auth event: it publishes the new
// identity (or clears all state on nil), resolves the identity's profiles,
// and concludes by publishing Initialized=true. Concurrent events are ordered
// by recency: a resolution still in flight for a superseded identity never
// overwrites state published by a newer event.
func (s *Store) HandleAuthChange(ctx context.Context, sess *identity.Session) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq

	if sess == nil {
		s.state.Identity = nil
		s.state.Profile = nil
		s.state.AllProfiles = nil
		s.markInitializedLocked()
		s.publishLocked()
		s.mu.Unlock()
		return
	}

	next := &Identity{ID: sess.UserID, Email: sess.Email}
	if s.state.Identity == nil || s.state.Identity.ID != next.ID {
		// Identity changed: never expose the previous identity's profile
		// alongside the new identity.
		s.state.Profile = nil
		s.state.AllProfiles = nil
	}
	s.state.Identity = next
	s.publishLocked()
	s.mu.Unlock()

	all, current, err := s.resolver.Resolve(ctx, sess.UserID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if seq == s.seq {
		if err != nil {
			// A failed fetch degrades to "no profile"; guards treat that as
			// unauthenticated. The error is not retried here.
			current, all = nil, nil
		}
		s.state.Profile = current
		s.state.AllProfiles = all
	}
	s.markInitializedLocked()
	s.publishLocked()
}

// SwitchProfile republishes p as the current profile without a remote round
// trip. p must be one of the already-resolved profiles.
func (s *Store) SwitchProfile(p profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, known := range s.state.AllProfiles {
		if known.ID == p.ID {
			selected := p
			s.state.Profile = &selected
			s.publishLocked()
			return nil
		}
	}
	return ErrUnknownProfile
}

// Snapshot returns the latest published state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the latest identity, or nil when signed out.
func (s *Store) Identity() *Identity { return s.Snapshot().Identity }

// Profile returns the latest current profile, or nil.
func (s *Store) Profile() *profile.Profile { return s.Snapshot().Profile }

// AllProfiles returns every profile resolved for the current identity.
func (s *Store) AllProfiles() []profile.Profile { return s.Snapshot().AllProfiles }

// Initialized reports whether the first resolution attempt has completed.
func (s *Store) Initialized() bool { return s.Snapshot().Initialized }

// WaitInitialized blocks until the store has completed its first resolution
// attempt or the context ends.
func (s *Store) WaitInitialized(ctx context.Context) error {
	s.mu.Lock()
	ch := s.initCh
	done := s.state.Initialized
	s.mu.Unlock()
	if done {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel that immediately carries the current state and
// then every subsequent state in publish order. The channel is closed when
// the context ends or the store is closed.
func (s *Store) Subscribe(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	ch <- s.state
	id := s.nextSub
	s.nextSub++
	s.subs[id] = &subscriber{ch: ch}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub.ch)
		}
		s.mu.Unlock()
	}()

	return ch
}

// Bind subscribes the store to the auth service's state changes and primes it
// with the session resolved from token (empty token primes as signed out).
// The returned function unsubscribes.
func (s *Store) Bind(ctx context.Context, auth *identity.Service, token string) func() {
	unsub := auth.OnAuthStateChange(func(sess *identity.Session) {
		s.HandleAuthChange(ctx, sess)
	})
	sess, err := auth.GetSession(ctx, token)
	if err != nil {
		sess = nil
	}
	s.HandleAuthChange(ctx, sess)
	return unsub
}

func (s *Store) markInitializedLocked() {
	if !s.state.Initialized {
		s.state.Initialized = true
		close(s.initCh)
	}
}

// publishLocked fans the current state out to all subscribers. A subscriber
// that has not drained its previous value has it replaced: consumers always
// see the newest state, possibly skipping intermediates.
func (s *Store) publishLocked() {
	st := s.state
	for _, sub := range s.subs {
		select {
		case sub.ch <- st:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- st
		}
	}
}
