package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"platewise.app/internal/ids"
	"platewise.app/internal/obs"
)

const (
	defaultIssuer     = "platewise"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour * 14

	minPasswordLength = 6
)

// Service provides credential sign-in/up/out, session retrieval, and
// auth-change notifications. It is the boundary auth system the session store
// and signup flow consume.
type Service struct {
	store      Store
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time

	subMu   sync.Mutex
	subs    map[int]func(*Session)
	nextSub int

	// dispatchMu serializes callback delivery so subscribers observe auth
	// transitions in publish order.
	dispatchMu sync.Mutex
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		if v := strings.TrimSpace(issuer); v != "" {
			s.issuer = v
		}
		return nil
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs the identity service. The signing secret is required.
func NewService(store Store, secret string, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("identity: store is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("identity: signing secret is required")
	}
	s := &Service{
		store:      store,
		secret:     []byte(secret),
		issuer:     defaultIssuer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
		subs:       make(map[int]func(*Session)),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SignUp registers a new user and signs it in. A known email returns
// ErrAlreadyRegistered so callers can steer the user to sign-in instead.
func (s *Service) SignUp(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if len(password) < minPasswordLength {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("identity: hash password: %w", err)
	}

	now := s.now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Status:       userStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			return Session{}, ErrAlreadyRegistered
		}
		return Session{}, fmt.Errorf("identity: create user: %w", err)
	}
	return s.openSession(ctx, user)
}

// SignIn authenticates credentials and issues a session. Bad credentials and
// disabled accounts both report ErrInvalidCredentials; the distinction is not
// leaked to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if user.Status != userStatusActive {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

// SignOut revokes the session's refresh tokens and notifies subscribers of
// the signed-out state. Signing out with an invalid or absent token still
// publishes the nil session; the operation is idempotent.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if claims, err := s.parseToken(token); err == nil {
		if err := s.store.RevokeRefreshTokens(ctx, claims.Subject); err != nil {
			return fmt.Errorf("identity: revoke refresh tokens: %w", err)
		}
	}
	obs.AuthStateChange("signed_out")
	s.broadcast(nil)
	return nil
}

// GetSession resolves a bearer token into a session. An absent, expired, or
// invalid token yields a nil session without an error: "not signed in" is a
// normal steady state, not a failure.
func (s *Service) GetSession(ctx context.Context, token string) (*Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, nil
	}
	return &Session{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// OnAuthStateChange registers a callback invoked with the new session (nil on
// sign-out) after every auth transition. The returned function unsubscribes.
func (s *Service) OnAuthStateChange(fn func(*Session)) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Service) openSession(ctx context.Context, user *User) (Session, error) {
	token, expiresAt, err := s.signToken(user)
	if err != nil {
		return Session{}, err
	}
	now := s.now().UTC()
	refresh := &RefreshToken{
		ID:        ids.New(),
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.store.CreateRefreshToken(ctx, refresh); err != nil {
		return Session{}, fmt.Errorf("identity: persist refresh token: %w", err)
	}
	sess := Session{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	obs.AuthStateChange("signed_in")
	s.broadcast(&sess)
	return sess, nil
}

func (s *Service) broadcast(sess *Session) {
	s.subMu.Lock()
	fns := make([]func(*Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	for _, fn := range fns {
		fn(sess)
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	return email, nil
}
