package invite

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"platewise.app/internal/audit"
	"platewise.app/internal/ids"
	"platewise.app/internal/notify"
	"platewise.app/internal/obs"
)

const (
	defaultTTL = 7 * 24 * time.Hour

	// tokenBytes sizes the random token. 32 bytes of entropy makes guessing
	// or colliding tokens negligible; this is a credential, not a display
	// code.
	tokenBytes = 32
)

// Manager owns the invitation lifecycle.
type Manager struct {
	store    Store
	notifier notify.Notifier
	baseURL  string
	ttl      time.Duration
	now      func() time.Time
}

// Option configures Manager behavior.
type Option func(*Manager)

// WithNotifier sets the notification sink for invitation emails.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithBaseURL sets the public origin embedded in redemption links.
func WithBaseURL(u string) Option {
	return func(m *Manager) { m.baseURL = strings.TrimRight(u, "/") }
}

// WithTTL overrides the invitation lifetime.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

func NewManager(store Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidInput)
	}
	m := &Manager{
		store: store,
		ttl:   defaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Create mints an invitation for email under the issuing employer and
// persists it, then dispatches the redemption link best effort: a failed
// notification is logged and the invitation stays valid, since the link can
// always be copied and shared by hand.
func (m *Manager) Create(ctx context.Context, employerID, email string, vars map[string]string) (*Invitation, error) {
	employerID = strings.TrimSpace(employerID)
	if employerID == "" {
		return nil, fmt.Errorf("%w: employer id is required", ErrInvalidInput)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	inv := &Invitation{
		ID:         ids.New(),
		EmployerID: employerID,
		Email:      email,
		Token:      token,
		ExpiresAt:  now.Add(m.ttl),
		CreatedAt:  now,
	}
	if err := m.store.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("invite: create: %w", err)
	}
	obs.InvitationIssued()
	_ = audit.LogEvent(ctx, "invite.created", map[string]any{
		"invitation_id": inv.ID,
		"employer_id":   inv.EmployerID,
		"email":         inv.Email,
		"expires_at":    inv.ExpiresAt.Format(time.RFC3339),
	})

	m.dispatch(ctx, inv, vars)
	return inv, nil
}

// Validate resolves a token into its invitation iff it is still consumable.
// All misses look identical to the caller.
func (m *Manager) Validate(ctx context.Context, token string) (*Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFoundOrExpired
	}
	return m.store.FindConsumable(ctx, token, m.now().UTC())
}

// Redeem consumes the token after the invited account has been created. The
// storage layer guarantees exactly one concurrent redeem wins; later calls,
// and redeems of a token that meanwhile expired, observe ErrAlreadyUsed.
func (m *Manager) Redeem(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNotFoundOrExpired
	}
	if err := m.store.MarkUsed(ctx, token, m.now().UTC()); err != nil {
		return err
	}
	obs.InvitationRedeemed()
	_ = audit.LogEvent(ctx, "invite.redeemed", nil)
	return nil
}

// Cancel deletes an invitation before its expiry. Deletion is scoped to the
// issuing employer: one employer cannot cancel another's invitation, the
// mismatched delete is simply a no-op. Cancelling an id that is already gone
// succeeds.
func (m *Manager) Cancel(ctx context.Context, id, employerID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: invitation id is required", ErrInvalidInput)
	}
	employerID = strings.TrimSpace(employerID)
	if employerID == "" {
		return fmt.Errorf("%w: employer id is required", ErrInvalidInput)
	}
	if err := m.store.Delete(ctx, id, employerID); err != nil {
		return fmt.Errorf("invite: cancel %s: %w", id, err)
	}
	_ = audit.LogEvent(ctx, "invite.cancelled", map[string]any{
		"invitation_id": id,
		"employer_id":   employerID,
	})
	return nil
}

// Pending lists the employer's open invitations.
func (m *Manager) Pending(ctx context.Context, employerID string) ([]Invitation, error) {
	return m.store.ListPending(ctx, employerID, m.now().UTC())
}

func (m *Manager) dispatch(ctx context.Context, inv *Invitation, vars map[string]string) {
	if m.notifier == nil {
		return
	}
	sendVars := make(map[string]string, len(vars)+3)
	for k, v := range vars {
		sendVars[k] = v
	}
	sendVars["email"] = inv.Email
	sendVars["invite_link"] = m.baseURL + "/signup?token=" + inv.Token
	sendVars["expires_date"] = inv.ExpiresAt.Format("Jan 2, 2006")

	if err := m.notifier.Send(ctx, notify.TemplateInvitation, sendVars); err != nil {
		obs.LogEvent(map[string]any{
			"ts":            time.Now().UTC().Format(time.RFC3339Nano),
			"level":         "warn",
			"msg":           "invitation email dispatch failed",
			"invitation_id": inv.ID,
			"error":         err.Error(),
		})
	}
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("invite: token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
