package invite

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(NewMemoryStore(), opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestInvitationLifecycle(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	m := newTestManager(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	inv, err := m.Create(ctx, "employer-x", "a@b.com", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inv.Used {
		t.Fatal("new invitation must be unused")
	}
	if want := now.Add(7 * 24 * time.Hour); !inv.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", inv.ExpiresAt, want)
	}

	got, err := m.Validate(ctx, inv.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.ID != inv.ID || got.Email != "a@b.com" {
		t.Fatalf("unexpected invitation: %+v", got)
	}

	if err := m.Redeem(ctx, inv.Token); err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	if _, err := m.Validate(ctx, inv.Token); !errors.Is(err, ErrNotFoundOrExpired) {
		t.Fatalf("redeemed token must be unusable, got %v", err)
	}
}

func TestRedeemIsIdempotentPastTheFirst(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	inv, err := m.Create(ctx, "employer-x", "a@b.com", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Redeem(ctx, inv.Token); err != nil {
		t.Fatalf("first Redeem: %v", err)
	}
	if err := m.Redeem(ctx, inv.Token); !errors.Is(err, ErrAlreadyUsed) {
		t.Fatalf("second Redeem should report ErrAlreadyUsed, got %v", err)
	}
}

func TestConcurrentRedeemExactlyOneWins(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	inv, err := m.Create(ctx, "employer-x", "race@b.com", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const attempts = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Redeem(ctx, inv.Token); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one successful redeem, got %d", wins)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	current := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	m := newTestManager(t, WithClock(func() time.Time { return current }))
	ctx := context.Background()

	inv, err := m.Create(ctx, "employer-x", "late@b.com", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Still unused, but past expiry: validate must fail.
	current = current.Add(7*24*time.Hour + time.Second)
	if _, err := m.Validate(ctx, inv.Token); !errors.Is(err, ErrNotFoundOrExpired) {
		t.Fatalf("expected ErrNotFoundOrExpired, got %v", err)
	}
}

func TestValidateDoesNotDistinguishMisses(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	inv, err := m.Create(ctx, "employer-x", "a@b.com", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Redeem(ctx, inv.Token); err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	_, usedErr := m.Validate(ctx, inv.Token)
	_, unknownErr := m.Validate(ctx, "no-such-token")
	if !errors.Is(usedErr, ErrNotFoundOrExpired) || !errors.Is(unknownErr, ErrNotFoundOrExpired) {
		t.Fatalf("misses must be indistinguishable: used=%v unknown=%v", usedErr, unknownErr)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	inv, err := m.Create(ctx, "employer-x", "a@b.com", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Cancel(ctx, inv.ID, "employer-x"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := m.Cancel(ctx, inv.ID, "employer-x"); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if _, err := m.Validate(ctx, inv.Token); !errors.Is(err, ErrNotFoundOrExpired) {
		t.Fatalf("cancelled token must be unusable, got %v", err)
	}
}

func TestCancelScopedToIssuer(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	inv, err := m.Create(ctx, "employer-x", "a@b.com", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Another employer naming the right id must not touch the invitation.
	if err := m.Cancel(ctx, inv.ID, "employer-y"); err != nil {
		t.Fatalf("foreign Cancel: %v", err)
	}
	if _, err := m.Validate(ctx, inv.Token); err != nil {
		t.Fatalf("invitation must survive a foreign cancel: %v", err)
	}

	if err := m.Cancel(ctx, inv.ID, "employer-x"); err != nil {
		t.Fatalf("owner Cancel: %v", err)
	}
	if _, err := m.Validate(ctx, inv.Token); !errors.Is(err, ErrNotFoundOrExpired) {
		t.Fatalf("cancelled token must be unusable, got %v", err)
	}
}

func TestRedeemExpiredToken(t *testing.T) {
	current := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	m := newTestManager(t, WithClock(func() time.Time { return current }))
	ctx := context.Background()

	inv, err := m.Create(ctx, "employer-x", "late@b.com", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The token expires between validate and redeem; the conditional update
	// must refuse it even though it was never used.
	current = current.Add(7*24*time.Hour + time.Second)
	if err := m.Redeem(ctx, inv.Token); !errors.Is(err, ErrAlreadyUsed) {
		t.Fatalf("expected ErrAlreadyUsed for expired token, got %v", err)
	}
	got, err := m.store.FindConsumable(ctx, inv.Token, inv.ExpiresAt.Add(-time.Hour))
	if err != nil {
		t.Fatalf("FindConsumable: %v", err)
	}
	if got.Used {
		t.Fatal("failed redeem must not flip the token to used")
	}
}

func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	m := newTestManager(t, WithNotifier(failingNotifier{}), WithBaseURL("https://app.example.com"))
	ctx := context.Background()

	inv, err := m.Create(ctx, "employer-x", "a@b.com", nil)
	if err != nil {
		t.Fatalf("Create must succeed despite notifier failure: %v", err)
	}
	if _, err := m.Validate(ctx, inv.Token); err != nil {
		t.Fatalf("invitation must stay consumable: %v", err)
	}
}

func TestNotificationCarriesRedemptionLink(t *testing.T) {
	sink := &capturingNotifier{}
	m := newTestManager(t, WithNotifier(sink), WithBaseURL("https://app.example.com/"))
	ctx := context.Background()

	inv, err := m.Create(ctx, "employer-x", "a@b.com", map[string]string{"restaurant_name": "Casa Ana"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sink.template != "employee-invitation" {
		t.Fatalf("unexpected template: %q", sink.template)
	}
	wantLink := "https://app.example.com/signup?token=" + inv.Token
	if sink.vars["invite_link"] != wantLink {
		t.Fatalf("invite_link = %q, want %q", sink.vars["invite_link"], wantLink)
	}
	if sink.vars["restaurant_name"] != "Casa Ana" {
		t.Fatalf("caller vars not forwarded: %v", sink.vars)
	}
}

func TestTokenShape(t *testing.T) {
	m := newTestManager(t)
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		inv, err := m.Create(context.Background(), "employer-x", "a@b.com", nil)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if len(inv.Token) < 40 {
			t.Fatalf("token too short to be a credential: %q", inv.Token)
		}
		if strings.ContainsAny(inv.Token, "+/=") {
			t.Fatalf("token must be URL safe: %q", inv.Token)
		}
		if seen[inv.Token] {
			t.Fatalf("token collision: %q", inv.Token)
		}
		seen[inv.Token] = true
	}
}

type failingNotifier struct{}

func (failingNotifier) Send(ctx context.Context, template string, vars map[string]string) error {
	return errors.New("mail provider down")
}

type capturingNotifier struct {
	template string
	vars     map[string]string
}

func (c *capturingNotifier) Send(ctx context.Context, template string, vars map[string]string) error {
	c.template = template
	c.vars = vars
	return nil
}
