package signup

import (
	"context"
	"errors"
	"testing"
	"time"

	"platewise.app/internal/identity"
	"platewise.app/internal/invite"
	"platewise.app/internal/profile"
)

type fixture struct {
	flow     *Flow
	auth     *identity.Service
	resolver *profile.Resolver
	invites  *invite.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	auth, err := identity.NewService(identity.NewMemoryStore(), "test-secret")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	resolver, err := profile.NewResolver(profile.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	invites, err := invite.NewManager(invite.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	flow, err := NewFlow(auth, resolver, invites)
	if err != nil {
		t.Fatalf("NewFlow: %v", err)
	}
	return &fixture{flow: flow, auth: auth, resolver: resolver, invites: invites}
}

func TestCompleteWithInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.invites.Create(ctx, "employer-1", "new.hire@b.com", nil)
	if err != nil {
		t.Fatalf("Create invitation: %v", err)
	}

	sess, prof, err := f.flow.Complete(ctx, "new.hire@b.com", "secret-pass", inv.Token)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("expected a live session")
	}
	if prof == nil {
		t.Fatal("expected a provisioned profile")
	}
	if prof.Role != profile.RoleEmployee || prof.EmployerID != "employer-1" {
		t.Fatalf("unexpected profile: %+v", prof)
	}
	if prof.Username != "new.hire" {
		t.Fatalf("username should come from the email local part, got %q", prof.Username)
	}

	// The token must be consumed.
	if _, err := f.invites.Validate(ctx, inv.Token); !errors.Is(err, invite.ErrNotFoundOrExpired) {
		t.Fatalf("token should be burnt, got %v", err)
	}
}

func TestCompleteWithoutToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, prof, err := f.flow.Complete(ctx, "solo@b.com", "secret-pass", "")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("expected a live session")
	}
	if prof != nil {
		t.Fatalf("no invitation, no profile; got %+v", prof)
	}
}

func TestCompleteWithUnusableTokenStillRegisters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, prof, err := f.flow.Complete(ctx, "late@b.com", "secret-pass", "bogus-token")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("expected a live session")
	}
	if prof != nil {
		t.Fatalf("unusable token must not yield a profile, got %+v", prof)
	}
}

func TestCompleteDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, _, err := f.flow.Complete(ctx, "dup@b.com", "secret-pass", ""); err != nil {
		t.Fatalf("first Complete: %v", err)
	}
	if _, _, err := f.flow.Complete(ctx, "dup@b.com", "secret-pass", ""); !errors.Is(err, identity.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestFailedSignupKeepsInvitationAlive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.invites.Create(ctx, "employer-1", "hire@b.com", nil)
	if err != nil {
		t.Fatalf("Create invitation: %v", err)
	}

	// Password too short: registration fails before any profile write.
	if _, _, err := f.flow.Complete(ctx, "hire@b.com", "nope", inv.Token); err == nil {
		t.Fatal("expected registration to fail")
	}

	got, err := f.invites.Validate(ctx, inv.Token)
	if err != nil {
		t.Fatalf("invitation must survive a failed signup: %v", err)
	}
	if got.Used {
		t.Fatal("invitation must remain unused")
	}

	// A retry with a valid password uses the same invitation.
	if _, prof, err := f.flow.Complete(ctx, "hire@b.com", "secret-pass", inv.Token); err != nil || prof == nil {
		t.Fatalf("retry should succeed with a profile, got prof=%v err=%v", prof, err)
	}
}

func TestValidateToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.invites.Create(ctx, "employer-1", "peek@b.com", nil)
	if err != nil {
		t.Fatalf("Create invitation: %v", err)
	}
	got, err := f.flow.ValidateToken(ctx, inv.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got.Email != "peek@b.com" || got.ExpiresAt.Before(time.Now()) {
		t.Fatalf("unexpected invitation: %+v", got)
	}
}
