// Package signup runs the invitation-driven onboarding flow: validate the
// token, register the account, provision the employee profile, and burn the
// invitation.
package signup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"platewise.app/internal/identity"
	"platewise.app/internal/invite"
	"platewise.app/internal/obs"
	"platewise.app/internal/profile"
)

// Flow wires the account service, profile resolver, and invitation manager
// into the single operation a new employee performs.
type Flow struct {
	auth     *identity.Service
	resolver *profile.Resolver
	invites  *invite.Manager
}

func NewFlow(auth *identity.Service, resolver *profile.Resolver, invites *invite.Manager) (*Flow, error) {
	if auth == nil || resolver == nil || invites == nil {
		return nil, errors.New("signup: auth service, resolver, and invitation manager are required")
	}
	return &Flow{auth: auth, resolver: resolver, invites: invites}, nil
}

// ValidateToken checks an invitation token before the user commits to filling
// in credentials. Misses all come back as invite.ErrNotFoundOrExpired.
func (f *Flow) ValidateToken(ctx context.Context, token string) (*invite.Invitation, error) {
	return f.invites.Validate(ctx, token)
}

// Complete registers the account and, when the invitation token is valid,
// provisions the employee profile under the inviting employer and consumes
// the token. An unusable token does not block registration; the account is
// simply created without a profile. The ordering matters: the token is
// consumed only after the profile write succeeded, so a failed signup never
// burns the invitation.
func (f *Flow) Complete(ctx context.Context, email, password, token string) (identity.Session, *profile.Profile, error) {
	var inv *invite.Invitation
	if strings.TrimSpace(token) != "" {
		found, err := f.invites.Validate(ctx, token)
		switch {
		case err == nil:
			inv = found
		case errors.Is(err, invite.ErrNotFoundOrExpired):
			// Account creation proceeds; the user just will not be
			// attached to an employer.
		default:
			return identity.Session{}, nil, err
		}
	}

	sess, err := f.auth.SignUp(ctx, email, password)
	if err != nil {
		return identity.Session{}, nil, err
	}

	if inv == nil {
		return sess, nil, nil
	}

	prof, err := f.resolver.Upsert(ctx, sess.UserID, profile.Profile{
		Username:   usernameFromEmail(sess.Email),
		Role:       profile.RoleEmployee,
		EmployerID: inv.EmployerID,
		IsActive:   true,
	})
	if err != nil {
		return identity.Session{}, nil, fmt.Errorf("signup: provision profile: %w", err)
	}

	if err := f.invites.Redeem(ctx, inv.Token); err != nil && !errors.Is(err, invite.ErrAlreadyUsed) {
		// The account and profile exist; losing the redeem race is not
		// worth failing the whole flow over.
		obs.LogEvent(map[string]any{
			"level": "warn",
			"msg":   "signup: redeem after provisioning failed",
			"error": err.Error(),
		})
	}
	return sess, prof, nil
}

func usernameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
