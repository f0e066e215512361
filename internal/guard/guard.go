// Package guard decides whether a navigation into a protected area may
// proceed, given the observable session state. Guards are pure: they read,
// they never mutate, and every failure path fails closed toward login.
package guard

import (
	"context"
	"time"

	"platewise.app/internal/obs"
	"platewise.app/internal/profile"
)

// Landing routes per role plus the shared entry points.
const (
	RouteLogin    = "/login"
	RouteHome     = "/home"
	RouteAdmin    = "/admin"
	RouteEmployer = "/employer"
	RouteProfile  = "/profile"
)

// defaultInitTimeout bounds the wait for session initialization so a
// navigation never hangs when the auth boundary goes silent.
const defaultInitTimeout = 3 * time.Second

// Decision is the outcome of a guard evaluation. When Allow is false,
// Redirect names where the navigation should go instead.
type Decision struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
}

// Session is the slice of the session store a guard consumes.
type Session interface {
	WaitInitialized(ctx context.Context) error
	Profile() *profile.Profile
}

// Option configures guard evaluation.
type Option func(*config)

type config struct {
	initTimeout time.Duration
}

// WithInitTimeout overrides the bounded wait for session initialization.
func WithInitTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.initTimeout = d
		}
	}
}

// Evaluate runs the guard state machine: wait for initialization (bounded),
// read the current profile once, decide. A nil required role is the home
// guard: an established profile is redirected to its own landing area, an
// anonymous visitor may stay. A timeout or any other error denies toward
// login; guards never fail open.
func Evaluate(ctx context.Context, sess Session, required *profile.Role, opts ...Option) Decision {
	cfg := config{initTimeout: defaultInitTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	waitCtx, cancel := context.WithTimeout(ctx, cfg.initTimeout)
	defer cancel()
	if err := sess.WaitInitialized(waitCtx); err != nil {
		obs.GuardDecision("timeout")
		return Decision{Allow: false, Redirect: RouteLogin}
	}

	current := sess.Profile()

	if required == nil {
		if current != nil {
			obs.GuardDecision("deny")
			return Decision{Allow: false, Redirect: landingRoute(current.Role)}
		}
		obs.GuardDecision("allow")
		return Decision{Allow: true}
	}

	if current == nil {
		obs.GuardDecision("deny")
		return Decision{Allow: false, Redirect: RouteLogin}
	}
	if current.Role != *required {
		// The identity is valid, just in the wrong area: send it to its own
		// landing route, never to login.
		obs.GuardDecision("deny")
		return Decision{Allow: false, Redirect: landingRoute(current.Role)}
	}
	obs.GuardDecision("allow")
	return Decision{Allow: true}
}

// Home evaluates the unauthenticated entry route.
func Home(ctx context.Context, sess Session, opts ...Option) Decision {
	return Evaluate(ctx, sess, nil, opts...)
}

// Require evaluates a role-protected route.
func Require(ctx context.Context, sess Session, role profile.Role, opts ...Option) Decision {
	return Evaluate(ctx, sess, &role, opts...)
}

func landingRoute(role profile.Role) string {
	switch role {
	case profile.RoleAdmin:
		return RouteAdmin
	case profile.RoleEmployer:
		return RouteEmployer
	case profile.RoleEmployee:
		return RouteProfile
	}
	// Unknown roles cannot be routed anywhere trusted.
	return RouteLogin
}
