package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"platewise.app/internal/identity"
	"platewise.app/internal/invite"
	"platewise.app/internal/obs"
	"platewise.app/internal/profile"
	"platewise.app/internal/signup"
)

// ReadyProbe reports readiness, pinging the database when one is wired.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries the services the HTTP layer exposes.
type Config struct {
	Auth        *identity.Service
	Resolver    *profile.Resolver
	Invitations *invite.Manager
	Ready       ReadyProbe
	Version     string
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	auth       *identity.Service
	resolver   *profile.Resolver
	invites    *invite.Manager
	flow       *signup.Flow
	readyProbe ReadyProbe
	version    string
}

func New(cfg Config) (*API, error) {
	if cfg.Auth == nil || cfg.Resolver == nil || cfg.Invitations == nil {
		return nil, errors.New("httpapi: auth service, resolver, and invitation manager are required")
	}
	flow, err := signup.NewFlow(cfg.Auth, cfg.Resolver, cfg.Invitations)
	if err != nil {
		return nil, err
	}
	a := &API{
		mux:        http.NewServeMux(),
		auth:       cfg.Auth,
		resolver:   cfg.Resolver,
		invites:    cfg.Invitations,
		flow:       flow,
		readyProbe: cfg.Ready,
		version:    cfg.Version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// auth boundary
	a.mux.HandleFunc("/v1/auth/signup", a.handleSignUp)
	a.mux.HandleFunc("/v1/auth/signin", a.handleSignIn)
	a.mux.HandleFunc("/v1/auth/signout", a.handleSignOut)
	a.mux.HandleFunc("/v1/auth/session", a.handleAuthSession)

	// session state and guards
	a.mux.HandleFunc("/v1/session/state", a.handleSessionState)
	a.mux.HandleFunc("/v1/session/switch-profile", a.handleSwitchProfile)
	a.mux.HandleFunc("/v1/guard", a.handleGuard)

	// profiles and directories
	a.mux.HandleFunc("/v1/profile", a.handleOwnProfile)
	a.mux.HandleFunc("/v1/employers", a.handleEmployersCollection)
	a.mux.HandleFunc("/v1/employers/", a.handleEmployerResource)
	a.mux.HandleFunc("/v1/employees", a.handleEmployees)

	// invitations
	a.mux.HandleFunc("/v1/invitations", a.handleInvitationsCollection)
	a.mux.HandleFunc("/v1/invitations/validate", a.handleInvitationValidate)
	a.mux.HandleFunc("/v1/invitations/", a.handleInvitationResource)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a, nil
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = SecurityHeaders(h)
	h = CORS(h)
	h = RateLimit(h, 50, 25)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "platewise-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "platewise-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
