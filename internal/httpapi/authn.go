package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"platewise.app/internal/identity"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// Routes reachable without a session. The auth endpoints themselves must be
// public so an anonymous visitor can sign in, and invitation validation must
// be public so an invited employee can check a token before registering.
// Session state and guard evaluation are public too: for an anonymous
// visitor they report the signed-out state rather than rejecting.
var publicPaths = []string{
	"/v1/auth/signup",
	"/v1/auth/signin",
	"/v1/auth/signout",
	"/v1/auth/session",
	"/v1/session/state",
	"/v1/guard",
	"/v1/invitations/validate",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		// Attach the session when a valid token is presented, even on
		// public paths: /v1/session/state reports richer state for a
		// signed-in caller.
		if token, err := extractBearerToken(r.Header.Get(authHeader)); err == nil {
			sess, err := a.auth.GetSession(r.Context(), token)
			if err != nil {
				writeError(w, r, http.StatusInternalServerError, "authentication error")
				return
			}
			if sess != nil {
				next.ServeHTTP(w, r.WithContext(identity.ContextWithSession(r.Context(), *sess)))
				return
			}
			if !isPublicPath(r.URL.Path) {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
