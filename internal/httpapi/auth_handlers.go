package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"platewise.app/internal/audit"
	"platewise.app/internal/identity"
	"platewise.app/internal/profile"
)

type signUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	InvitationToken string `json:"invitation_token,omitempty"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID    string           `json:"user_id"`
	Email     string           `json:"email"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Profile   *profile.Profile `json:"profile,omitempty"`
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sess, prof, err := a.flow.Complete(r.Context(), req.Email, req.Password, strings.TrimSpace(req.InvitationToken))
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrAlreadyRegistered):
			writeError(w, r, http.StatusConflict, "email already registered")
		case errors.Is(err, identity.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "signup failed")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.signup", map[string]any{
		"user_id":   sess.UserID,
		"email":     sess.Email,
		"with_link": prof != nil,
	})

	writeJSON(w, http.StatusCreated, sessionResponse{
		UserID:    sess.UserID,
		Email:     sess.Email,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Profile:   prof,
	})
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := a.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		// Every failure looks the same to the caller.
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.signin", map[string]any{
		"user_id": sess.UserID,
	})

	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:    sess.UserID,
		Email:     sess.Email,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (a *API) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	token, _ := extractBearerToken(r.Header.Get(authHeader))
	if err := a.auth.SignOut(r.Context(), token); err != nil {
		writeError(w, r, http.StatusInternalServerError, "signout failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.signout", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAuthSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, ok := identity.SessionFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:    sess.UserID,
		Email:     sess.Email,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	})
}
