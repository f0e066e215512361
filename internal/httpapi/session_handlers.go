package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"platewise.app/internal/identity"
	"platewise.app/internal/session"
)

type switchProfileRequest struct {
	ProfileID string `json:"profile_id"`
}

// requestSession builds a session store primed with the caller's auth state.
// Each request gets its own store: the resolution runs inline, so the state
// is initialized by the time the handler reads it.
func (a *API) requestSession(r *http.Request) (*session.Store, error) {
	st, err := session.New(a.resolver)
	if err != nil {
		return nil, err
	}
	var sess *identity.Session
	if s, ok := identity.SessionFromContext(r.Context()); ok {
		sess = &s
	}
	st.HandleAuthChange(r.Context(), sess)
	return st, nil
}

func (a *API) handleSessionState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	st, err := a.requestSession(r)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	defer st.Close()
	writeJSON(w, http.StatusOK, st.Snapshot())
}

// handleSwitchProfile validates the requested profile against the caller's
// profile list and returns the switched snapshot. The selection lives only
// in that response: session stores are per request, so the next request
// starts from the resolver's default ordering again. Under the current
// one-profile-per-identity schema the default and the selection coincide;
// persisting the choice (a token claim or a column) becomes necessary once
// an identity can hold several profiles.
func (a *API) handleSwitchProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, ok := identity.SessionFromContext(r.Context()); !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	var req switchProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.ProfileID = strings.TrimSpace(req.ProfileID)
	if req.ProfileID == "" {
		writeError(w, r, http.StatusBadRequest, "profile_id is required")
		return
	}

	st, err := a.requestSession(r)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	defer st.Close()

	var found bool
	for _, p := range st.AllProfiles() {
		if p.ID == req.ProfileID {
			if err := st.SwitchProfile(p); err != nil {
				if errors.Is(err, session.ErrUnknownProfile) {
					writeError(w, r, http.StatusNotFound, "profile not found")
					return
				}
				writeError(w, r, http.StatusInternalServerError, "internal error")
				return
			}
			found = true
			break
		}
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, st.Snapshot())
}
