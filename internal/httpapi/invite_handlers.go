package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"platewise.app/internal/invite"
	"platewise.app/internal/profile"
)

type createInvitationRequest struct {
	Email string            `json:"email"`
	Vars  map[string]string `json:"vars,omitempty"`
}

func (a *API) handleInvitationsCollection(w http.ResponseWriter, r *http.Request) {
	current, ok := a.requireRole(w, r, profile.RoleEmployer)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		pending, err := a.invites.Pending(r.Context(), current.ID)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": pending})
	case http.MethodPost:
		var req createInvitationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		vars := req.Vars
		if vars == nil {
			vars = map[string]string{}
		}
		if _, ok := vars["restaurant_name"]; !ok && current.RestaurantName != "" {
			vars["restaurant_name"] = current.RestaurantName
		}
		inv, err := a.invites.Create(r.Context(), current.ID, req.Email, vars)
		if err != nil {
			if errors.Is(err, invite.ErrInvalidInput) {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		w.Header().Set("Location", "/v1/invitations/"+inv.ID)
		writeJSON(w, http.StatusCreated, inv)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleInvitationValidate is public: the invited employee holds only the
// token. Every miss is the same 404.
func (a *API) handleInvitationValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeError(w, r, http.StatusBadRequest, "token query parameter is required")
		return
	}
	inv, err := a.invites.Validate(r.Context(), token)
	if err != nil {
		if errors.Is(err, invite.ErrNotFoundOrExpired) {
			writeError(w, r, http.StatusNotFound, "invalid or expired invitation")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	// The token holder already knows the token; do not echo it back.
	writeJSON(w, http.StatusOK, map[string]any{
		"employer_id": inv.EmployerID,
		"email":       inv.Email,
		"expires_at":  inv.ExpiresAt,
	})
}

func (a *API) handleInvitationResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/invitations/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	current, ok := a.requireRole(w, r, profile.RoleEmployer)
	if !ok {
		return
	}
	// Scoped to the caller: an employer can only cancel invitations it
	// issued, anyone else's id falls through as a no-op.
	if err := a.invites.Cancel(r.Context(), id, current.ID); err != nil {
		if errors.Is(err, invite.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
