package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"platewise.app/internal/audit"
	"platewise.app/internal/identity"
	"platewise.app/internal/profile"
)

type profileUpdateRequest struct {
	Username       *string `json:"username,omitempty"`
	Website        *string `json:"website,omitempty"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	RestaurantName *string `json:"restaurant_name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Address        *string `json:"address,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

func (req profileUpdateRequest) toUpdate() profile.Update {
	return profile.Update{
		Username:       req.Username,
		Website:        req.Website,
		AvatarURL:      req.AvatarURL,
		RestaurantName: req.RestaurantName,
		Phone:          req.Phone,
		Address:        req.Address,
		IsActive:       req.IsActive,
	}
}

type createEmployerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Username       string `json:"username,omitempty"`
	RestaurantName string `json:"restaurant_name"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
}

// currentProfile resolves the caller's profile, nil when the caller is
// anonymous or has none.
func (a *API) currentProfile(r *http.Request) (*profile.Profile, error) {
	sess, ok := identity.SessionFromContext(r.Context())
	if !ok {
		return nil, nil
	}
	_, current, err := a.resolver.Resolve(r.Context(), sess.UserID)
	if err != nil {
		return nil, err
	}
	return current, nil
}

// requireRole gates a handler on the caller holding a role. It writes the
// response on failure and reports whether the handler may continue.
func (a *API) requireRole(w http.ResponseWriter, r *http.Request, role profile.Role) (*profile.Profile, bool) {
	current, err := a.currentProfile(r)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if current == nil || current.Role != role {
		writeError(w, r, http.StatusForbidden, "insufficient role")
		return nil, false
	}
	return current, true
}

func (a *API) handleOwnProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := identity.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}

	switch r.Method {
	case http.MethodGet:
		current, err := a.currentProfile(r)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		if current == nil {
			writeError(w, r, http.StatusNotFound, "no profile for this account")
			return
		}
		writeJSON(w, http.StatusOK, current)
	case http.MethodPut:
		var req profileUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := a.resolver.Store().Update(r.Context(), sess.UserID, req.toUpdate())
		if err != nil {
			handleProfileError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "profile.update", map[string]any{"profile_id": updated.ID})
		writeJSON(w, http.StatusOK, updated)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) handleEmployersCollection(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, profile.RoleAdmin); !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		employers, err := a.resolver.Store().ListByRole(r.Context(), profile.RoleEmployer)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": employers})
	case http.MethodPost:
		a.createEmployer(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// createEmployer provisions the account and the employer profile in one
// call; only admins reach this.
func (a *API) createEmployer(w http.ResponseWriter, r *http.Request) {
	var req createEmployerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.RestaurantName) == "" {
		writeError(w, r, http.StatusBadRequest, "restaurant_name is required")
		return
	}

	sess, err := a.auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrAlreadyRegistered):
			writeError(w, r, http.StatusConflict, "email already registered")
		case errors.Is(err, identity.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = req.RestaurantName
	}
	created, err := a.resolver.Upsert(r.Context(), sess.UserID, profile.Profile{
		Username:       username,
		Role:           profile.RoleEmployer,
		RestaurantName: req.RestaurantName,
		Phone:          req.Phone,
		Address:        req.Address,
		IsActive:       true,
	})
	if err != nil {
		handleProfileError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "employer.create", map[string]any{
		"employer_id":     created.ID,
		"restaurant_name": created.RestaurantName,
	})

	w.Header().Set("Location", "/v1/employers/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleEmployerResource(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, profile.RoleAdmin); !ok {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/employers/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := a.resolver.Store().Get(r.Context(), id)
		if err != nil {
			handleProfileError(w, r, err)
			return
		}
		if p.Role != profile.RoleEmployer {
			writeError(w, r, http.StatusNotFound, "employer not found")
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPatch:
		var req profileUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := a.resolver.Store().Update(r.Context(), id, req.toUpdate())
		if err != nil {
			handleProfileError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "employer.update", map[string]any{"employer_id": id})
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := a.resolver.Store().Delete(r.Context(), id); err != nil {
			handleProfileError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "employer.delete", map[string]any{"employer_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleEmployees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	current, ok := a.requireRole(w, r, profile.RoleEmployer)
	if !ok {
		return
	}
	employees, err := a.resolver.Store().ListEmployees(r.Context(), current.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": employees})
}

func handleProfileError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, profile.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, profile.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "profile not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
