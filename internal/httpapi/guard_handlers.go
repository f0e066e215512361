package httpapi

import (
	"net/http"
	"strings"

	"platewise.app/internal/guard"
	"platewise.app/internal/profile"
)

// handleGuard exposes the navigation guard contract: given a target area,
// report whether the caller may enter and where to send it otherwise.
func (a *API) handleGuard(w http.ResponseWriter, r *http.Request) {
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

	area := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("area")))
	var decision guard.Decision
	switch area {
	case "home":
		decision = guard.Home(r.Context(), st)
	case "admin":
		decision = guard.Require(r.Context(), st, profile.RoleAdmin)
	case "employer":
		decision = guard.Require(r.Context(), st, profile.RoleEmployer)
	case "profile":
		decision = guard.Require(r.Context(), st, profile.RoleEmployee)
	default:
		writeError(w, r, http.StatusBadRequest, "area must be one of home, admin, employer, profile")
		return
	}
	writeJSON(w, http.StatusOK, decision)
}
