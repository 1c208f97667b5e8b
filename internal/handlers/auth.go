package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"evidence-custody-go/internal/custody"
	"evidence-custody-go/internal/metrics"

	"github.com/gorilla/sessions"
)

var (
	sessionStore = sessions.NewCookieStore([]byte(sessionSecret()))
	sessionName  = "custody-session"
)

func sessionSecret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "secret-key-change-in-production"
}

// LoginHandler binds an identity to a role. Selecting a role requires
// that role's secret (and a TOTP code for enrolled admins); omitting the
// role resumes an existing assignment.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Identity string `json:"identity"`
		Role     string `json:"role"`
		Secret   string `json:"secret"`
		TOTPCode string `json:"totpCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	role := req.Role
	if role == "" {
		// Resume an existing assignment without re-authenticating.
		role = h.Access.ResolveRole(r.Context(), req.Identity)
		if role == "" {
			writeError(w, http.StatusUnauthorized, &custody.AuthorizationError{Reason: "no role selected"})
			return
		}
	} else {
		if _, err := h.Access.AssignRole(r.Context(), req.Identity, role, req.Secret, req.TOTPCode); err != nil {
			var authErr *custody.AuthorizationError
			if errors.As(err, &authErr) {
				writeError(w, http.StatusUnauthorized, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		metrics.RoleChanges.Inc()
	}

	session, _ := sessionStore.Get(r, sessionName)
	session.Values["identity"] = req.Identity
	session.Values["role"] = role
	session.Save(r, w)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"identity": req.Identity,
		"role":     role,
	})
}

// LogoutHandler clears the session.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionStore.Get(r, sessionName)
	session.Values["identity"] = nil
	session.Options.MaxAge = -1
	session.Save(r, w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// CurrentIdentity returns the session's identity and role.
func CurrentIdentity(r *http.Request) (string, string) {
	session, _ := sessionStore.Get(r, sessionName)
	identity, _ := session.Values["identity"].(string)
	role, _ := session.Values["role"].(string)
	return identity, role
}

// Authed requires a logged-in identity.
func Authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := CurrentIdentity(r)
		if identity == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// Require gates a handler on the capability table. The role is resolved
// from the role store so a reassignment takes effect immediately.
func (h *Handler) Require(cap custody.Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, sessionRole := CurrentIdentity(r)
		if identity == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		role := h.Access.ResolveRole(r.Context(), identity)
		if role == "" {
			role = sessionRole
		}
		if !custody.Can(role, cap) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
