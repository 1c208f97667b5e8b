package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"evidence-custody-go/internal/custody"
)

// CreateUserHandler lets an admin register another identity with a role
// directly, without that identity presenting the role secret.
func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	actor, actorRole := CurrentIdentity(r)

	var req struct {
		Identity string `json:"identity"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.Access.CreateUser(r.Context(), actor, actorRole, req.Identity, req.Role); err != nil {
		var authErr *custody.AuthorizationError
		var formatErr *custody.FormatError
		switch {
		case errors.As(err, &authErr):
			writeError(w, http.StatusForbidden, err)
		case errors.As(err, &formatErr):
			writeError(w, http.StatusBadRequest, err)
		default:
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GetUsersHandler lists all role assignments.
func (h *Handler) GetUsersHandler(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Roles.Assignments(r.Context())
	if err != nil {
		http.Error(w, "Failed to load users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": assignments, "count": len(assignments)})
}
