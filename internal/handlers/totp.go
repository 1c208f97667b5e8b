package handlers

import (
	"encoding/json"
	"net/http"

	"evidence-custody-go/internal/models"
)

const totpIssuer = "Evidence Custody"

// EnrollTOTPHandler starts step-up enrollment for the session identity.
// The secret is stored disabled until the identity confirms a code.
func (h *Handler) EnrollTOTPHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identity, _ := CurrentIdentity(r)

	key, err := models.GenerateTOTPSecret(identity, totpIssuer)
	if err != nil {
		http.Error(w, "Failed to generate secret", http.StatusInternalServerError)
		return
	}
	if err := h.TOTP.SaveTOTP(r.Context(), identity, key.Secret(), false); err != nil {
		http.Error(w, "Failed to save enrollment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"secret": key.Secret(),
		"url":    key.URL(),
	})
}

// ConfirmTOTPHandler enables step-up auth once the identity proves it
// can produce a valid code.
func (h *Handler) ConfirmTOTPHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identity, _ := CurrentIdentity(r)

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	secret, _, err := h.TOTP.TOTP(r.Context(), identity)
	if err != nil || secret == "" {
		http.Error(w, "No enrollment in progress", http.StatusBadRequest)
		return
	}
	if !models.VerifyTOTPCode(secret, req.Code) {
		http.Error(w, "Invalid code", http.StatusUnauthorized)
		return
	}
	if err := h.TOTP.SaveTOTP(r.Context(), identity, secret, true); err != nil {
		http.Error(w, "Failed to enable enrollment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
