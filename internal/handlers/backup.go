package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"evidence-custody-go/internal/custody"
)

// BackupHandler exports the current identity's local history as a
// downloadable JSON document.
func (h *Handler) BackupHandler(w http.ResponseWriter, r *http.Request) {
	identity, role := CurrentIdentity(r)

	payload, err := h.Backups.Export(r.Context(), identity, role)
	if err != nil {
		http.Error(w, "Failed to create backup", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("evidence_history_%d.json", time.Now().UnixMilli())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(payload)
}

// RestoreHandler replaces the identity's local cache with the uploaded
// backup document. This is a wholesale replacement, not a merge.
func (h *Handler) RestoreHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identity, role := CurrentIdentity(r)

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		http.Error(w, "Failed to read backup", http.StatusBadRequest)
		return
	}

	count, err := h.Backups.Restore(r.Context(), identity, role, data)
	if err != nil {
		var formatErr *custody.FormatError
		if errors.As(err, &formatErr) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		http.Error(w, "Failed to restore backup", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "records": count})
}
