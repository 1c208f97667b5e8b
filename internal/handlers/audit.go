package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"evidence-custody-go/internal/custody"
	"evidence-custody-go/internal/models"
)

// GetAuditHandler lists the audit trail, newest first.
func (h *Handler) GetAuditHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Audit.All(r.Context())
	if err != nil {
		http.Error(w, "Failed to load audit logs", http.StatusInternalServerError)
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{"logs": entries, "count": len(entries)})
}

// CertificateHandler issues a proof-of-existence certificate for a
// resolved record, located by hash or id.
func (h *Handler) CertificateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identity, role := CurrentIdentity(r)

	var req struct {
		Hash string `json:"hash"`
		ID   string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	view, _, err := h.mergedView(r.Context(), identity)
	if err != nil {
		http.Error(w, "Failed to load evidence", http.StatusInternalServerError)
		return
	}

	var rec models.EvidenceRecord
	var ok bool
	if req.Hash != "" {
		rec, ok = view.ByHash(req.Hash)
	}
	if !ok && req.ID != "" {
		rec, ok = view.ByID(req.ID)
	}
	if !ok {
		key := req.Hash
		if key == "" {
			key = req.ID
		}
		writeError(w, http.StatusNotFound, &custody.NotFoundError{Key: key})
		return
	}

	cert, err := h.Issuer.Issue(r.Context(), identity, role, rec)
	if err != nil {
		http.Error(w, "Failed to issue certificate", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"certificate": cert,
		"text":        cert.Render(),
	})
}

// ReportHandler generates the compliance report.
func (h *Handler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	identity, role := CurrentIdentity(r)

	view, _, err := h.mergedView(r.Context(), identity)
	if err != nil {
		http.Error(w, "Failed to load evidence", http.StatusInternalServerError)
		return
	}

	report, err := h.Reporter.Generate(r.Context(), identity, role, view)
	if err != nil {
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"report": report,
		"text":   report.Render(),
	})
}
