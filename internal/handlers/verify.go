package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"evidence-custody-go/internal/custody"
	"evidence-custody-go/internal/metrics"
)

func (h *Handler) readVerifyUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return nil, false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return nil, false
	}
	return data, true
}

// VerifyHandler checks a file against the record located by hash in the
// merged view.
func (h *Handler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readVerifyUpload(w, r)
	if !ok {
		return
	}
	hash := r.FormValue("hash")
	if hash == "" {
		http.Error(w, "Missing hash", http.StatusBadRequest)
		return
	}
	identity, role := CurrentIdentity(r)

	view, _, err := h.mergedView(r.Context(), identity)
	if err != nil {
		http.Error(w, "Failed to load evidence", http.StatusInternalServerError)
		return
	}

	res, err := h.Verifier.VerifyLocal(r.Context(), identity, role, data, hash, view)
	if err != nil {
		log.Println("Verification audit failed:", err)
		http.Error(w, "Failed to record verification", http.StatusInternalServerError)
		return
	}
	h.finishVerification(r, res)
	writeJSON(w, http.StatusOK, res)
}

// VerifyRemoteHandler checks a file against a single record fetched by
// id from the authoritative ledger, bypassing the merged cache.
func (h *Handler) VerifyRemoteHandler(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readVerifyUpload(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.FormValue("id"))
	if err != nil {
		http.Error(w, "Invalid ledger id", http.StatusBadRequest)
		return
	}
	identity, role := CurrentIdentity(r)

	res, err := h.Verifier.VerifyRemote(r.Context(), identity, role, data, index)
	if err != nil {
		var connErr *custody.ConnectivityError
		if errors.As(err, &connErr) {
			metrics.Verifications.WithLabelValues(res.Outcome).Inc()
			writeError(w, http.StatusBadGateway, err)
			return
		}
		log.Println("Verification audit failed:", err)
		http.Error(w, "Failed to record verification", http.StatusInternalServerError)
		return
	}
	h.finishVerification(r, res)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) finishVerification(r *http.Request, res custody.VerifyResult) {
	metrics.Verifications.WithLabelValues(res.Outcome).Inc()
	h.publishEvent(r.Context(), "verification", map[string]any{"outcome": res.Outcome})
	if res.Outcome == custody.VerifyMismatch {
		h.SendPushNotification(fmt.Sprintf("Integrity alert: digest mismatch detected (%s)", res.Detail))
	}
}
