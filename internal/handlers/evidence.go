package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"evidence-custody-go/internal/custody"
	"evidence-custody-go/internal/ledger"
	"evidence-custody-go/internal/metrics"
	"evidence-custody-go/internal/models"
)

const maxUploadBytes = 64 << 20 // 64 MiB

// ListEvidenceHandler returns the merged, filtered record view.
func (h *Handler) ListEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	identity, _ := CurrentIdentity(r)
	view, offline, err := h.mergedView(r.Context(), identity)
	if err != nil {
		log.Println("Failed to load evidence view:", err)
		http.Error(w, "Failed to load evidence", http.StatusInternalServerError)
		return
	}

	q := custody.Query{
		Text:   r.URL.Query().Get("q"),
		CaseID: r.URL.Query().Get("caseId"),
		Role:   r.URL.Query().Get("role"),
	}
	if s := r.URL.Query().Get("start"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			q.Start = t
		}
	}
	if e := r.URL.Query().Get("end"); e != "" {
		if t, err := time.Parse("2006-01-02", e); err == nil {
			q.End = t
		}
	}

	filtered := custody.Filter(view, q, func(holder string) string {
		return h.Access.ResolveRole(r.Context(), holder)
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"records": h.recordResponses(filtered),
		"count":   len(filtered),
		"offline": offline,
	})
}

// UploadHandler records a new evidence upload: digest, content store,
// local pending record, audit entry, then ledger submission.
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identity, role := CurrentIdentity(r)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	meta := models.EvidenceMeta{
		SHA256:       custody.Digest(data),
		CaseID:       r.FormValue("caseId"),
		Investigator: r.FormValue("investigator"),
		Location:     r.FormValue("location"),
		Notes:        r.FormValue("notes"),
	}
	displayName := r.FormValue("name")
	if displayName == "" {
		displayName = header.Filename
	}

	contentRef, err := h.Content.Put(r.Context(), data)
	if err != nil {
		writeError(w, http.StatusBadGateway, &custody.ConnectivityError{Op: "content upload", Err: err})
		return
	}

	rec := models.EvidenceRecord{
		ID:          models.NewID(),
		Name:        displayName,
		Meta:        meta,
		ContentRef:  contentRef,
		Holder:      identity,
		EventType:   models.EventUpload,
		Timestamp:   time.Now().UTC(),
		Origin:      models.OriginLocalPending,
		SubmitState: models.SubmitPending,
		Role:        role,
	}
	if err := h.Cache.Prepend(r.Context(), identity, rec); err != nil {
		log.Println("Failed to cache record:", err)
		http.Error(w, "Failed to record upload", http.StatusInternalServerError)
		return
	}

	err = h.Audit.Append(r.Context(), models.AuditEntry{
		ID:           models.NewID(),
		Timestamp:    rec.Timestamp,
		Actor:        identity,
		Action:       fmt.Sprintf("Uploaded evidence: %s", displayName),
		ActionType:   models.ActionUpload,
		Role:         role,
		EvidenceHash: contentRef,
		EvidenceID:   rec.ID,
		Metadata: map[string]string{
			"sha256":       meta.SHA256,
			"caseId":       meta.CaseID,
			"investigator": meta.Investigator,
			"location":     meta.Location,
		},
	})
	if err != nil {
		log.Println("Audit append failed:", err)
		http.Error(w, "Failed to record upload", http.StatusInternalServerError)
		return
	}
	metrics.Uploads.Inc()
	h.publishEvent(r.Context(), "upload", map[string]any{"hash": contentRef, "holder": identity})

	// Submission suspends until the ledger acknowledges; the record
	// stays PENDING until reconciliation sees the remote counterpart.
	ledgerRef, err := h.Ledger.Submit(ledger.WithSubmitter(r.Context(), identity), displayName, models.BuildDescription(meta), contentRef)
	if err != nil {
		writeError(w, http.StatusBadGateway, &custody.TransactionError{Op: "upload", Err: err})
		return
	}
	if err := h.attachLedgerRef(r, identity, rec.ID, ledgerRef); err != nil {
		log.Println("Failed to attach ledger ref:", err)
	}
	rec.LedgerRef = ledgerRef

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"record":     recordResponse{EvidenceRecord: rec, ContentURL: h.contentURL(rec)},
		"ledgerRef":  ledgerRef,
		"sha256":     meta.SHA256,
		"contentRef": contentRef,
	})
}

func (h *Handler) attachLedgerRef(r *http.Request, identity, recordID, ledgerRef string) error {
	history, err := h.Cache.History(r.Context(), identity)
	if err != nil {
		return err
	}
	for i := range history {
		if history[i].ID == recordID {
			history[i].LedgerRef = ledgerRef
			break
		}
	}
	return h.Cache.SaveHistory(r.Context(), identity, history)
}

// TransferHandler records a custody transfer as a local pending record.
func (h *Handler) TransferHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identity, role := CurrentIdentity(r)

	var req struct {
		Hash string `json:"hash"`
		To   string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Hash == "" || req.To == "" {
		http.Error(w, "Evidence hash and recipient are required", http.StatusBadRequest)
		return
	}

	rec := models.EvidenceRecord{
		ID:           models.NewID(),
		Name:         "Transfer: " + shortHash(req.Hash),
		ContentRef:   req.Hash,
		Holder:       req.To,
		EventType:    models.EventTransfer,
		Timestamp:    time.Now().UTC(),
		Origin:       models.OriginLocalPending,
		SubmitState:  models.SubmitPending,
		Role:         role,
		TransferFrom: identity,
	}
	if err := h.Cache.Prepend(r.Context(), identity, rec); err != nil {
		log.Println("Failed to cache transfer:", err)
		http.Error(w, "Failed to record transfer", http.StatusInternalServerError)
		return
	}

	err := h.Audit.Append(r.Context(), models.AuditEntry{
		ID:           models.NewID(),
		Timestamp:    rec.Timestamp,
		Actor:        identity,
		Action:       fmt.Sprintf("Transferred evidence to %s", shortHash(req.To)),
		ActionType:   models.ActionTransfer,
		Role:         role,
		EvidenceHash: req.Hash,
		EvidenceID:   rec.ID,
	})
	if err != nil {
		log.Println("Audit append failed:", err)
		http.Error(w, "Failed to record transfer", http.StatusInternalServerError)
		return
	}
	metrics.Transfers.Inc()
	h.publishEvent(r.Context(), "transfer", map[string]any{"hash": req.Hash, "from": identity, "to": req.To})
	h.SendPushNotification(fmt.Sprintf("Evidence %s transferred to %s", shortHash(req.Hash), shortHash(req.To)))

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "record": rec})
}

func shortHash(s string) string {
	if len(s) <= 10 {
		return s
	}
	return s[:10] + "..."
}

// ReconcileHandler matches pending local records against their confirmed
// remote counterparts and, when maxAgeHours is given, fails pending
// records older than that.
func (h *Handler) ReconcileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identity, _ := CurrentIdentity(r)

	local, err := h.Cache.History(r.Context(), identity)
	if err != nil {
		http.Error(w, "Failed to load local history", http.StatusInternalServerError)
		return
	}
	remote, err := custody.FetchRemote(r.Context(), h.Ledger)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	reconciled := custody.Reconcile(local, remote)
	if v := r.URL.Query().Get("maxAgeHours"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
			reconciled = custody.ExpirePending(reconciled, cutoff)
		}
	}

	if err := h.Cache.SaveHistory(r.Context(), identity, reconciled); err != nil {
		http.Error(w, "Failed to save reconciled history", http.StatusInternalServerError)
		return
	}

	confirmed, failed := 0, 0
	for _, rec := range reconciled {
		switch rec.SubmitState {
		case models.SubmitConfirmed:
			confirmed++
		case models.SubmitFailed:
			failed++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"records":   len(reconciled),
		"confirmed": confirmed,
		"failed":    failed,
	})
}

// TimelineHandler rebuilds the chronological event sequence for a hash.
func (h *Handler) TimelineHandler(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	if hash == "" {
		http.Error(w, "Missing hash", http.StatusBadRequest)
		return
	}
	identity, _ := CurrentIdentity(r)

	view, _, err := h.mergedView(r.Context(), identity)
	if err != nil {
		http.Error(w, "Failed to load evidence", http.StatusInternalServerError)
		return
	}
	audit, err := h.Audit.ByHash(r.Context(), hash)
	if err != nil {
		http.Error(w, "Failed to load audit entries", http.StatusInternalServerError)
		return
	}

	timeline := custody.BuildTimeline(hash, view, audit, func(holder string) string {
		return h.Access.ResolveRole(r.Context(), holder)
	})
	writeJSON(w, http.StatusOK, map[string]any{"hash": hash, "events": timeline})
}
