package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"evidence-custody-go/internal/custody"
	"evidence-custody-go/internal/ledger"
	"evidence-custody-go/internal/models"
	"evidence-custody-go/internal/store"
)

type Handler struct {
	Cache   store.EvidenceCache
	Audit   store.AuditStore
	Roles   store.RoleStore
	Push    store.PushStore
	TOTP    store.TOTPStore
	Ledger  ledger.Ledger
	Content ledger.ContentStore

	Access   *custody.AccessController
	Verifier *custody.Verifier
	Issuer   *custody.CertificateIssuer
	Backups  *custody.BackupManager
	Reporter *custody.Reporter

	GatewayBase string
}

// NewHandler wires the custody components over the cache, the durable
// store and the external ledger interfaces. roleSecrets maps role names
// to bcrypt hashes of their secrets.
func NewHandler(cache store.EvidenceCache, db *store.PostgresStore, l ledger.Ledger, content ledger.ContentStore, roleSecrets map[string]string, gatewayBase string) *Handler {
	h := &Handler{
		Cache:       cache,
		Audit:       db,
		Roles:       db,
		Push:        db,
		TOTP:        db,
		Ledger:      l,
		Content:     content,
		GatewayBase: gatewayBase,
	}
	h.Access = &custody.AccessController{Roles: db, Audit: db, TOTP: db, Secrets: roleSecrets}
	h.Verifier = &custody.Verifier{Audit: db, Ledger: l}
	h.Issuer = &custody.CertificateIssuer{Audit: db}
	h.Backups = &custody.BackupManager{Cache: cache, Audit: db}
	h.Reporter = &custody.Reporter{Audit: db, Roles: db}
	return h
}

// mergedView builds the merged record view for an identity. When the
// ledger is unreachable the local cache still serves; offline reports
// that degradation.
func (h *Handler) mergedView(ctx context.Context, identity string) (view custody.View, offline bool, err error) {
	local, err := h.Cache.History(ctx, identity)
	if err != nil {
		return nil, false, err
	}

	remote, err := custody.FetchRemote(ctx, h.Ledger)
	if err != nil {
		log.Printf("ledger unreachable, serving local cache only: %v", err)
		return custody.Merge(nil, local), true, nil
	}
	return custody.Merge(remote, local), false, nil
}

func (h *Handler) publishEvent(ctx context.Context, eventType string, fields map[string]any) {
	event := map[string]any{
		"type": eventType,
		"time": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range fields {
		event[k] = v
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := h.Cache.Publish(ctx, data); err != nil {
		log.Println("Failed to publish event:", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// contentURL attaches the gateway fetch URL to an outgoing record.
func (h *Handler) contentURL(rec models.EvidenceRecord) string {
	return ledger.GatewayURL(h.GatewayBase, rec.ContentRef)
}

type recordResponse struct {
	models.EvidenceRecord
	ContentURL string `json:"contentUrl,omitempty"`
}

func (h *Handler) recordResponses(view custody.View) []recordResponse {
	out := make([]recordResponse, 0, len(view))
	for _, rec := range view {
		out = append(out, recordResponse{EvidenceRecord: rec, ContentURL: h.contentURL(rec)})
	}
	return out
}
