package custody

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"evidence-custody-go/internal/models"
	"evidence-custody-go/internal/store"
)

// Backup is the export document for an identity's local history.
type Backup struct {
	Version       int                     `json:"version"`
	ExportedAt    string                  `json:"exportedAt"` // ISO-8601
	WalletAddress *string                 `json:"walletAddress"`
	LocalHistory  []models.EvidenceRecord `json:"localHistory"`
}

// BackupManager exports and restores the local evidence cache. Restore
// replaces the identity's entire cache; it is not a merge.
type BackupManager struct {
	Cache store.EvidenceCache
	Audit store.AuditStore
}

// Export serializes the identity's current local history.
func (m *BackupManager) Export(ctx context.Context, identity, role string) ([]byte, error) {
	history, err := m.Cache.History(ctx, identity)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.EvidenceRecord{}
	}

	var addr *string
	if identity != "" {
		addr = &identity
	}
	payload, err := json.MarshalIndent(Backup{
		Version:       1,
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
		WalletAddress: addr,
		LocalHistory:  history,
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	err = m.Audit.Append(ctx, models.AuditEntry{
		ID:         models.NewID(),
		Timestamp:  time.Now().UTC(),
		Actor:      identity,
		Action:     "Local history backup downloaded",
		ActionType: models.ActionLocalBackup,
		Role:       role,
		Metadata:   map[string]string{"records": fmt.Sprintf("%d", len(history))},
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// ParseBackup accepts the versioned document or, as a legacy form, a
// bare JSON array of records.
func ParseBackup(data []byte) ([]models.EvidenceRecord, *string, error) {
	var doc Backup
	if err := json.Unmarshal(data, &doc); err == nil && doc.LocalHistory != nil {
		return doc.LocalHistory, doc.WalletAddress, nil
	}

	var legacy []models.EvidenceRecord
	if err := json.Unmarshal(data, &legacy); err == nil {
		return legacy, nil, nil
	}

	return nil, nil, &FormatError{Reason: "invalid backup file format"}
}

// Restore replaces the identity's local cache with the backup contents.
func (m *BackupManager) Restore(ctx context.Context, identity, role string, data []byte) (int, error) {
	records, sourceAddr, err := ParseBackup(data)
	if err != nil {
		return 0, err
	}

	if err := m.Cache.SaveHistory(ctx, identity, records); err != nil {
		return 0, err
	}

	meta := map[string]string{"records": fmt.Sprintf("%d", len(records))}
	if sourceAddr != nil {
		meta["sourceWallet"] = *sourceAddr
	}
	err = m.Audit.Append(ctx, models.AuditEntry{
		ID:         models.NewID(),
		Timestamp:  time.Now().UTC(),
		Actor:      identity,
		Action:     "Local history restored from backup",
		ActionType: models.ActionLocalRestore,
		Role:       role,
		Metadata:   meta,
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
