package custody

import (
	"context"
	"sort"
	"time"

	"evidence-custody-go/internal/ledger"
	"evidence-custody-go/internal/models"
)

// View is the merged, queryable set of evidence records: local pending
// records first, then remote records, each newest first.
type View []models.EvidenceRecord

// Merge builds the merged view from the authoritative remote set and the
// locally cached pending set. Nothing is de-duplicated here; a pending
// record and its confirmed remote counterpart can coexist until
// Reconcile is applied.
func Merge(remote, local []models.EvidenceRecord) View {
	view := make(View, 0, len(remote)+len(local))
	view = append(view, sortedNewestFirst(local)...)
	view = append(view, sortedNewestFirst(remote)...)
	return view
}

func sortedNewestFirst(records []models.EvidenceRecord) []models.EvidenceRecord {
	out := make([]models.EvidenceRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// ByHash returns the first record in view order whose content reference
// matches, so a pending record shadows a not-yet-visible remote one.
func (v View) ByHash(hash string) (models.EvidenceRecord, bool) {
	for _, rec := range v {
		if rec.ContentRef == hash {
			return rec, true
		}
	}
	return models.EvidenceRecord{}, false
}

// ByID returns the first record in view order with the given id.
func (v View) ByID(id string) (models.EvidenceRecord, bool) {
	for _, rec := range v {
		if rec.ID == id {
			return rec, true
		}
	}
	return models.EvidenceRecord{}, false
}

// reconcileKey is the stable identity used to match a pending record to
// its confirmed remote counterpart. Record ids cannot serve here; each
// origin assigns them independently.
type reconcileKey struct {
	contentRef string
	holder     string
	eventType  string
}

// Reconcile marks every pending local record that has a remote
// counterpart as CONFIRMED and attaches the remote record's id as its
// ledger reference. The local record is not removed from the cache.
func Reconcile(local, remote []models.EvidenceRecord) []models.EvidenceRecord {
	byKey := make(map[reconcileKey]models.EvidenceRecord, len(remote))
	for _, rec := range remote {
		key := reconcileKey{rec.ContentRef, rec.Holder, rec.EventType}
		if _, ok := byKey[key]; !ok {
			byKey[key] = rec
		}
	}

	out := make([]models.EvidenceRecord, len(local))
	copy(out, local)
	for i, rec := range out {
		if rec.SubmitState != models.SubmitPending {
			continue
		}
		if remote, ok := byKey[reconcileKey{rec.ContentRef, rec.Holder, rec.EventType}]; ok {
			out[i].SubmitState = models.SubmitConfirmed
			if out[i].LedgerRef == "" {
				out[i].LedgerRef = remote.ID
			}
		}
	}
	return out
}

// ExpirePending marks pending local records created before cutoff as
// FAILED. The cutoff policy belongs to the caller; nothing here retries
// or cancels the underlying submission.
func ExpirePending(local []models.EvidenceRecord, cutoff time.Time) []models.EvidenceRecord {
	out := make([]models.EvidenceRecord, len(local))
	copy(out, local)
	for i, rec := range out {
		if rec.SubmitState == models.SubmitPending && rec.Timestamp.Before(cutoff) {
			out[i].SubmitState = models.SubmitFailed
		}
	}
	return out
}

// FetchRemote reads the full remote record set from the ledger and maps
// it into evidence records, newest first. Ledger records are 1-indexed.
func FetchRemote(ctx context.Context, l ledger.Ledger) ([]models.EvidenceRecord, error) {
	count, err := l.Count(ctx)
	if err != nil {
		return nil, &ConnectivityError{Op: "ledger count", Err: err}
	}

	records := make([]models.EvidenceRecord, 0, count)
	for i := 1; i <= count; i++ {
		rec, err := l.RecordAt(ctx, i)
		if err != nil {
			return nil, &ConnectivityError{Op: "ledger record", Err: err}
		}
		records = append(records, remoteRecord(rec))
	}

	// Reverse so the newest ledger entry comes first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func remoteRecord(rec ledger.Record) models.EvidenceRecord {
	return models.EvidenceRecord{
		ID:          rec.ID,
		Name:        rec.Name,
		Meta:        models.ParseDescription(rec.Description),
		ContentRef:  rec.ContentRef,
		Holder:      rec.Holder,
		EventType:   models.EventUpload,
		Timestamp:   rec.Timestamp,
		Origin:      models.OriginRemote,
		SubmitState: models.SubmitConfirmed,
	}
}
