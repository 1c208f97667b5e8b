package custody

import (
	"context"
	"errors"
	"testing"
	"time"

	"evidence-custody-go/internal/ledger"
	"evidence-custody-go/internal/models"
)

func TestMergeLocalFirstNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	remote := []models.EvidenceRecord{
		record("r1", "hash-a", "alice", models.EventUpload, base),
		record("r2", "hash-b", "alice", models.EventUpload, base.Add(2*time.Hour)),
	}
	local := []models.EvidenceRecord{
		record("l1", "hash-c", "bob", models.EventUpload, base.Add(time.Hour)),
		record("l2", "hash-d", "bob", models.EventUpload, base.Add(3*time.Hour)),
	}

	view := Merge(remote, local)
	if len(view) != 4 {
		t.Fatalf("merged view has %d records, want 4", len(view))
	}

	want := []string{"l2", "l1", "r2", "r1"}
	for i, id := range want {
		if view[i].ID != id {
			t.Errorf("view[%d].ID = %q, want %q", i, view[i].ID, id)
		}
	}
}

func TestMergeKeepsDuplicates(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	remote := []models.EvidenceRecord{record("r1", "hash-a", "alice", models.EventUpload, ts)}
	local := []models.EvidenceRecord{record("l1", "hash-a", "alice", models.EventUpload, ts)}

	view := Merge(remote, local)
	if len(view) != 2 {
		t.Fatalf("merged view has %d records, want 2 (no de-duplication)", len(view))
	}
}

func TestViewByHashLocalShadowsRemote(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	remote := []models.EvidenceRecord{record("r1", "hash-a", "alice", models.EventUpload, ts)}
	local := []models.EvidenceRecord{record("l1", "hash-a", "alice", models.EventUpload, ts)}

	view := Merge(remote, local)
	rec, ok := view.ByHash("hash-a")
	if !ok {
		t.Fatal("ByHash returned no record")
	}
	if rec.ID != "l1" {
		t.Errorf("ByHash returned %q, want local record l1", rec.ID)
	}

	if _, ok := view.ByHash("missing"); ok {
		t.Error("ByHash matched a hash not in the view")
	}
}

func TestReconcileConfirmsMatchedPending(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pending := record("l1", "hash-a", "alice", models.EventUpload, ts)
	pending.SubmitState = models.SubmitPending
	unmatched := record("l2", "hash-b", "alice", models.EventUpload, ts)
	unmatched.SubmitState = models.SubmitPending

	remote := []models.EvidenceRecord{record("42", "hash-a", "alice", models.EventUpload, ts.Add(time.Minute))}

	out := Reconcile([]models.EvidenceRecord{pending, unmatched}, remote)
	if out[0].SubmitState != models.SubmitConfirmed {
		t.Errorf("matched record state = %q, want CONFIRMED", out[0].SubmitState)
	}
	if out[0].LedgerRef != "42" {
		t.Errorf("matched record ledgerRef = %q, want remote id 42", out[0].LedgerRef)
	}
	if out[1].SubmitState != models.SubmitPending {
		t.Errorf("unmatched record state = %q, want PENDING", out[1].SubmitState)
	}
	if len(out) != 2 {
		t.Fatalf("reconcile returned %d records, want 2 (nothing removed)", len(out))
	}
}

func TestReconcileKeyIncludesHolderAndEventType(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pending := record("l1", "hash-a", "bob", models.EventTransfer, ts)
	pending.SubmitState = models.SubmitPending

	// Same content, different holder and event type. Must not match.
	remote := []models.EvidenceRecord{record("42", "hash-a", "alice", models.EventUpload, ts)}

	out := Reconcile([]models.EvidenceRecord{pending}, remote)
	if out[0].SubmitState != models.SubmitPending {
		t.Errorf("record state = %q, want PENDING (key mismatch)", out[0].SubmitState)
	}
}

func TestExpirePending(t *testing.T) {
	cutoff := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	old := record("l1", "hash-a", "alice", models.EventUpload, cutoff.Add(-time.Hour))
	old.SubmitState = models.SubmitPending
	fresh := record("l2", "hash-b", "alice", models.EventUpload, cutoff.Add(time.Hour))
	fresh.SubmitState = models.SubmitPending
	confirmed := record("l3", "hash-c", "alice", models.EventUpload, cutoff.Add(-time.Hour))
	confirmed.SubmitState = models.SubmitConfirmed

	out := ExpirePending([]models.EvidenceRecord{old, fresh, confirmed}, cutoff)
	if out[0].SubmitState != models.SubmitFailed {
		t.Errorf("stale pending record state = %q, want FAILED", out[0].SubmitState)
	}
	if out[1].SubmitState != models.SubmitPending {
		t.Errorf("fresh pending record state = %q, want PENDING", out[1].SubmitState)
	}
	if out[2].SubmitState != models.SubmitConfirmed {
		t.Errorf("confirmed record state = %q, want CONFIRMED", out[2].SubmitState)
	}
}

func TestFetchRemoteNewestFirst(t *testing.T) {
	l := ledger.NewMemoryLedger()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	meta := models.EvidenceMeta{SHA256: "abc", CaseID: "CASE-001"}
	l.Seed(ledger.Record{Name: "first", Description: models.BuildDescription(meta), ContentRef: "hash-1", Holder: "alice", Timestamp: base})
	l.Seed(ledger.Record{Name: "second", ContentRef: "hash-2", Holder: "bob", Timestamp: base.Add(time.Hour)})

	records, err := FetchRemote(context.Background(), l)
	if err != nil {
		t.Fatalf("FetchRemote: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("fetched %d records, want 2", len(records))
	}
	if records[0].Name != "second" || records[1].Name != "first" {
		t.Errorf("records not newest first: %q, %q", records[0].Name, records[1].Name)
	}
	if records[1].Meta.CaseID != "CASE-001" {
		t.Errorf("description not parsed into meta: %+v", records[1].Meta)
	}
	if records[0].Origin != models.OriginRemote || records[0].SubmitState != models.SubmitConfirmed {
		t.Errorf("remote record origin/state = %q/%q", records[0].Origin, records[0].SubmitState)
	}
}

func TestReconcileConfirmsMemoryLedgerSubmission(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemoryLedger()

	meta := models.EvidenceMeta{SHA256: helloDigest, CaseID: "CASE-001"}
	pending := record("l1", "hash-a", "alice", models.EventUpload, time.Now().UTC())
	pending.Meta = meta
	pending.Origin = models.OriginLocalPending
	pending.SubmitState = models.SubmitPending

	// Submission the way the upload path performs it: the submitter
	// identity rides the context and becomes the remote holder.
	if _, err := l.Submit(ledger.WithSubmitter(ctx, "alice"), pending.Name, models.BuildDescription(meta), "hash-a"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	remote, err := FetchRemote(ctx, l)
	if err != nil {
		t.Fatalf("FetchRemote: %v", err)
	}
	if remote[0].Holder != "alice" {
		t.Fatalf("remote holder = %q, want the submitting identity", remote[0].Holder)
	}

	out := Reconcile([]models.EvidenceRecord{pending}, remote)
	if out[0].SubmitState != models.SubmitConfirmed {
		t.Errorf("record state = %q, want CONFIRMED after the ledger holds its counterpart", out[0].SubmitState)
	}
	if out[0].LedgerRef != remote[0].ID {
		t.Errorf("ledgerRef = %q, want %q", out[0].LedgerRef, remote[0].ID)
	}
}

func TestFetchRemoteWrapsLedgerFailure(t *testing.T) {
	_, err := FetchRemote(context.Background(), failingLedger{})
	if err == nil {
		t.Fatal("expected error from failing ledger")
	}
	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("error type = %T, want *ConnectivityError", err)
	}
}

type failingLedger struct{}

func (failingLedger) Count(ctx context.Context) (int, error) {
	return 0, errors.New("ledger unreachable")
}

func (failingLedger) RecordAt(ctx context.Context, index int) (ledger.Record, error) {
	return ledger.Record{}, errors.New("ledger unreachable")
}

func (failingLedger) Submit(ctx context.Context, name, description, contentRef string) (string, error) {
	return "", errors.New("ledger unreachable")
}
