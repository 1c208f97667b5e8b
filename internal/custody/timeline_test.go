package custody

import (
	"testing"
	"time"

	"evidence-custody-go/internal/models"
)

func TestBuildTimelineSortedAscending(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	upload := record("r1", "hash-a", "alice", models.EventUpload, base)
	transfer := record("r2", "hash-a", "bob", models.EventTransfer, base.Add(2*time.Hour))
	unrelated := record("r3", "hash-b", "alice", models.EventUpload, base.Add(time.Hour))
	view := View{transfer, unrelated, upload}

	audit := []models.AuditEntry{
		{
			ID:           "a1",
			Timestamp:    base.Add(time.Hour),
			Actor:        "carol",
			Action:       "Verification passed for evidence",
			ActionType:   models.ActionVerification,
			Role:         models.RoleAuditor,
			EvidenceHash: "hash-a",
		},
		{
			ID:           "a2",
			Timestamp:    base.Add(3 * time.Hour),
			Actor:        "carol",
			Action:       "Verification failed for evidence",
			ActionType:   models.ActionVerification,
			Role:         models.RoleAuditor,
			EvidenceHash: "hash-b",
		},
	}

	events := BuildTimeline("hash-a", view, audit, nil)
	if len(events) != 3 {
		t.Fatalf("timeline has %d events, want 3", len(events))
	}

	want := []string{"r1", "a1", "r2"}
	for i, id := range want {
		if events[i].ID != id {
			t.Errorf("events[%d].ID = %q, want %q", i, events[i].ID, id)
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Errorf("events[%d] out of order", i)
		}
	}

	if events[0].EventType != models.EventUpload || events[2].EventType != models.EventTransfer {
		t.Errorf("record event types = %q, %q", events[0].EventType, events[2].EventType)
	}
	if events[1].EventType != models.ActionVerification {
		t.Errorf("audit event type = %q", events[1].EventType)
	}
}

func TestBuildTimelineRoleFallback(t *testing.T) {
	rec := record("r1", "hash-a", "alice", models.EventUpload, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	roleOf := func(identity string) string {
		if identity == "alice" {
			return models.RoleInvestigator
		}
		return ""
	}

	events := BuildTimeline("hash-a", View{rec}, nil, roleOf)
	if len(events) != 1 {
		t.Fatalf("timeline has %d events, want 1", len(events))
	}
	if events[0].Role != models.RoleInvestigator {
		t.Errorf("role = %q, want fallback to the holder's role", events[0].Role)
	}
	if events[0].Actor != "alice" {
		t.Errorf("actor = %q", events[0].Actor)
	}
}

func TestBuildTimelineDetailsPreferMeta(t *testing.T) {
	rec := record("r1", "hash-a", "alice", models.EventUpload, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	rec.Meta = models.EvidenceMeta{SHA256: "abc", CaseID: "CASE-001"}

	events := BuildTimeline("hash-a", View{rec}, nil, nil)
	if events[0].Details != models.BuildDescription(rec.Meta) {
		t.Errorf("details = %q, want the encoded metadata", events[0].Details)
	}
}
