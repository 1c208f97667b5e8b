package custody

import (
	"testing"
	"time"

	"evidence-custody-go/internal/models"
)

func queryView() View {
	base := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	r1 := record("r1", "hash-photo", "alice", models.EventUpload, base)
	r1.Name = "crime-scene-photo.jpg"
	r1.Meta = models.EvidenceMeta{CaseID: "CASE-001", Investigator: "Det. Rivera", Location: "Warehouse 12", Notes: "north entrance"}
	r1.Role = models.RoleInvestigator

	r2 := record("r2", "hash-log", "bob", models.EventUpload, base.Add(48*time.Hour))
	r2.Name = "server-access.log"
	r2.Meta = models.EvidenceMeta{CaseID: "CASE-0010", Investigator: "Det. Chen"}

	r3 := record("r3", "hash-doc", "carol", models.EventTransfer, base.Add(96*time.Hour))
	r3.Name = "statement.pdf"
	r3.Meta = models.EvidenceMeta{CaseID: "OTHER-7"}

	return View{r1, r2, r3}
}

func TestFilterTextAcrossFields(t *testing.T) {
	view := queryView()

	cases := []struct {
		term string
		want []string
	}{
		{"PHOTO", []string{"r1"}},         // name, case-insensitive
		{"rivera", []string{"r1"}},        // investigator
		{"warehouse", []string{"r1"}},     // location
		{"north", []string{"r1"}},         // notes
		{"hash-log", []string{"r2"}},      // content reference
		{"case-00", []string{"r1", "r2"}}, // case id substring
		{"nothing-here", nil},
	}
	for _, tc := range cases {
		got := Filter(view, Query{Text: tc.term}, nil)
		if len(got) != len(tc.want) {
			t.Errorf("Filter(text=%q) returned %d records, want %d", tc.term, len(got), len(tc.want))
			continue
		}
		for i, id := range tc.want {
			if got[i].ID != id {
				t.Errorf("Filter(text=%q)[%d] = %q, want %q", tc.term, i, got[i].ID, id)
			}
		}
	}
}

func TestFilterCaseIDSubstring(t *testing.T) {
	view := queryView()

	// "case-001" is a substring of both CASE-001 and CASE-0010.
	got := Filter(view, Query{CaseID: "case-001"}, nil)
	if len(got) != 2 {
		t.Fatalf("matched %d records, want 2", len(got))
	}

	got = Filter(view, Query{CaseID: "CASE-0010"}, nil)
	if len(got) != 1 || got[0].ID != "r2" {
		t.Fatalf("exact longer id matched %d records", len(got))
	}
}

func TestFilterRoleWithFallback(t *testing.T) {
	view := queryView()
	roleOf := func(identity string) string {
		if identity == "bob" {
			return models.RoleInvestigator
		}
		return ""
	}

	// r1 carries its own role; r2 resolves through its holder.
	got := Filter(view, Query{Role: models.RoleInvestigator}, roleOf)
	if len(got) != 2 {
		t.Fatalf("matched %d records, want 2", len(got))
	}
	if got[0].ID != "r1" || got[1].ID != "r2" {
		t.Errorf("matched %q, %q", got[0].ID, got[1].ID)
	}

	if got := Filter(view, Query{Role: models.RoleAdmin}, roleOf); len(got) != 0 {
		t.Errorf("admin filter matched %d records, want 0", len(got))
	}
}

func TestFilterDateRangeInclusiveEnd(t *testing.T) {
	end := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	lastMoment := record("r1", "hash-a", "alice", models.EventUpload,
		time.Date(2026, 3, 10, 23, 59, 59, 999000000, time.UTC))
	justAfter := record("r2", "hash-b", "alice", models.EventUpload,
		time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))
	view := View{lastMoment, justAfter}

	got := Filter(view, Query{End: end}, nil)
	if len(got) != 1 || got[0].ID != "r1" {
		t.Fatalf("end-date filter matched %v, want only the last moment of the day", ids(got))
	}

	got = Filter(view, Query{Start: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)}, nil)
	if len(got) != 1 || got[0].ID != "r2" {
		t.Fatalf("start-date filter matched %v", ids(got))
	}
}

func TestFilterNoTimestampExcludedFromBoundedRange(t *testing.T) {
	undated := models.EvidenceRecord{ID: "r1", ContentRef: "hash-a"}
	view := View{undated}

	if got := Filter(view, Query{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, nil); len(got) != 0 {
		t.Errorf("undated record matched a bounded range")
	}
	if got := Filter(view, Query{}, nil); len(got) != 1 {
		t.Errorf("undated record must match an unbounded query")
	}
}

func TestFilterPredicatesCompose(t *testing.T) {
	view := queryView()

	got := Filter(view, Query{Text: "case-00", CaseID: "case-001", Role: models.RoleInvestigator}, nil)
	if len(got) != 1 || got[0].ID != "r1" {
		t.Fatalf("composed filter matched %v, want only r1", ids(got))
	}
}

func ids(view View) []string {
	out := make([]string, len(view))
	for i, rec := range view {
		out[i] = rec.ID
	}
	return out
}
