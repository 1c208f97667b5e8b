package custody

import (
	"strings"
	"time"

	"evidence-custody-go/internal/models"
)

// Query filters the merged view. All predicates compose by logical AND;
// zero values match everything.
type Query struct {
	Text   string
	CaseID string
	Role   string
	Start  time.Time // calendar date, inclusive from 00:00:00
	End    time.Time // calendar date, inclusive through 23:59:59.999
}

// Filter scans the view and keeps records matching every predicate. Role
// resolution prefers the record's own role and falls back to the role
// currently assigned to its holder.
func Filter(view View, q Query, roleOf func(identity string) string) View {
	text := strings.ToLower(q.Text)
	caseID := strings.ToLower(q.CaseID)

	var end time.Time
	if !q.End.IsZero() {
		end = q.End.Add(24*time.Hour - time.Millisecond)
	}

	out := make(View, 0, len(view))
	for _, rec := range view {
		if text != "" && !matchesText(rec, text) {
			continue
		}
		if caseID != "" && !strings.Contains(strings.ToLower(rec.Meta.CaseID), caseID) {
			continue
		}
		if q.Role != "" {
			role := rec.Role
			if role == "" && roleOf != nil {
				role = roleOf(rec.Holder)
			}
			if role != q.Role {
				continue
			}
		}
		if !q.Start.IsZero() || !q.End.IsZero() {
			// A record with no timestamp never matches a bounded range.
			if rec.Timestamp.IsZero() {
				continue
			}
			if !q.Start.IsZero() && rec.Timestamp.Before(q.Start) {
				continue
			}
			if !end.IsZero() && rec.Timestamp.After(end) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

func matchesText(rec models.EvidenceRecord, term string) bool {
	for _, field := range []string{
		rec.ContentRef,
		rec.Name,
		rec.Meta.CaseID,
		rec.Meta.Investigator,
		rec.Meta.Location,
		rec.Meta.Notes,
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
