package custody

import (
	"sort"
	"time"

	"evidence-custody-go/internal/models"
)

// TimelineEvent is one step in an evidence item's chronology, derived
// either from the merged record view or from the audit trail.
type TimelineEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"eventType"`
	Actor     string    `json:"actor"`
	Role      string    `json:"role,omitempty"`
	Details   string    `json:"details"`
}

// BuildTimeline projects every record and audit entry touching the given
// hash into a single sequence sorted ascending by timestamp. It is
// recomputed on every call; there is no cache to invalidate. Events with
// equal timestamps keep concatenation order (records before audit
// entries), which is arbitrary rather than meaningful.
func BuildTimeline(hash string, view View, audit []models.AuditEntry, roleOf func(identity string) string) []TimelineEvent {
	var events []TimelineEvent

	for _, rec := range view {
		if rec.ContentRef != hash {
			continue
		}
		role := rec.Role
		if role == "" && roleOf != nil {
			role = roleOf(rec.Holder)
		}
		details := rec.Name
		if !rec.Meta.IsZero() {
			details = models.BuildDescription(rec.Meta)
		}
		events = append(events, TimelineEvent{
			ID:        rec.ID,
			Timestamp: rec.Timestamp,
			EventType: rec.EventType,
			Actor:     rec.Holder,
			Role:      role,
			Details:   details,
		})
	}

	for _, entry := range audit {
		if entry.EvidenceHash != hash {
			continue
		}
		events = append(events, TimelineEvent{
			ID:        entry.ID,
			Timestamp: entry.Timestamp,
			EventType: entry.ActionType,
			Actor:     entry.Actor,
			Role:      entry.Role,
			Details:   entry.Action,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}
