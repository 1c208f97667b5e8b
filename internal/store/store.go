package store

import (
	"context"

	"evidence-custody-go/internal/models"

	"github.com/redis/go-redis/v9"
)

// EvidenceCache holds the locally cached pending/offline records per
// identity, newest first, plus the custody event feed (Redis).
type EvidenceCache interface {
	History(ctx context.Context, identity string) ([]models.EvidenceRecord, error)
	SaveHistory(ctx context.Context, identity string, records []models.EvidenceRecord) error
	Prepend(ctx context.Context, identity string, rec models.EvidenceRecord) error
	Publish(ctx context.Context, payload []byte) error
	Subscribe(ctx context.Context) *redis.PubSub
}

// AuditStore is the append-only audit trail (PostgreSQL). Append is
// write-through; a crash immediately after it returns must not lose the
// entry. There is no update or remove.
type AuditStore interface {
	Append(ctx context.Context, entry models.AuditEntry) error
	All(ctx context.Context) ([]models.AuditEntry, error)
	ByHash(ctx context.Context, hash string) ([]models.AuditEntry, error)
	Count(ctx context.Context) (int, error)
}

// RoleStore maps identities to roles; the last assignment wins.
type RoleStore interface {
	Assign(ctx context.Context, identity, role string) error
	Role(ctx context.Context, identity string) (string, error)
	Assignments(ctx context.Context) ([]models.RoleAssignment, error)
}

// PushStore persists web-push subscriptions.
type PushStore interface {
	SavePushSubscription(ctx context.Context, identity, endpoint, p256dh, auth string) error
	GetPushSubscriptions(ctx context.Context) ([]models.PushSubscription, error)
}

// TOTPStore persists step-up authentication enrollments.
type TOTPStore interface {
	SaveTOTP(ctx context.Context, identity, secret string, enabled bool) error
	TOTP(ctx context.Context, identity string) (secret string, enabled bool, err error)
}
