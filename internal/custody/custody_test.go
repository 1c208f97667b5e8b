package custody

import (
	"context"
	"errors"
	"time"

	"evidence-custody-go/internal/models"

	"github.com/redis/go-redis/v9"
)

// In-memory store fakes shared by the package tests.

type fakeAudit struct {
	entries []models.AuditEntry // newest first
	fail    bool
}

func (f *fakeAudit) Append(ctx context.Context, entry models.AuditEntry) error {
	if f.fail {
		return errors.New("audit store down")
	}
	f.entries = append([]models.AuditEntry{entry}, f.entries...)
	return nil
}

func (f *fakeAudit) All(ctx context.Context) ([]models.AuditEntry, error) {
	return f.entries, nil
}

func (f *fakeAudit) ByHash(ctx context.Context, hash string) ([]models.AuditEntry, error) {
	var out []models.AuditEntry
	for _, e := range f.entries {
		if e.EvidenceHash == hash {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAudit) Count(ctx context.Context) (int, error) {
	return len(f.entries), nil
}

type fakeRoles struct {
	roles map[string]string
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{roles: make(map[string]string)}
}

func (f *fakeRoles) Assign(ctx context.Context, identity, role string) error {
	f.roles[identity] = role
	return nil
}

func (f *fakeRoles) Role(ctx context.Context, identity string) (string, error) {
	return f.roles[identity], nil
}

func (f *fakeRoles) Assignments(ctx context.Context) ([]models.RoleAssignment, error) {
	var out []models.RoleAssignment
	for identity, role := range f.roles {
		out = append(out, models.RoleAssignment{Identity: identity, Role: role})
	}
	return out, nil
}

type fakeCache struct {
	histories map[string][]models.EvidenceRecord
}

func newFakeCache() *fakeCache {
	return &fakeCache{histories: make(map[string][]models.EvidenceRecord)}
}

func (f *fakeCache) History(ctx context.Context, identity string) ([]models.EvidenceRecord, error) {
	return f.histories[identity], nil
}

func (f *fakeCache) SaveHistory(ctx context.Context, identity string, records []models.EvidenceRecord) error {
	f.histories[identity] = records
	return nil
}

func (f *fakeCache) Prepend(ctx context.Context, identity string, rec models.EvidenceRecord) error {
	f.histories[identity] = append([]models.EvidenceRecord{rec}, f.histories[identity]...)
	return nil
}

func (f *fakeCache) Publish(ctx context.Context, payload []byte) error { return nil }

func (f *fakeCache) Subscribe(ctx context.Context) *redis.PubSub { return nil }

type fakeTOTP struct {
	secret  string
	enabled bool
}

func (f *fakeTOTP) SaveTOTP(ctx context.Context, identity, secret string, enabled bool) error {
	f.secret, f.enabled = secret, enabled
	return nil
}

func (f *fakeTOTP) TOTP(ctx context.Context, identity string) (string, bool, error) {
	return f.secret, f.enabled, nil
}

func record(id, hash, holder, eventType string, ts time.Time) models.EvidenceRecord {
	return models.EvidenceRecord{
		ID:         id,
		Name:       "evidence-" + id,
		ContentRef: hash,
		Holder:     holder,
		EventType:  eventType,
		Timestamp:  ts,
	}
}
