package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"evidence-custody-go/internal/models"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore holds the durable local state: the append-only audit
// trail, role assignments, push subscriptions and TOTP enrollments.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// RunMigrations creates tables if they don't exist.
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Audit methods. There is deliberately no update or delete here; the
// trail is append-only.

func (s *PostgresStore) Append(ctx context.Context, entry models.AuditEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, created_at, actor, action, action_type, role, evidence_hash, evidence_id, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.Timestamp, entry.Actor, entry.Action, entry.ActionType,
		entry.Role, entry.EvidenceHash, entry.EvidenceID, metaJSON,
	)
	if err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}

func (s *PostgresStore) All(ctx context.Context) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, actor, action, action_type, role, evidence_hash, evidence_id, metadata
		 FROM audit_log ORDER BY seq DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditRows(rows)
}

func (s *PostgresStore) ByHash(ctx context.Context, hash string) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, actor, action, action_type, role, evidence_hash, evidence_id, metadata
		 FROM audit_log WHERE evidence_hash = $1 ORDER BY seq DESC`,
		hash,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditRows(rows)
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&count)
	return count, err
}

func scanAuditRows(rows *sql.Rows) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		var role, evidenceHash, evidenceID sql.NullString
		var metaJSON []byte

		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Actor, &entry.Action,
			&entry.ActionType, &role, &evidenceHash, &evidenceID, &metaJSON); err != nil {
			continue
		}

		entry.Role = role.String
		entry.EvidenceHash = evidenceHash.String
		entry.EvidenceID = evidenceID.String
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &entry.Metadata)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Role methods

func (s *PostgresStore) Assign(ctx context.Context, identity, role string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO role_assignments (identity, role, assigned_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (identity) DO UPDATE SET role = $2, assigned_at = NOW()`,
		identity, role,
	)
	return err
}

func (s *PostgresStore) Role(ctx context.Context, identity string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM role_assignments WHERE identity = $1`, identity,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return role, err
}

func (s *PostgresStore) Assignments(ctx context.Context) ([]models.RoleAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity, role, assigned_at FROM role_assignments ORDER BY assigned_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []models.RoleAssignment
	for rows.Next() {
		var a models.RoleAssignment
		if err := rows.Scan(&a.Identity, &a.Role, &a.AssignedAt); err != nil {
			continue
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// Push subscription methods

func (s *PostgresStore) SavePushSubscription(ctx context.Context, identity, endpoint, p256dh, auth string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (identity, endpoint, p256dh, auth, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (endpoint) DO UPDATE SET identity = $1, p256dh = $3, auth = $4`,
		identity, endpoint, p256dh, auth,
	)
	return err
}

func (s *PostgresStore) GetPushSubscriptions(ctx context.Context) ([]models.PushSubscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, identity, endpoint, p256dh, auth, created_at FROM push_subscriptions`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.PushSubscription
	for rows.Next() {
		var sub models.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.Identity, &sub.Endpoint, &sub.P256dh, &sub.Auth, &sub.CreatedAt); err != nil {
			continue
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// TOTP methods

func (s *PostgresStore) SaveTOTP(ctx context.Context, identity, secret string, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO totp_enrollments (identity, secret, enabled, created_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (identity) DO UPDATE SET secret = $2, enabled = $3`,
		identity, secret, enabled,
	)
	return err
}

func (s *PostgresStore) TOTP(ctx context.Context, identity string) (string, bool, error) {
	var secret string
	var enabled bool
	err := s.db.QueryRowContext(ctx,
		`SELECT secret, enabled FROM totp_enrollments WHERE identity = $1`, identity,
	).Scan(&secret, &enabled)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	return secret, enabled, err
}
