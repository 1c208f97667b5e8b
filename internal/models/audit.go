package models

import "time"

// Audit action types. The audit log is append-only; entries are never
// mutated or removed after creation.
const (
	ActionUpload               = "UPLOAD"
	ActionTransfer             = "TRANSFER"
	ActionVerification         = "VERIFICATION"
	ActionRoleAssignment       = "ROLE_ASSIGNMENT"
	ActionRoleChange           = "ROLE_CHANGE"
	ActionUserCreated          = "USER_CREATED"
	ActionCertificateGenerated = "CERTIFICATE_GENERATED"
	ActionReportGenerated      = "REPORT_GENERATED"
	ActionLocalBackup          = "LOCAL_BACKUP"
	ActionLocalRestore         = "LOCAL_RESTORE"
)

type AuditEntry struct {
	ID           string            `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	Actor        string            `json:"actor"`
	Action       string            `json:"action"`
	ActionType   string            `json:"actionType"`
	Role         string            `json:"role,omitempty"`
	EvidenceHash string            `json:"evidenceHash,omitempty"`
	EvidenceID   string            `json:"evidenceId,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
