package models

import (
	"encoding/json"
	"time"
)

// Event types for an evidence record.
const (
	EventUpload   = "UPLOAD"
	EventTransfer = "TRANSFER"
)

// Origins of a record in the merged view.
const (
	OriginRemote       = "REMOTE"
	OriginLocalPending = "LOCAL_PENDING"
)

// Submission states of a locally created record.
const (
	SubmitPending   = "PENDING"
	SubmitConfirmed = "CONFIRMED"
	SubmitFailed    = "FAILED"
)

// EvidenceMeta is the structured payload carried in a ledger record's
// description field. The sha256 digest is immutable once set.
type EvidenceMeta struct {
	SHA256       string `json:"sha256"`
	CaseID       string `json:"caseId"`
	Investigator string `json:"investigator"`
	Location     string `json:"location"`
	Notes        string `json:"notes"`
}

// IsZero reports whether no metadata fields are set.
func (m EvidenceMeta) IsZero() bool {
	return m == EvidenceMeta{}
}

// EvidenceRecord is one custody event, either confirmed on the remote
// ledger or pending in the local cache.
type EvidenceRecord struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Meta         EvidenceMeta `json:"meta"`
	ContentRef   string       `json:"contentRef"`
	Holder       string       `json:"holder"`
	EventType    string       `json:"eventType"`
	Timestamp    time.Time    `json:"timestamp"`
	Origin       string       `json:"origin"`
	LedgerRef    string       `json:"ledgerRef,omitempty"`
	SubmitState  string       `json:"submitState,omitempty"`
	Role         string       `json:"role,omitempty"`
	TransferFrom string       `json:"transferFrom,omitempty"`
}

// descriptionPayload is the wire form of EvidenceMeta. The type
// discriminant must be "EvidenceMeta" for the payload to be accepted.
type descriptionPayload struct {
	Type         string `json:"type"`
	SHA256       string `json:"sha256"`
	CaseID       string `json:"caseId"`
	Investigator string `json:"investigator"`
	Location     string `json:"location"`
	Notes        string `json:"notes"`
}

const descriptionType = "EvidenceMeta"

// BuildDescription encodes metadata for a ledger record description.
func BuildDescription(meta EvidenceMeta) string {
	data, err := json.Marshal(descriptionPayload{
		Type:         descriptionType,
		SHA256:       meta.SHA256,
		CaseID:       meta.CaseID,
		Investigator: meta.Investigator,
		Location:     meta.Location,
		Notes:        meta.Notes,
	})
	if err != nil {
		return ""
	}
	return string(data)
}

// ParseDescription decodes a ledger record description. Any payload that
// fails to parse or carries the wrong type yields empty metadata, never
// an error.
func ParseDescription(desc string) EvidenceMeta {
	if desc == "" {
		return EvidenceMeta{}
	}
	var p descriptionPayload
	if err := json.Unmarshal([]byte(desc), &p); err != nil {
		return EvidenceMeta{}
	}
	if p.Type != descriptionType {
		return EvidenceMeta{}
	}
	return EvidenceMeta{
		SHA256:       p.SHA256,
		CaseID:       p.CaseID,
		Investigator: p.Investigator,
		Location:     p.Location,
		Notes:        p.Notes,
	}
}
