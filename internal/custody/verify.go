package custody

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"evidence-custody-go/internal/ledger"
	"evidence-custody-go/internal/models"
	"evidence-custody-go/internal/store"
)

// Verification outcomes. This is a closed set; every verification call
// resolves to exactly one of these.
const (
	VerifyMatch         = "MATCH"
	VerifyMismatch      = "MISMATCH"
	VerifyNotFound      = "NOT_FOUND"
	VerifyMissingDigest = "MISSING_DIGEST"
	VerifyError         = "ERROR"
)

// Digest computes the hex-encoded SHA-256 of the exact byte sequence.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyResult is the outcome of one verification attempt.
type VerifyResult struct {
	Outcome  string                 `json:"outcome"`
	Computed string                 `json:"computed,omitempty"`
	Stored   string                 `json:"stored,omitempty"`
	Detail   string                 `json:"detail"`
	Record   *models.EvidenceRecord `json:"record,omitempty"`
}

// Verifier recomputes content digests and compares them against stored
// ones. Every verification, success or failure, appends exactly one
// VERIFICATION audit entry; that is a non-repudiation requirement, so a
// failed append fails the whole action.
type Verifier struct {
	Audit  store.AuditStore
	Ledger ledger.Ledger
}

// VerifyLocal compares content bytes against the record located by hash
// in the merged view.
func (v *Verifier) VerifyLocal(ctx context.Context, actor, role string, data []byte, hash string, view View) (VerifyResult, error) {
	rec, ok := view.ByHash(hash)
	if !ok {
		res := VerifyResult{Outcome: VerifyNotFound, Detail: "No evidence record found for that hash."}
		return res, v.logOutcome(ctx, actor, role, "Verification failed: record not found", res, hash, "")
	}

	if rec.Meta.SHA256 == "" {
		res := VerifyResult{Outcome: VerifyMissingDigest, Record: &rec, Detail: "No digest stored for this record."}
		return res, v.logOutcome(ctx, actor, role, "Verification failed: missing digest", res, hash, rec.ID)
	}

	res := compare(data, rec.Meta.SHA256)
	res.Record = &rec
	action := "Verification passed for evidence"
	if res.Outcome != VerifyMatch {
		action = "Verification failed for evidence"
	}
	return res, v.logOutcome(ctx, actor, role, action, res, hash, rec.ID)
}

// VerifyRemote compares content bytes against a single record fetched by
// numeric id from the authoritative ledger, bypassing the merged cache.
func (v *Verifier) VerifyRemote(ctx context.Context, actor, role string, data []byte, index int) (VerifyResult, error) {
	rec, err := v.Ledger.RecordAt(ctx, index)
	if err != nil {
		res := VerifyResult{Outcome: VerifyError, Detail: fmt.Sprintf("Ledger fetch failed: %v", err)}
		if logErr := v.logOutcome(ctx, actor, role, "Remote verification error", res, "", fmt.Sprintf("%d", index)); logErr != nil {
			return res, logErr
		}
		return res, &ConnectivityError{Op: "remote verify", Err: err}
	}

	meta := models.ParseDescription(rec.Description)
	if meta.SHA256 == "" {
		res := VerifyResult{Outcome: VerifyMissingDigest, Detail: "Remote record has no digest stored."}
		return res, v.logOutcome(ctx, actor, role, "Remote verification failed: missing digest", res, rec.ContentRef, rec.ID)
	}

	res := compare(data, meta.SHA256)
	action := "Remote verification passed"
	if res.Outcome != VerifyMatch {
		action = "Remote verification failed"
	}
	return res, v.logOutcome(ctx, actor, role, action, res, rec.ContentRef, rec.ID)
}

func compare(data []byte, stored string) VerifyResult {
	computed := Digest(data)
	if computed == stored {
		return VerifyResult{
			Outcome:  VerifyMatch,
			Computed: computed,
			Stored:   stored,
			Detail:   "Integrity verified. Digests match.",
		}
	}
	return VerifyResult{
		Outcome:  VerifyMismatch,
		Computed: computed,
		Stored:   stored,
		Detail:   "Digest mismatch. Possible tampering.",
	}
}

func (v *Verifier) logOutcome(ctx context.Context, actor, role, action string, res VerifyResult, hash, id string) error {
	meta := map[string]string{"verificationResult": res.Outcome}
	if res.Computed != "" {
		meta["sha256"] = res.Computed
	}
	if res.Stored != "" {
		meta["storedSha256"] = res.Stored
	}

	return v.Audit.Append(ctx, models.AuditEntry{
		ID:           models.NewID(),
		Timestamp:    time.Now().UTC(),
		Actor:        actor,
		Action:       action,
		ActionType:   models.ActionVerification,
		Role:         role,
		EvidenceHash: hash,
		EvidenceID:   id,
		Metadata:     meta,
	})
}
