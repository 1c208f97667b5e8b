package custody

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"evidence-custody-go/internal/models"
	"evidence-custody-go/internal/store"
)

// Fixed certificate texts. The certificate is a descriptive artifact
// derived from ledger data already verified; it carries no signature of
// its own and guarantees nothing beyond what the underlying digest and
// ledger already do.
const (
	certificateTitle = "PROOF OF EXISTENCE (PoE) VERIFICATION CERTIFICATE"

	nonRepudiationText = "This certificate serves as cryptographic proof of existence, ownership, " +
		"and integrity of the evidence. The holder identity and recorded digests create an " +
		"immutable, non-repudiable record suitable for legal proceedings."

	legalDisclaimer = "This Proof of Existence Certificate is issued as a formal record of evidence " +
		"chain of custody for investigative and legal purposes. The ledger timestamp and " +
		"cryptographic hashes provide non-repudiation and tamper-evident proof."
)

// Certificate is a human-readable non-repudiation artifact for one
// resolved evidence record.
type Certificate struct {
	Number             string                `json:"certificateNumber"`
	GeneratedAt        time.Time             `json:"generatedAt"`
	Title              string                `json:"title"`
	EvidenceName       string                `json:"evidenceName"`
	EvidenceID         string                `json:"evidenceId"`
	Holder             string                `json:"holder"`
	SHA256             string                `json:"sha256"`
	ContentRef         string                `json:"contentRef"`
	LedgerTimestamp    time.Time             `json:"ledgerTimestamp"`
	CaseID             string                `json:"caseId"`
	Investigator       string                `json:"investigator"`
	Location           string                `json:"location"`
	Notes              string                `json:"notes"`
	VerificationStatus string                `json:"verificationStatus"`
	NonRepudiation     string                `json:"nonRepudiationText"`
	LegalDisclaimer    string                `json:"legalDisclaimer"`
	Record             models.EvidenceRecord `json:"record"`
}

// IssueCertificate derives a certificate from a resolved record. Pure;
// the audit side effect lives on CertificateIssuer.
func IssueCertificate(now time.Time, rec models.EvidenceRecord) Certificate {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 10 {
		ms = ms[len(ms)-10:]
	}
	return Certificate{
		Number:             "POE-" + ms,
		GeneratedAt:        now,
		Title:              certificateTitle,
		EvidenceName:       rec.Name,
		EvidenceID:         rec.ID,
		Holder:             rec.Holder,
		SHA256:             orNA(rec.Meta.SHA256),
		ContentRef:         rec.ContentRef,
		LedgerTimestamp:    rec.Timestamp,
		CaseID:             orNA(rec.Meta.CaseID),
		Investigator:       orNA(rec.Meta.Investigator),
		Location:           orNA(rec.Meta.Location),
		Notes:              orNA(rec.Meta.Notes),
		VerificationStatus: "VERIFIED",
		NonRepudiation:     nonRepudiationText,
		LegalDisclaimer:    legalDisclaimer,
		Record:             rec,
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Render formats the certificate as the downloadable plain-text artifact.
func (c Certificate) Render() string {
	var b strings.Builder
	rule := strings.Repeat("-", 79)

	fmt.Fprintf(&b, "%s\n\n", c.Title)
	fmt.Fprintf(&b, "CERTIFICATE NUMBER:        %s\n", c.Number)
	fmt.Fprintf(&b, "GENERATED:                 %s\n", c.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "VERIFICATION STATUS:       %s\n\n%s\n\n", c.VerificationStatus, rule)
	fmt.Fprintf(&b, "EVIDENCE DETAILS:\n\n")
	fmt.Fprintf(&b, "  Evidence Name:           %s\n", c.EvidenceName)
	fmt.Fprintf(&b, "  Record ID:               %s\n", c.EvidenceID)
	fmt.Fprintf(&b, "  Case ID:                 %s\n", c.CaseID)
	fmt.Fprintf(&b, "  Investigator Name:       %s\n", c.Investigator)
	fmt.Fprintf(&b, "  Investigation Location:  %s\n\n%s\n\n", c.Location, rule)
	fmt.Fprintf(&b, "CRYPTOGRAPHIC VERIFICATION:\n\n")
	fmt.Fprintf(&b, "  SHA-256 Hash:            %s\n", c.SHA256)
	fmt.Fprintf(&b, "  Content Reference:       %s\n", c.ContentRef)
	fmt.Fprintf(&b, "  Holder Identity:         %s\n", c.Holder)
	fmt.Fprintf(&b, "  Ledger Timestamp:        %s\n\n%s\n\n", c.LedgerTimestamp.Format(time.RFC3339), rule)
	fmt.Fprintf(&b, "NOTES AND OBSERVATIONS:\n%s\n\n%s\n\n", c.Notes, rule)
	fmt.Fprintf(&b, "NON-REPUDIATION DECLARATION:\n\n%s\n\n%s\n\n", c.NonRepudiation, rule)
	fmt.Fprintf(&b, "LEGAL DISCLAIMER:\n\n%s\n\n", c.LegalDisclaimer)
	fmt.Fprintf(&b, "This certificate is generated as an automated record and should be used in\n")
	fmt.Fprintf(&b, "conjunction with supporting documentation and chain of custody procedures.\n\n%s\n\n", rule)
	fmt.Fprintf(&b, "Issued by: Evidence Custody Service v1.0\n")
	fmt.Fprintf(&b, "Certificate Validity: Permanent (Ledger-backed)\n")
	return b.String()
}

// CertificateIssuer issues certificates and records the audit trail for
// each issuance.
type CertificateIssuer struct {
	Audit store.AuditStore
}

func (ci *CertificateIssuer) Issue(ctx context.Context, actor, role string, rec models.EvidenceRecord) (Certificate, error) {
	cert := IssueCertificate(time.Now().UTC(), rec)
	err := ci.Audit.Append(ctx, models.AuditEntry{
		ID:           models.NewID(),
		Timestamp:    cert.GeneratedAt,
		Actor:        actor,
		Action:       fmt.Sprintf("Generated PoE certificate for evidence: %s", rec.Name),
		ActionType:   models.ActionCertificateGenerated,
		Role:         role,
		EvidenceHash: rec.ContentRef,
		EvidenceID:   rec.ID,
		Metadata:     map[string]string{"certificateNumber": cert.Number},
	})
	if err != nil {
		return Certificate{}, err
	}
	return cert, nil
}
