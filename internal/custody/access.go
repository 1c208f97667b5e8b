package custody

import (
	"context"
	"fmt"
	"time"

	"evidence-custody-go/internal/models"
	"evidence-custody-go/internal/store"
)

// Capabilities an action can require. All gating decisions consult the
// table below; nothing else compares role strings.
type Capability string

const (
	CapUpload    Capability = "upload"
	CapTransfer  Capability = "transfer"
	CapVerify    Capability = "verify"
	CapUserAdmin Capability = "user_admin"
	CapViewAudit Capability = "view_audit"
)

var capabilities = map[string]map[Capability]bool{
	models.RoleInvestigator: {
		CapUpload:   true,
		CapTransfer: true,
		CapVerify:   true,
	},
	models.RoleAdmin: {
		CapUpload:    true,
		CapVerify:    true,
		CapUserAdmin: true,
		CapViewAudit: true,
	},
	models.RoleAuditor: {
		CapVerify:    true,
		CapViewAudit: true,
	},
}

// Can reports whether a role grants a capability.
func Can(role string, cap Capability) bool {
	return capabilities[role][cap]
}

// AccessController owns the identity -> role mapping and the secrets
// gating each role. Assigning always checks the secret of the target
// role, not the current one.
type AccessController struct {
	Roles   store.RoleStore
	Audit   store.AuditStore
	TOTP    store.TOTPStore
	Secrets map[string]string // role -> bcrypt hash of its secret
}

// AssignRole moves an identity to the selected role after checking the
// role's secret, and for admin, a TOTP code when the identity is
// enrolled. On failure the mapping is unchanged and nothing is audited.
func (a *AccessController) AssignRole(ctx context.Context, identity, role, secret, totpCode string) (models.RoleAssignment, error) {
	if identity == "" {
		return models.RoleAssignment{}, &AuthorizationError{Reason: "no identity supplied"}
	}
	if role == "" {
		return models.RoleAssignment{}, &AuthorizationError{Reason: "no role selected"}
	}
	hash, ok := a.Secrets[role]
	if !ok {
		return models.RoleAssignment{}, &AuthorizationError{Reason: "invalid role selected"}
	}
	if !models.CheckSecret(hash, secret) {
		return models.RoleAssignment{}, &AuthorizationError{Reason: "incorrect secret for this role"}
	}

	if role == models.RoleAdmin && a.TOTP != nil {
		totpSecret, enabled, err := a.TOTP.TOTP(ctx, identity)
		if err != nil {
			return models.RoleAssignment{}, fmt.Errorf("totp lookup: %w", err)
		}
		if enabled && !models.VerifyTOTPCode(totpSecret, totpCode) {
			return models.RoleAssignment{}, &AuthorizationError{Reason: "invalid authentication code"}
		}
	}

	prior, err := a.Roles.Role(ctx, identity)
	if err != nil {
		return models.RoleAssignment{}, err
	}
	if err := a.Roles.Assign(ctx, identity, role); err != nil {
		return models.RoleAssignment{}, err
	}

	actionType := models.ActionRoleAssignment
	action := fmt.Sprintf("Assigned role: %s", role)
	if prior != "" {
		actionType = models.ActionRoleChange
		action = fmt.Sprintf("Changed role: %s -> %s", prior, role)
	}
	entry := models.AuditEntry{
		ID:         models.NewID(),
		Timestamp:  time.Now().UTC(),
		Actor:      identity,
		Action:     action,
		ActionType: actionType,
		Role:       role,
	}
	if err := a.Audit.Append(ctx, entry); err != nil {
		return models.RoleAssignment{}, err
	}

	return models.RoleAssignment{Identity: identity, Role: role, AssignedAt: entry.Timestamp}, nil
}

// CreateUser lets an admin assign a role to another identity directly.
// The secret check is skipped; the acting admin's capability gates this.
func (a *AccessController) CreateUser(ctx context.Context, actor, actorRole, identity, role string) error {
	if !Can(actorRole, CapUserAdmin) {
		return &AuthorizationError{Reason: "role may not administer users"}
	}
	if identity == "" || !models.ValidRole(role) {
		return &FormatError{Reason: "identity and a valid role are required"}
	}

	existing, err := a.Roles.Role(ctx, identity)
	if err != nil {
		return err
	}
	if existing != "" {
		return &FormatError{Reason: "user already exists"}
	}

	if err := a.Roles.Assign(ctx, identity, role); err != nil {
		return err
	}
	return a.Audit.Append(ctx, models.AuditEntry{
		ID:         models.NewID(),
		Timestamp:  time.Now().UTC(),
		Actor:      actor,
		Action:     fmt.Sprintf("Created new user %s with role %s", identity, role),
		ActionType: models.ActionUserCreated,
		Role:       actorRole,
	})
}

// ResolveRole returns the current role of an identity, or "".
func (a *AccessController) ResolveRole(ctx context.Context, identity string) string {
	role, err := a.Roles.Role(ctx, identity)
	if err != nil {
		return ""
	}
	return role
}
