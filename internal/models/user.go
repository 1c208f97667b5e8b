package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles an identity can hold. An identity has at most one role; the
// last assignment wins.
const (
	RoleInvestigator = "investigator"
	RoleAdmin        = "admin"
	RoleAuditor      = "auditor"
)

// ValidRole reports whether r names a known role.
func ValidRole(r string) bool {
	return r == RoleInvestigator || r == RoleAdmin || r == RoleAuditor
}

// RoleAssignment maps an identity to its current role.
type RoleAssignment struct {
	Identity   string    `json:"identity"`
	Role       string    `json:"role"`
	AssignedAt time.Time `json:"assigned_at"`
}

// HashSecret generates a bcrypt hash of a role secret.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckSecret compares a supplied secret with its stored hash.
func CheckSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
