package models

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID creates a random identifier for locally originated records and
// audit entries. Remote record ids are assigned by the ledger.
func NewID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
