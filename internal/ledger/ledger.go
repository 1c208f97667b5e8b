package ledger

import (
	"context"
	"strings"
	"time"
)

// Record is one entry on the remote evidence ledger. Records are
// 1-indexed and immutable once written.
type Record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ContentRef  string    `json:"contentRef"`
	Holder      string    `json:"holder"`
	Timestamp   time.Time `json:"timestamp"`
}

// Ledger is the authoritative remote record set. Submit suspends until
// the submission is acknowledged; no timeout is imposed here beyond the
// caller's context.
type Ledger interface {
	Count(ctx context.Context) (int, error)
	RecordAt(ctx context.Context, index int) (Record, error)
	Submit(ctx context.Context, name, description, contentRef string) (string, error)
}

// ContentStore accepts evidence bytes and returns an opaque content
// reference. Content is fetched for display through a read-only gateway.
type ContentStore interface {
	Put(ctx context.Context, data []byte) (string, error)
}

type submitterKey struct{}

// WithSubmitter tags a context with the identity submitting a record.
// The in-process ledger records it as the holder; remote gateways derive
// the holder from their own signing key instead.
func WithSubmitter(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, submitterKey{}, identity)
}

func submitter(ctx context.Context) string {
	identity, _ := ctx.Value(submitterKey{}).(string)
	return identity
}

// GatewayURL builds the read-only fetch URL for a content reference.
func GatewayURL(base, contentRef string) string {
	if base == "" || contentRef == "" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + "/" + contentRef
}
