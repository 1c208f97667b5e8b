package custody

import "fmt"

// ConnectivityError means the remote ledger or content provider could
// not be reached.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: provider unreachable: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// AuthorizationError means a role secret mismatch or a missing role
// selection. The role mapping is unchanged when this is returned.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string { return e.Reason }

// NotFoundError means the target of a lookup is absent from every source.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no evidence record found for %q", e.Key)
}

// IntegrityError means a recomputed digest did not match the stored one.
type IntegrityError struct {
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("digest mismatch: stored %s, computed %s", e.Expected, e.Actual)
}

// FormatError means a backup or description payload was malformed.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// TransactionError means a ledger submission was rejected or failed.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: submission failed: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
