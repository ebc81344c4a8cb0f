package lock

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no object exists under the requested ID. For a
	// previously-known pending lock this is indeterminate: "destroyed by
	// decline" and "never existed" look identical from outside.
	ErrNotFound = errors.New("lock not found")

	// ErrNotLock means an object exists under the ID but is not a lovelock
	// Lock. Kept distinct from ErrNotFound so callers can tell "wrong kind
	// of object" from "nothing there".
	ErrNotLock = errors.New("object is not a lock")

	// ErrConcurrencyRejected means a second state-changing operation was
	// attempted on a lock that already has one in flight. Flow control,
	// not a fault; retry once the first operation settles.
	ErrConcurrencyRejected = errors.New("operation already in flight for this lock")
)

// TransportError wraps a query/submit/finality failure. Always retryable
// by re-invoking the same operation.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transient failure worth retrying.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
