package async

import (
	"errors"
	"fmt"
)

var (
	// ErrTimedOut is returned from Barrier.WaitFor when the wait duration
	// elapses before the bound promise settles. It's local to the waiter:
	// the promise itself is not affected, and may still settle later.
	ErrTimedOut = errors.New("async: wait timed out")
)

// UnhandledRejectionError wraps an error that reached a Then call site
// carrying the EscalateErr policy. It's the value such a call site panics
// with, so escalated rejections are distinguishable from other panics.
type UnhandledRejectionError struct {
	err error
}

func (e *UnhandledRejectionError) Error() string {
	return fmt.Sprintf("async: unhandled rejection: %s", e.err)
}

func (e *UnhandledRejectionError) Unwrap() error {
	return e.err
}
