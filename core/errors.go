package core

import (
	"errors"
	"fmt"
)

// ErrIllegalState is the sentinel wrapped by every ConcurrencyError.
var ErrIllegalState = errors.New("illegal state")

// ConcurrencyError reports misuse of a coordination primitive, such as
// releasing a Mutex that is not held. It always indicates a logic bug.
type ConcurrencyError struct {
	Op     string
	Reason string
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, ErrIllegalState, e.Reason)
}

func (e *ConcurrencyError) Unwrap() error { return ErrIllegalState }

// WorkerFailure is returned by a pool run when the row function failed (or
// panicked) on some row range. The pool never retries the range.
type WorkerFailure struct {
	Task   RowTask
	Worker int
	Err    error
}

func (e *WorkerFailure) Error() string {
	return fmt.Sprintf("worker %d failed on rows [%d, %d): %v", e.Worker, e.Task.Start, e.Task.End, e.Err)
}

func (e *WorkerFailure) Unwrap() error { return e.Err }

// IOError wraps a file or channel I/O failure with the operation and path involved.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ErrPanic is wrapped by the WorkerFailure produced when a row function panics.
var ErrPanic = errors.New("row function panicked")
