package asyncgen

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrDone signals that a generator has no more values to produce. It is
	// returned by Next, Send and Throw once the body has returned or the
	// generator has been closed, and keeps being returned on every subsequent
	// call. Test for it with errors.Is.
	ErrDone = errors.New("asyncgen: generator is done")

	// ErrClosed is the close signal. It is the error result of the pending
	// Yield when Close is called on a suspended generator; the body is
	// expected to unwind and return it (or nil) to finish closing.
	ErrClosed = errors.New("asyncgen: generator closed")

	// ErrUsage is the base error for contract violations by the driving code
	// or the generator body. Every usage fault wraps it.
	ErrUsage = errors.New("asyncgen: usage error")

	// ErrRunning reports an operation attempted while a resume is already in
	// flight. The pending resume is not affected.
	ErrRunning = fmt.Errorf("%w: generator already executing", ErrUsage)

	// ErrNotStarted reports a Send or Throw on a generator that has not been
	// advanced yet; only Next and Close are valid before the first resume.
	ErrNotStarted = fmt.Errorf("%w: generator not started", ErrUsage)

	// ErrIgnoredClose reports a body that produced another value in response
	// to the close signal instead of unwinding.
	ErrIgnoredClose = fmt.Errorf("%w: generator ignored close", ErrUsage)

	// ErrDoneLeaked reports a body that completed with an error in ErrDone's
	// chain. The exhaustion sentinel belongs to the driver protocol; a body
	// raising it would fake its own termination, so it is intercepted and
	// re-reported as this distinct fault.
	ErrDoneLeaked = errors.New("asyncgen: generator raised ErrDone")
)

// ReturnValue is the control error carrying a generator's completion payload.
// It is created by Return and consumed by YieldFrom; a non-nil payload that
// reaches a plain driver instead surfaces as a usage fault which still wraps
// the ReturnValue.
type ReturnValue struct {
	Value any
}

func (r *ReturnValue) Error() string {
	return fmt.Sprintf("asyncgen: generator returned %v", r.Value)
}

// Return signals completion of a generator body with a final value. The value
// becomes the result of the YieldFrom call driving the body; it is not a
// produced value and is never seen by Next.
func Return(v any) error {
	return &ReturnValue{Value: v}
}

// asReturn extracts the completion payload from a body error, if any.
func asReturn(err error) *ReturnValue {
	var rv *ReturnValue
	if errors.As(err, &rv) {
		return rv
	}
	return nil
}

// PanicError wraps a panic recovered from a generator body, with the stack
// captured at the point of the panic. It unwraps to the panic value when that
// value was an error.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("asyncgen: generator panicked: %v", p.Value)
}

func (p *PanicError) Unwrap() error {
	err, _ := p.Value.(error)
	return err
}
