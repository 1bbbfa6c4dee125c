package asyncgen

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/asynkit/asyncgen/internal/gid"
)

type resumeKind int8

const (
	resumeNone resumeKind = iota // advance with no injected value
	resumeValue
	resumeError
	resumeClose
)

// resumeInput is the tagged payload delivered to a parked body when the
// driver resumes it.
type resumeInput[S any] struct {
	kind resumeKind
	v    S
	err  error
}

type outcomeKind int8

const (
	outcomeProduced outcomeKind = iota
	outcomeCompleted
)

// outcome is what the body hands back to the driver: either one produced
// value, or the completion of the body function (err is nil, a *ReturnValue,
// or the fault that terminated it).
type outcome[T any] struct {
	kind outcomeKind
	v    T
	err  error
}

// Yielder is the suspension primitive owned by exactly one generator. The
// body produces values through it and receives resume inputs from whichever
// driver issued the current resume.
//
// The slot strictly alternates between the two directions: the body publishes
// one outcome, parks, and wakes holding the next resume input. The outcome
// channel is buffered so publishing never blocks the body; it parks on the
// resume channel immediately after.
type Yielder[T, S any] struct {
	resume  chan resumeInput[S] // driver -> body
	outcome chan outcome[T]     // body -> driver
	owner   gid.G               // goroutine running the body
	done    atomic.Bool         // body completed; Yield is no longer legal
	pc      atomic.Uintptr      // program counter of the current suspension point
	ctx     context.Context     // context of the in-flight resume; see Context
}

func newYielder[T, S any]() *Yielder[T, S] {
	return &Yielder[T, S]{
		resume:  make(chan resumeInput[S]),
		outcome: make(chan outcome[T], 1),
	}
}

// Yield hands v to the driver of the current resume and parks the body until
// the next resume input arrives. It returns the input: the value given to
// Send, the error given to Throw, or ErrClosed when the generator is being
// closed. A plain Next resumes the body with (zero, nil).
//
// Yield is only legal on the goroutine running the generator body, while a
// resume is in flight. Both violations are programming errors and panic with
// an error wrapping ErrUsage.
func (y *Yielder[T, S]) Yield(v T) (S, error) {
	in := y.produce(v)
	var zero S
	switch in.kind {
	case resumeValue:
		return in.v, nil
	case resumeError:
		return zero, in.err
	case resumeClose:
		return zero, ErrClosed
	default:
		return zero, nil
	}
}

// Context returns the context of the resume currently driving the body. It
// changes from one suspension point to the next and must only be called from
// the generator body.
func (y *Yielder[T, S]) Context() context.Context {
	if y.ctx == nil {
		return context.Background()
	}
	return y.ctx
}

// produce publishes one value and parks the body until the next resume input.
// It preserves the input's tag for YieldFrom, which forwards it to the
// delegation target rather than collapsing it the way Yield does.
func (y *Yielder[T, S]) produce(v T) resumeInput[S] {
	if y.done.Load() {
		panic(fmt.Errorf("%w: Yield on a completed generator", ErrUsage))
	}
	if g := gid.Current(); g != y.owner {
		panic(fmt.Errorf("%w: Yield from goroutine %d, generator body runs on goroutine %d", ErrUsage, g, y.owner))
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	y.pc.Store(pcs[0])
	y.outcome <- outcome[T]{kind: outcomeProduced, v: v}
	return <-y.resume
}
