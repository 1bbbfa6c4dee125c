package asyncgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/asynkit/asyncgen/internal/gid"
)

// State is a generator's lifecycle state.
type State int32

const (
	// Created: the body has not started; Next starts it, Close discards it.
	Created State = iota
	// Running: a resume is in flight; every other operation is rejected.
	Running
	// Suspended: the body is parked at a Yield, awaiting the next resume.
	Suspended
	// Completed: the body returned. Terminal.
	Completed
	// Closed: the generator was closed, explicitly or on abandonment. Terminal.
	Closed
	// Failed: the body or a hook raised an error that propagated out. Terminal.
	Failed
)

// Terminal reports whether s is a final state. A terminal generator never
// runs body code again; Next, Send and Throw answer ErrDone and Close is a
// no-op.
func (s State) Terminal() bool {
	return s == Completed || s == Closed || s == Failed
}

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Completed:
		return "completed"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Func is the body of a generator. It produces values through the Yielder and
// completes by returning nil, Return(v), or the error to propagate to the
// driver.
type Func[T, S any] func(*Yielder[T, S]) error

// Generator drives one suspendable computation. The type parameter T is the
// type of produced values and S the type of values injected with Send.
//
// A Generator must not be copied. All methods are safe for concurrent use;
// resumes against one instance are strictly serialized and a second operation
// issued while one is in flight fails with ErrRunning.
type Generator[T, S any] struct {
	body Func[T, S]
	y    *Yielder[T, S]

	mu        sync.Mutex
	state     atomic.Int32
	finalizer FinalizerFunc // captured from the registry at first iteration
}

// New wraps body in a generator. The body does not run until the first call
// to Next; creating a generator allocates no goroutine.
func New[T, S any](body Func[T, S]) *Generator[T, S] {
	g := &Generator[T, S]{body: body, y: newYielder[T, S]()}
	runtime.SetFinalizer(g, (*Generator[T, S]).abandoned)
	return g
}

// State returns the current lifecycle state.
func (g *Generator[T, S]) State() State {
	return State(g.state.Load())
}

// Running reports whether a resume is currently in flight.
func (g *Generator[T, S]) Running() bool {
	return g.State() == Running
}

// Next advances the generator to its next suspension point and returns the
// produced value. The first call starts the body; exhaustion is reported as
// ErrDone. Next blocks until the body yields control back or ctx is
// cancelled; a cancelled resume leaves the instance guarded (see Close for
// the cancellation contract).
func (g *Generator[T, S]) Next(ctx context.Context) (T, error) {
	return g.resumeOp(ctx, resumeInput[S]{kind: resumeNone})
}

// Send resumes the generator with v as the result of its pending Yield and
// returns the next produced value. It is valid only on a suspended
// generator: before the first Next it fails with ErrNotStarted, and after
// termination it answers ErrDone.
func (g *Generator[T, S]) Send(ctx context.Context, v S) (T, error) {
	return g.resumeOp(ctx, resumeInput[S]{kind: resumeValue, v: v})
}

// Throw resumes the generator by delivering err as the error result of its
// pending Yield. A body that handles the error may keep producing values;
// one that returns it terminates the generator and Throw reports the error
// back. The same validity rules as Send apply.
func (g *Generator[T, S]) Throw(ctx context.Context, err error) (T, error) {
	var zero T
	if err == nil {
		return zero, fmt.Errorf("%w: Throw with nil error", ErrUsage)
	}
	return g.resumeOp(ctx, resumeInput[S]{kind: resumeError, err: err})
}

func (g *Generator[T, S]) resumeOp(ctx context.Context, in resumeInput[S]) (T, error) {
	var zero T

	g.mu.Lock()
	switch g.State() {
	case Running:
		g.mu.Unlock()
		return zero, ErrRunning
	case Completed, Closed, Failed:
		g.mu.Unlock()
		return zero, ErrDone
	case Created:
		if in.kind != resumeNone {
			g.mu.Unlock()
			return zero, ErrNotStarted
		}
		firstIter := g.firstIteration()
		g.state.Store(int32(Running))
		g.mu.Unlock()
		if firstIter != nil {
			if err := firstIter(g); err != nil {
				g.finish(Failed)
				return zero, err
			}
		}
		g.start(ctx)
	case Suspended:
		g.state.Store(int32(Running))
		g.mu.Unlock()
		if !g.deliver(ctx, in) {
			// The body never saw the input; the step did not happen.
			g.state.Store(int32(Suspended))
			return zero, ctx.Err()
		}
	}
	return g.wait(ctx, in.kind)
}

// firstIteration snapshots the process-wide hooks for this instance. Called
// with g.mu held, once, when the very first Next begins.
func (g *Generator[T, S]) firstIteration() FirstIterFunc {
	firstIter, finalizer := Hooks()
	g.finalizer = finalizer
	return firstIter
}

// start launches the body goroutine. The first resume carries no input: the
// body begins executing and runs until its first suspension point.
func (g *Generator[T, S]) start(ctx context.Context) {
	y := g.y
	y.ctx = ctx
	go func() {
		y.owner = gid.Current()
		var err error
		returned := false
		defer func() {
			if !returned {
				if v := recover(); v != nil {
					err = newPanicError(v)
				} else {
					// runtime.Goexit from inside the body.
					err = fmt.Errorf("asyncgen: generator body exited without returning")
				}
			}
			y.done.Store(true)
			y.outcome <- outcome[T]{kind: outcomeCompleted, err: err}
		}()
		err = g.body(y)
		returned = true
	}()
}

// deliver hands the resume input to the parked body. It reports false when
// ctx was cancelled before the body took the input, in which case the body
// was not resumed at all.
func (g *Generator[T, S]) deliver(ctx context.Context, in resumeInput[S]) bool {
	if ctx.Err() != nil {
		return false
	}
	g.y.ctx = ctx
	select {
	case g.y.resume <- in:
		return true
	case <-ctx.Done():
		return false
	}
}

// wait blocks until the body yields control back and applies the resulting
// transition. If ctx is cancelled first, the resume stays in flight: the
// instance keeps answering ErrRunning and a background drainer settles the
// eventual outcome.
func (g *Generator[T, S]) wait(ctx context.Context, kind resumeKind) (T, error) {
	var zero T
	select {
	case out := <-g.y.outcome:
		if out.kind == outcomeProduced {
			g.state.Store(int32(Suspended))
			return out.v, nil
		}
		return zero, g.complete(out.err)
	case <-ctx.Done():
		go g.settle(kind)
		return zero, ctx.Err()
	}
}

// complete maps a body completion to the iteration protocol and moves the
// generator to its terminal state.
func (g *Generator[T, S]) complete(err error) error {
	switch rv := asReturn(err); {
	case err == nil:
		g.finish(Completed)
		return ErrDone
	case rv != nil:
		g.finish(Completed)
		if rv.Value == nil {
			return ErrDone
		}
		return fmt.Errorf("%w: generator returned a value without delegation: %w", ErrUsage, rv)
	case errors.Is(err, ErrDone):
		g.finish(Failed)
		return fmt.Errorf("%w (%v)", ErrDoneLeaked, err)
	default:
		g.finish(Failed)
		return err
	}
}

// Close asks a suspended generator to unwind by delivering the close signal
// at its pending Yield; the body observes it as ErrClosed and is expected to
// return without producing another value. An unstarted generator is closed
// without ever running its body. Closing an already-terminal generator is a
// no-op.
//
// An error raised by the body while unwinding (other than ErrClosed itself)
// propagates to the caller and the generator is Failed. A body that yields
// another value instead of unwinding is a usage fault, reported as
// ErrIgnoredClose.
//
// Close honors ctx: when cancelled mid-unwind the instance never reports
// Suspended again; it stays Running-guarded until the body yields control,
// then settles to a terminal state in the background.
func (g *Generator[T, S]) Close(ctx context.Context) error {
	g.mu.Lock()
	switch g.State() {
	case Completed, Closed, Failed:
		g.mu.Unlock()
		return nil
	case Running:
		g.mu.Unlock()
		return ErrRunning
	case Created:
		g.finish(Closed)
		g.mu.Unlock()
		return nil
	}
	g.state.Store(int32(Running))
	g.mu.Unlock()

	if !g.deliver(ctx, resumeInput[S]{kind: resumeClose}) {
		g.state.Store(int32(Suspended))
		return ctx.Err()
	}
	select {
	case out := <-g.y.outcome:
		if out.kind == outcomeProduced {
			// The body answered the close signal with another value. Its
			// goroutine stays parked at that Yield; nothing resumes a failed
			// generator.
			g.finish(Failed)
			return ErrIgnoredClose
		}
		return g.completeClose(out.err)
	case <-ctx.Done():
		go g.settle(resumeClose)
		return ctx.Err()
	}
}

// completeClose maps a body completion during a close-driven resume. The
// close signal being returned, with or without a completion payload, is a
// clean close.
func (g *Generator[T, S]) completeClose(err error) error {
	switch {
	case err == nil, errors.Is(err, ErrClosed), asReturn(err) != nil:
		g.finish(Closed)
		return nil
	case errors.Is(err, ErrDone):
		g.finish(Failed)
		return fmt.Errorf("%w (%v)", ErrDoneLeaked, err)
	default:
		g.finish(Failed)
		return err
	}
}

// settle collects the outcome of a resume whose driver gave up on it. There
// is no caller left to report to, so faults only make it to the log.
func (g *Generator[T, S]) settle(kind resumeKind) {
	out := <-g.y.outcome
	if out.kind == outcomeProduced {
		if kind == resumeClose {
			g.finish(Failed)
			slog.Warn("asyncgen: generator ignored close, goroutine stays parked")
			return
		}
		slog.Debug("asyncgen: dropping value produced for an abandoned resume")
		g.state.Store(int32(Suspended))
		return
	}
	var err error
	if kind == resumeClose {
		err = g.completeClose(out.err)
	} else {
		err = g.complete(out.err)
	}
	if err != nil && !errors.Is(err, ErrDone) {
		slog.Warn("asyncgen: abandoned resume failed", "err", err)
	}
}

// finish moves the generator to a terminal state. The runtime finalizer is
// dropped: there is nothing left to clean up on abandonment.
func (g *Generator[T, S]) finish(s State) {
	g.state.Store(int32(s))
	runtime.SetFinalizer(g, nil)
}

// abandoned runs when the instance becomes unreachable without having been
// driven to a terminal state.
func (g *Generator[T, S]) abandoned() {
	switch g.State() {
	case Created:
		// The body never started; there is nothing to unwind.
		g.finish(Closed)
	case Suspended:
		if fin := g.finalizer; fin != nil {
			fin(g)
			return
		}
		// No finalization hook installed and nobody to deliver an error to:
		// unwind on a best-effort basis.
		go func() {
			if err := g.Close(context.Background()); err != nil {
				slog.Warn("asyncgen: error closing abandoned generator", "err", err)
			}
		}()
	}
}
