package asyncgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Iterator is the minimal capability a delegation target must provide: one
// suspending step that either produces a value or reports termination.
// Exhaustion is the ErrDone sentinel; an error carrying a *ReturnValue in its
// chain is exhaustion with a completion payload.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, error)
}

// Sender is the optional capability of accepting an injected value in
// exchange for the next produced one.
type Sender[T, S any] interface {
	Send(ctx context.Context, v S) (T, error)
}

// Thrower is the optional capability of accepting an injected error at the
// current suspension point.
type Thrower[T any] interface {
	Throw(ctx context.Context, err error) (T, error)
}

// Closer is the optional capability of unwinding early. It is also the
// boundary consumed by Closing.
type Closer interface {
	Close(ctx context.Context) error
}

var (
	_ Iterator[int]       = (*Generator[int, any])(nil)
	_ Sender[int, string] = (*Generator[int, string])(nil)
	_ Thrower[int]        = (*Generator[int, any])(nil)
	_ Closer              = (*Generator[int, any])(nil)
)

// YieldFrom drives it to completion from inside a generator body, exposing a
// single stream to the body's own driver: every value it produces is
// forwarded outward through y, and each resume input the forwarding Yield
// receives becomes the next drive of it. Send and Throw inputs reach the
// target's own suspension points, through any depth of nested delegation.
//
// YieldFrom returns the target's completion payload (nil unless the target
// terminated with Return) once it is exhausted. Any other error from the
// target propagates unchanged.
//
// Inputs the target has no capability for degrade instead of deadlocking:
// the target is closed if it is a Closer, and the input's error (for Throw,
// the injected error; for Send, a usage fault) propagates locally. A close
// signal closes the target first, then surfaces as ErrClosed so the body
// unwinds as usual.
func YieldFrom[T, S any](y *Yielder[T, S], it Iterator[T]) (any, error) {
	v, err := it.Next(y.Context())
	for {
		if err != nil {
			return delegateResult(err)
		}
		in := y.produce(v)
		ctx := y.Context()
		switch in.kind {
		case resumeClose:
			if c, ok := it.(Closer); ok {
				if cerr := c.Close(ctx); cerr != nil {
					return nil, cerr
				}
			}
			return nil, ErrClosed
		case resumeError:
			th, ok := it.(Thrower[T])
			if !ok {
				closeQuietly(ctx, it)
				return nil, in.err
			}
			v, err = th.Throw(ctx, in.err)
		case resumeValue:
			snd, ok := it.(Sender[T, S])
			if !ok {
				closeQuietly(ctx, it)
				return nil, fmt.Errorf("%w: delegation target %T does not support Send", ErrUsage, it)
			}
			v, err = snd.Send(ctx, in.v)
		default:
			v, err = it.Next(ctx)
		}
	}
}

// delegateResult maps a target's terminal error to YieldFrom's result.
func delegateResult(err error) (any, error) {
	if rv := asReturn(err); rv != nil {
		return rv.Value, nil
	}
	if errors.Is(err, ErrDone) {
		return nil, nil
	}
	return nil, err
}

func closeQuietly(ctx context.Context, it any) {
	c, ok := it.(Closer)
	if !ok {
		return
	}
	if err := c.Close(ctx); err != nil {
		slog.Debug("asyncgen: error closing delegation target", "err", err)
	}
}
