package asyncgen

import (
	"context"
	"errors"
)

// Run drives g to completion, calling f for each value the generator
// produces and sending back each value that f returns.
//
// The generator might be left mid-iteration when f fails or panics; in that
// case Run closes it before returning so the body is not left suspended.
func Run[T, S any](ctx context.Context, g *Generator[T, S], f func(T) (S, error)) error {
	defer func() {
		if !g.State().Terminal() {
			_ = g.Close(ctx)
		}
	}()

	v, err := g.Next(ctx)
	for {
		if err != nil {
			if errors.Is(err, ErrDone) {
				return nil
			}
			return err
		}
		s, ferr := f(v)
		if ferr != nil {
			return ferr
		}
		v, err = g.Send(ctx, s)
	}
}
