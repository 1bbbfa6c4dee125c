package asyncgen

import "context"

// Closing runs fn with c and guarantees c is closed exactly once on the way
// out, whether fn returns or panics. Closing never swallows fn's error; the
// one exception is a failing Close, whose error supersedes it.
//
// It is the scope-bound form of Close for iterators that must not be left
// suspended:
//
//	err := asyncgen.Closing(ctx, asyncgen.New(body), func(g *asyncgen.Generator[int, struct{}]) error {
//		v, err := g.Next(ctx)
//		...
//	})
func Closing[C Closer](ctx context.Context, c C, fn func(C) error) (err error) {
	defer func() {
		if cerr := c.Close(ctx); cerr != nil {
			err = cerr
		}
	}()
	return fn(c)
}
