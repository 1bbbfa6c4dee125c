// Package asyncgen implements driveable generators: computations that can
// suspend themselves at arbitrary points to hand a value to whoever is
// iterating them, and stay parked until they are resumed with the next input.
//
// A generator is created from a body function and does not run until it is
// first advanced:
//
//	g := asyncgen.New(func(y *asyncgen.Yielder[int, struct{}]) error {
//		for i := 1; i <= 3; i++ {
//			if _, err := y.Yield(i); err != nil {
//				return err
//			}
//		}
//		return nil
//	})
//
//	for {
//		v, err := g.Next(ctx)
//		if errors.Is(err, asyncgen.ErrDone) {
//			break
//		}
//		// use v
//	}
//
// The type parameter T is what the generator produces, and S is what the
// driver can send back into a suspension point with Send. Throw delivers an
// error to the suspension point instead, and Close asks the body to unwind.
// All four operations suspend the caller until the body yields control back,
// and they honor cancellation of the context they are given.
//
// Bodies compose through delegation: YieldFrom drives a nested iterator to
// completion from inside a body, relaying produced values outward and resume
// inputs inward, at any nesting depth.
//
// Each generator owns exactly one body and serializes all resumes against it;
// driving the same instance from two goroutines at once is reported as
// ErrRunning rather than interleaved. Generators that become unreachable
// while suspended are finalized on a best-effort basis, see SetHooks.
package asyncgen
