package asyncgen

import (
	"context"
	"sync"
)

// Instance is the view of a generator presented to finalization hooks,
// independent of its type parameters.
type Instance interface {
	State() State
	Running() bool
	Close(ctx context.Context) error
}

// FirstIterFunc is invoked synchronously when a generator's very first Next
// begins, before its body runs. Returning a non-nil error vetoes iteration:
// the error propagates to the caller of Next and the generator is Failed
// without the body ever running.
type FirstIterFunc func(Instance) error

// FinalizerFunc is invoked when a started generator becomes unreachable
// before reaching a terminal state. It should schedule the equivalent of
// Close rather than perform it synchronously; it runs on the runtime's
// finalizer goroutine and there is no caller to deliver an error to.
type FinalizerFunc func(Instance)

// The process-wide hook pair. Deliberately just last-writer-wins: this is a
// debugging and cleanup aid, not a correctness-critical path.
var (
	hooksMu       sync.Mutex
	firstIterHook FirstIterFunc
	finalizerHook FinalizerFunc
)

// SetHooks replaces the process-wide finalization hook pair and returns the
// previous pair, so an embedding application can scope an override:
//
//	prevFirst, prevFin := asyncgen.SetHooks(first, fin)
//	defer asyncgen.SetHooks(prevFirst, prevFin)
//
// Either hook may be nil. Both default to nil; with no finalizer installed,
// abandoned generators are closed on a best-effort basis by the library
// itself. Each generator reads the pair once, when its first Next begins.
func SetHooks(firstIter FirstIterFunc, finalizer FinalizerFunc) (FirstIterFunc, FinalizerFunc) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	prevFirst, prevFin := firstIterHook, finalizerHook
	firstIterHook, finalizerHook = firstIter, finalizer
	return prevFirst, prevFin
}

// Hooks returns the current process-wide hook pair.
func Hooks() (FirstIterFunc, FinalizerFunc) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	return firstIterHook, finalizerHook
}
