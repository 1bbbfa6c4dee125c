package asyncgen_test

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/asynkit/asyncgen"
)

func TestSetHooksReturnsPrevious(t *testing.T) {
	first := func(asyncgen.Instance) error { return nil }
	fin := func(asyncgen.Instance) {}

	prevFirst, prevFin := asyncgen.SetHooks(first, fin)
	defer asyncgen.SetHooks(prevFirst, prevFin)

	gotFirst, gotFin := asyncgen.Hooks()
	if gotFirst == nil || gotFin == nil {
		t.Error("installed hooks not visible through Hooks")
	}
	if f, _ := asyncgen.SetHooks(nil, nil); f == nil {
		t.Error("SetHooks did not return the replaced first-iteration hook")
	}
	asyncgen.SetHooks(first, fin)
}

func TestFirstIterHook(t *testing.T) {
	var calls int
	var seen asyncgen.Instance
	prevFirst, prevFin := asyncgen.SetHooks(func(inst asyncgen.Instance) error {
		calls++
		seen = inst
		return nil
	}, nil)
	defer asyncgen.SetHooks(prevFirst, prevFin)

	g := asyncgen.New(counter(2))
	if _, err := collect(ctx, g); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("first-iteration hook ran %d times, want 1", calls)
	}
	if seen != g {
		t.Error("hook did not receive the iterated instance")
	}
}

func TestFirstIterVeto(t *testing.T) {
	veto := errors.New("iteration vetoed")
	prevFirst, prevFin := asyncgen.SetHooks(func(asyncgen.Instance) error {
		return veto
	}, nil)
	defer asyncgen.SetHooks(prevFirst, prevFin)

	ran := false
	g := asyncgen.New(func(y *asyncgen.Yielder[int, struct{}]) error {
		ran = true
		return nil
	})
	if _, err := g.Next(ctx); !errors.Is(err, veto) {
		t.Fatalf("Next: got %v, want the veto error", err)
	}
	if ran {
		t.Error("body ran despite the veto")
	}
	if got := g.State(); got != asyncgen.Failed {
		t.Errorf("state: got %v, want failed", got)
	}
}

func TestAbandonmentHook(t *testing.T) {
	fired := make(chan asyncgen.Instance, 1)
	prevFirst, prevFin := asyncgen.SetHooks(nil, func(inst asyncgen.Instance) {
		fired <- inst
	})
	defer asyncgen.SetHooks(prevFirst, prevFin)

	func() {
		g := asyncgen.New(counter(100))
		if _, err := g.Next(ctx); err != nil {
			t.Fatal(err)
		}
	}()

	for {
		runtime.GC()
		select {
		case inst := <-fired:
			if got := inst.State(); got != asyncgen.Suspended {
				t.Errorf("abandoned state: got %v, want suspended", got)
			}
			if err := inst.Close(context.Background()); err != nil {
				t.Errorf("Close from hook: %v", err)
			}
			return
		default:
		}
	}
}

func TestAbandonmentDefaultClose(t *testing.T) {
	prevFirst, prevFin := asyncgen.SetHooks(nil, nil)
	defer asyncgen.SetHooks(prevFirst, prevFin)

	var cleaned atomic.Bool
	func() {
		g := asyncgen.New(func(y *asyncgen.Yielder[int, struct{}]) error {
			defer cleaned.Store(true)
			for i := 0; ; i++ {
				if _, err := y.Yield(i); err != nil {
					return err
				}
			}
		})
		if _, err := g.Next(ctx); err != nil {
			t.Fatal(err)
		}
	}()

	// With no hook installed the library itself unwinds the abandoned body.
	for !cleaned.Load() {
		runtime.GC()
		runtime.Gosched()
	}
}
