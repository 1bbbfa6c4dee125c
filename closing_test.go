package asyncgen_test

import (
	"context"
	"errors"
	"testing"

	"github.com/asynkit/asyncgen"
)

type recordingCloser struct {
	closes int
	err    error
}

func (c *recordingCloser) Close(ctx context.Context) error {
	c.closes++
	return c.err
}

func TestClosing(t *testing.T) {
	c := &recordingCloser{}
	err := asyncgen.Closing(ctx, c, func(c *recordingCloser) error {
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.closes != 1 {
		t.Errorf("Close ran %d times, want 1", c.closes)
	}
}

func TestClosingKeepsError(t *testing.T) {
	boom := errors.New("boom")
	c := &recordingCloser{}
	err := asyncgen.Closing(ctx, c, func(c *recordingCloser) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if c.closes != 1 {
		t.Errorf("Close ran %d times, want 1", c.closes)
	}
}

func TestClosingCloseErrorWins(t *testing.T) {
	closeErr := errors.New("close failed")
	c := &recordingCloser{err: closeErr}
	err := asyncgen.Closing(ctx, c, func(c *recordingCloser) error {
		return errors.New("body error")
	})
	if !errors.Is(err, closeErr) {
		t.Fatalf("got %v, want the close error", err)
	}
}

func TestClosingOnPanic(t *testing.T) {
	c := &recordingCloser{}
	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic did not propagate")
			}
		}()
		asyncgen.Closing(ctx, c, func(c *recordingCloser) error {
			panic("boom")
		})
	}()
	if c.closes != 1 {
		t.Errorf("Close ran %d times, want 1", c.closes)
	}
}

func TestClosingGenerator(t *testing.T) {
	g := asyncgen.New(counter(10))
	err := asyncgen.Closing(ctx, g, func(g *asyncgen.Generator[int, struct{}]) error {
		v, err := g.Next(ctx)
		if err != nil {
			return err
		}
		if v != 1 {
			t.Errorf("Next: got %d, want 1", v)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.State(); got != asyncgen.Closed {
		t.Errorf("state: got %v, want closed", got)
	}
}
