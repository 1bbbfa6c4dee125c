package asyncgen

import (
	"reflect"
	"runtime"
	"strings"
)

// generator is the marker interface satisfied by every Generator
// instantiation, whatever its type parameters.
type generator interface {
	Instance
	isGenerator()
}

func (g *Generator[T, S]) isGenerator() {}

// IsGenerator reports whether v is a *Generator, of any type parameters.
func IsGenerator(v any) bool {
	_, ok := v.(generator)
	return ok
}

var (
	yielderType = reflect.TypeOf((*Yielder[any, any])(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// IsGeneratorFunc reports whether v has the shape of a generator body: a
// func(*Yielder[T, S]) error for some T and S, usable as the argument to New.
func IsGeneratorFunc(v any) bool {
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Func {
		return false
	}
	if t.NumIn() != 1 || t.NumOut() != 1 || t.IsVariadic() || t.Out(0) != errorType {
		return false
	}
	in := t.In(0)
	if in.Kind() != reflect.Pointer {
		return false
	}
	elem := in.Elem()
	return elem.PkgPath() == yielderType.PkgPath() && strings.HasPrefix(elem.Name(), "Yielder[")
}

// Frame returns the body's current suspension point, for debugging. It is
// only meaningful while the generator is Suspended; ok is false otherwise.
func (g *Generator[T, S]) Frame() (frame runtime.Frame, ok bool) {
	if g.State() != Suspended {
		return runtime.Frame{}, false
	}
	pc := g.y.pc.Load()
	if pc == 0 {
		return runtime.Frame{}, false
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ = frames.Next()
	return frame, true
}
