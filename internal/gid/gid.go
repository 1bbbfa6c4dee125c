// Package gid provides portable goroutine identity.
//
// The runtime intentionally hides goroutine ids, and reading the g pointer
// requires per-architecture assembly. Parsing the header line of
// runtime.Stack is slower but works everywhere; it only runs on suspension
// points, never on the iteration fast path.
package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

// G identifies a goroutine for the lifetime of the program.
type G uint64

// Current returns the identity of the calling goroutine.
func Current() G {
	// The first line of a stack dump is "goroutine 123 [running]:".
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	id, err := strconv.ParseUint(string(s), 10, 64)
	if err != nil {
		return 0
	}
	return G(id)
}
