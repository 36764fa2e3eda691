// Package typeresolve implements the Type Resolver: on demand, given a
// source position and a receiver expression's text, it asks an external
// type-checking process for the receiver's fully-qualified declaring
// class. Two real backends are provided (an LSP-speaking type checker and
// a daemon-speaking one) plus a no-op backend; the Rewriter talks to all
// three through the same narrow contract.
package typeresolve

import "context"

// Backend opens a Session scoped to one source file. Implementations wrap
// a specific external type-checking process (pyright over LSP, mypy's
// dmypy daemon, or nothing at all).
type Backend interface {
	Name() string
	Open(ctx context.Context, path string, text []byte) (Session, error)
}

// Session answers receiver-type queries for the file it was opened
// against. A Session is owned by exactly one worker for exactly one file
// and is closed when that file's processing ends.
type Session interface {
	// Resolve returns the fully-qualified declaring class of the
	// expression receiverText found at byte offset in the session's
	// file, or ok=false if the backend cannot determine one.
	Resolve(ctx context.Context, offset uint32, receiverText string) (class string, ok bool)
	Close() error
}
