package typeresolve

import "context"

// NoneBackend is the --type-method none backend: it never starts a real
// session, so every query degrades to "unknown" through the normal
// FileSession degradation path rather than a special case in the
// Rewriter.
type NoneBackend struct{}

func (NoneBackend) Name() string { return "none" }

func (NoneBackend) Open(ctx context.Context, path string, text []byte) (Session, error) {
	return nil, errUnsupported
}

var errUnsupported = noneError{}

type noneError struct{}

func (noneError) Error() string { return "type resolution disabled (--type-method none)" }
