package typeresolve

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout is the per-query wall-clock deadline used when the
// Driver does not override it via --timeout.
const DefaultTimeout = 10 * time.Second

// Resolver is the Rewriter-facing entry point. It owns a Backend and
// hands out one FileSession per file a worker processes; the Resolver
// itself holds no per-file state, so it is safe to share across the
// worker pool in internal/driver.
type Resolver struct {
	backend Backend
	timeout time.Duration
	logger  *slog.Logger

	warnUnavailable sync.Once
}

// New returns a Resolver that queries backend with the given per-query
// timeout, logging one warning via logger the first time the backend
// proves unavailable.
func New(backend Backend, timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{backend: backend, timeout: timeout, logger: logger}
}

// OpenFile opens a session scoped to path for the duration of processing
// one file. If the backend fails to start, OpenFile still returns a
// usable FileSession — one that answers every query with "unknown" — so
// callers never need a separate degraded-mode branch; the one-time
// warning is emitted here instead.
func (r *Resolver) OpenFile(ctx context.Context, path string, text []byte) *FileSession {
	session, err := r.backend.Open(ctx, path, text)
	if err != nil {
		r.warnUnavailable.Do(func() {
			r.logger.Warn("type resolver backend unavailable, degrading to unknown",
				"backend", r.backend.Name(), "error", err)
		})
		return &FileSession{timeout: r.timeout}
	}
	return &FileSession{session: session, timeout: r.timeout}
}
