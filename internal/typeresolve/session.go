package typeresolve

import (
	"context"
	"time"
)

// FileSession is what the Rewriter actually calls. It enforces a timeout
// policy: a query that exceeds the deadline marks the session unhealthy,
// and every subsequent query on the same file is short-circuited to
// "unknown" without touching the backend again.
type FileSession struct {
	session   Session // nil when the backend never started
	timeout   time.Duration
	unhealthy bool
}

// Resolve returns the declaring class of receiverText at offset, or
// ok=false if the backend is absent, unhealthy, times out, or simply does
// not know.
func (fs *FileSession) Resolve(ctx context.Context, offset uint32, receiverText string) (string, bool) {
	if fs.session == nil || fs.unhealthy {
		return "", false
	}

	qctx, cancel := context.WithTimeout(ctx, fs.timeout)
	defer cancel()

	type outcome struct {
		class string
		ok    bool
	}
	done := make(chan outcome, 1)
	go func() {
		class, ok := fs.session.Resolve(qctx, offset, receiverText)
		done <- outcome{class, ok}
	}()

	select {
	case <-qctx.Done():
		fs.unhealthy = true
		return "", false
	case r := <-done:
		return r.class, r.ok
	}
}

// Close releases the underlying backend session, if any.
func (fs *FileSession) Close() error {
	if fs.session == nil {
		return nil
	}
	return fs.session.Close()
}
