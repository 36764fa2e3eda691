package typeresolve

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type fakeSession struct {
	class  string
	ok     bool
	delay  time.Duration
	closed bool
}

func (s *fakeSession) Resolve(ctx context.Context, offset uint32, receiverText string) (string, bool) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", false
		}
	}
	return s.class, s.ok
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeBackend struct {
	name    string
	session *fakeSession
	openErr error
}

func (b *fakeBackend) Name() string { return b.name }
func (b *fakeBackend) Open(ctx context.Context, path string, text []byte) (Session, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.session, nil
}

func TestResolverOpenFileAndResolve(t *testing.T) {
	backend := &fakeBackend{name: "fake", session: &fakeSession{class: "pkg.Widget", ok: true}}
	r := New(backend, time.Second, slog.Default())

	fs := r.OpenFile(context.Background(), "mod.py", []byte("x = Widget()\n"))
	class, ok := fs.Resolve(context.Background(), 0, "x")
	if !ok || class != "pkg.Widget" {
		t.Errorf("Resolve() = %q, %v, want pkg.Widget, true", class, ok)
	}
}

func TestResolverDegradesWhenBackendUnavailable(t *testing.T) {
	backend := &fakeBackend{name: "fake", openErr: errors.New("boom")}
	r := New(backend, time.Second, slog.Default())

	fs := r.OpenFile(context.Background(), "mod.py", []byte("x = 1\n"))
	_, ok := fs.Resolve(context.Background(), 0, "x")
	if ok {
		t.Errorf("Resolve() ok = true, want false when backend failed to open")
	}
}

func TestFileSessionMarksUnhealthyOnTimeout(t *testing.T) {
	backend := &fakeBackend{name: "fake", session: &fakeSession{class: "pkg.Widget", ok: true, delay: 50 * time.Millisecond}}
	r := New(backend, 5*time.Millisecond, slog.Default())

	fs := r.OpenFile(context.Background(), "mod.py", []byte("x = 1\n"))
	if _, ok := fs.Resolve(context.Background(), 0, "x"); ok {
		t.Fatalf("first Resolve() should have timed out")
	}

	// A fresh session with a fast backend still short-circuits once marked
	// unhealthy: the same FileSession must never query the backend again.
	fs.session = &fakeSession{class: "pkg.Widget", ok: true}
	if _, ok := fs.Resolve(context.Background(), 0, "x"); ok {
		t.Errorf("Resolve() after timeout should stay unhealthy without touching the backend again")
	}
}
