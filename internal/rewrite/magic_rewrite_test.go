package rewrite

import (
	"context"
	"strings"
	"testing"
	"time"

	"dissolve.dev/dissolve/internal/marker"
	"dissolve.dev/dissolve/internal/typeresolve"
)

type fixedClassSession struct{ class string }

func (s fixedClassSession) Resolve(ctx context.Context, offset uint32, receiverText string) (string, bool) {
	return s.class, true
}
func (s fixedClassSession) Close() error { return nil }

type fixedClassBackend struct{ class string }

func (b fixedClassBackend) Name() string { return "fixed" }
func (b fixedClassBackend) Open(ctx context.Context, path string, text []byte) (typeresolve.Session, error) {
	return fixedClassSession{class: b.class}, nil
}

func TestRewriterMagicBuiltinDispatch(t *testing.T) {
	lib := parseOrFatal(t, "pkg/widgets.py", `
class Widget:
    @replace_me(since="1.0")
    def __str__(self):
        return self.describe()
`)
	libResult := marker.CollectFile("pkg.widgets", lib)

	caller := parseOrFatal(t, "caller.py", `w = Widget()
message = str(w)
`)

	resolver := typeresolve.New(fixedClassBackend{class: "pkg.widgets.Widget"}, time.Second, nil)
	session := resolver.OpenFile(context.Background(), caller.Path, caller.Text)

	rw := New(caller, libResult, session)
	buf, applied := rw.Run(context.Background())

	if len(applied) != 1 {
		t.Fatalf("applied = %+v, want exactly one replacement", applied)
	}
	out := string(buf.Bytes())
	if !strings.Contains(out, "w.describe()") {
		t.Errorf("output does not contain rewritten dunder call:\n%s", out)
	}
}
