package rewrite

import (
	"context"
	"strings"
	"testing"
	"time"

	"dissolve.dev/dissolve/internal/marker"
	"dissolve.dev/dissolve/internal/typeresolve"
)

func TestRewriterMethodWithReceiverResolved(t *testing.T) {
	lib := parseOrFatal(t, "pkglib.py", `
class C:
    @replace_me(since="1.0")
    def old(self, n):
        return self.new(n * 2)
`)
	libResult := marker.CollectFile("pkglib", lib)

	caller := parseOrFatal(t, "caller.py", `obj = C()
result = obj.old(5)
`)

	resolver := typeresolve.New(fixedClassBackend{class: "pkglib.C"}, time.Second, nil)
	session := resolver.OpenFile(context.Background(), caller.Path, caller.Text)

	rw := New(caller, libResult, session)
	buf, applied := rw.Run(context.Background())

	if len(applied) != 1 {
		t.Fatalf("applied = %+v, want exactly one replacement", applied)
	}
	out := string(buf.Bytes())
	if !strings.Contains(out, "obj.new(5 * 2)") {
		t.Errorf("output does not contain rewritten receiver call:\n%s", out)
	}
}

func TestRewriterMethodWithReceiverUnknownLeavesCallUnchanged(t *testing.T) {
	lib := parseOrFatal(t, "pkglib.py", `
class C:
    @replace_me(since="1.0")
    def old(self, n):
        return self.new(n * 2)
`)
	libResult := marker.CollectFile("pkglib", lib)

	caller := parseOrFatal(t, "caller.py", `obj = C()
result = obj.old(5)
`)

	resolver := typeresolve.New(typeresolve.NoneBackend{}, time.Second, nil)
	session := resolver.OpenFile(context.Background(), caller.Path, caller.Text)

	rw := New(caller, libResult, session)
	buf, applied := rw.Run(context.Background())

	if len(applied) != 0 {
		t.Fatalf("applied = %+v, want no replacements when the receiver's type is unknown", applied)
	}
	out := string(buf.Bytes())
	if !strings.Contains(out, "obj.old(5)") {
		t.Errorf("output should leave the unresolved call untouched:\n%s", out)
	}
}

func TestRewriterClassmethodCallOnClassLiteral(t *testing.T) {
	lib := parseOrFatal(t, "pkglib.py", `
class C:
    @classmethod
    @replace_me(since="1.0")
    def old_cm(cls, d):
        return cls.new_cm(d.strip())
`)
	libResult := marker.CollectFile("pkglib", lib)

	caller := parseOrFatal(t, "caller.py", `result = C.old_cm("  hi  ")
`)

	resolver := typeresolve.New(fixedClassBackend{class: "pkglib.C"}, time.Second, nil)
	session := resolver.OpenFile(context.Background(), caller.Path, caller.Text)

	rw := New(caller, libResult, session)
	buf, applied := rw.Run(context.Background())

	if len(applied) != 1 {
		t.Fatalf("applied = %+v, want exactly one replacement", applied)
	}
	out := string(buf.Bytes())
	if !strings.Contains(out, `C.new_cm("  hi  ".strip())`) {
		t.Errorf("output does not contain rewritten classmethod call:\n%s", out)
	}
}
