package rewrite

import (
	"context"
	"strings"
	"testing"

	"dissolve.dev/dissolve/internal/marker"
	"dissolve.dev/dissolve/internal/source"
)

func parseOrFatal(t *testing.T, path, text string) *source.File {
	t.Helper()
	f, err := source.Parse(path, []byte(text))
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return f
}

func TestRewriterDirectImportedCall(t *testing.T) {
	lib := parseOrFatal(t, "pkglib.py", `
@replace_me(since="1.0")
def old_greet(name):
    return new_greet(name)
`)
	libResult := marker.CollectFile("pkglib", lib)

	caller := parseOrFatal(t, "caller.py", `from pkglib import old_greet

message = old_greet("world")
`)

	rw := New(caller, libResult, nil)
	buf, applied := rw.Run(context.Background())

	if len(applied) != 1 {
		t.Fatalf("applied = %+v, want exactly one replacement", applied)
	}
	out := string(buf.Bytes())
	if !strings.Contains(out, `new_greet("world")`) {
		t.Errorf("output does not contain rewritten call:\n%s", out)
	}
	if strings.Contains(out, "old_greet(") {
		t.Errorf("output still calls old_greet:\n%s", out)
	}
}

func TestRewriterSkipsShadowedName(t *testing.T) {
	lib := parseOrFatal(t, "pkglib.py", `
@replace_me(since="1.0")
def old_greet(name):
    return new_greet(name)
`)
	libResult := marker.CollectFile("pkglib", lib)

	caller := parseOrFatal(t, "caller.py", `from pkglib import old_greet

def old_greet(name):
    return "shadowed"

message = old_greet("world")
`)

	rw := New(caller, libResult, nil)
	_, applied := rw.Run(context.Background())

	if len(applied) != 0 {
		t.Errorf("applied = %+v, want no replacements for a shadowed name", applied)
	}
}

func TestRewriterModuleAttributeCall(t *testing.T) {
	lib := parseOrFatal(t, "pkglib.py", `
@replace_me(since="1.0")
def old_greet(name):
    return new_greet(name)
`)
	libResult := marker.CollectFile("pkglib", lib)

	caller := parseOrFatal(t, "caller.py", `import pkglib

message = pkglib.old_greet("world")
`)

	rw := New(caller, libResult, nil)
	buf, applied := rw.Run(context.Background())

	if len(applied) != 1 {
		t.Fatalf("applied = %+v, want exactly one replacement", applied)
	}
	out := string(buf.Bytes())
	if !strings.Contains(out, `new_greet("world")`) {
		t.Errorf("output does not contain rewritten call:\n%s", out)
	}
}

type scriptedPrompter struct {
	decisions []Decision
	i         int
}

func (p *scriptedPrompter) Prompt(file string, line, column int, oldText, newText string) Decision {
	if p.i >= len(p.decisions) {
		return DecisionSkip
	}
	d := p.decisions[p.i]
	p.i++
	return d
}

func TestRewriterInteractiveSkipThenApply(t *testing.T) {
	lib := parseOrFatal(t, "pkglib.py", `
@replace_me(since="1.0")
def old_greet(name):
    return new_greet(name)
`)
	libResult := marker.CollectFile("pkglib", lib)

	caller := parseOrFatal(t, "caller.py", `from pkglib import old_greet

a = old_greet("first")
b = old_greet("second")
`)

	rw := New(caller, libResult, nil)
	rw.Prompter = &scriptedPrompter{decisions: []Decision{DecisionSkip, DecisionApply}}
	buf, applied := rw.Run(context.Background())

	if len(applied) != 1 {
		t.Fatalf("applied = %+v, want exactly one replacement", applied)
	}
	out := string(buf.Bytes())
	if !strings.Contains(out, `old_greet("first")`) {
		t.Errorf("skipped call site was rewritten:\n%s", out)
	}
	if !strings.Contains(out, `new_greet("second")`) {
		t.Errorf("applied call site was not rewritten:\n%s", out)
	}
}

func TestRewriterInteractiveAbortStopsFurtherSites(t *testing.T) {
	lib := parseOrFatal(t, "pkglib.py", `
@replace_me(since="1.0")
def old_greet(name):
    return new_greet(name)
`)
	libResult := marker.CollectFile("pkglib", lib)

	caller := parseOrFatal(t, "caller.py", `from pkglib import old_greet

a = old_greet("first")
b = old_greet("second")
`)

	rw := New(caller, libResult, nil)
	rw.Prompter = &scriptedPrompter{decisions: []Decision{DecisionAbort}}
	_, applied := rw.Run(context.Background())

	if len(applied) != 0 {
		t.Errorf("applied = %+v, want none after abort", applied)
	}
}

func TestRewriterAsyncCallUnwrapsAwaitInTemplate(t *testing.T) {
	lib := parseOrFatal(t, "pkglib.py", `
@replace_me(since="1.0")
async def old(url):
    return await new(url, timeout=30)
`)
	libResult := marker.CollectFile("pkglib", lib)

	caller := parseOrFatal(t, "caller.py", `from pkglib import old

async def run():
    return await old("u")
`)

	rw := New(caller, libResult, nil)
	buf, applied := rw.Run(context.Background())

	if len(applied) != 1 {
		t.Fatalf("applied = %+v, want exactly one replacement", applied)
	}
	out := string(buf.Bytes())
	if !strings.Contains(out, `await new("u", timeout=30)`) {
		t.Errorf("output does not contain single-await rewritten call:\n%s", out)
	}
	if strings.Contains(out, "await await") {
		t.Errorf("output doubles the await keyword:\n%s", out)
	}
}

func TestRewriterClassWrapperInstantiation(t *testing.T) {
	lib := parseOrFatal(t, "pkglib.py", `
class UserManager:
    def __init__(self, database_url, cache_size=100):
        self.db = database_url
        self.cache = cache_size

@replace_me(since="2.0.0")
class UserService:
    def __init__(self, database_url, cache_size=50):
        self._manager = UserManager(database_url, cache_size * 2)

    def get_user(self, user_id):
        return self._manager.get_user(user_id)
`)
	libResult := marker.CollectFile("pkglib", lib)

	caller := parseOrFatal(t, "caller.py", `from pkglib import UserService

service = UserService("postgres://localhost")
admin_service = UserService("mysql://admin", cache_size=100)
`)

	rw := New(caller, libResult, nil)
	buf, applied := rw.Run(context.Background())

	if len(applied) != 2 {
		t.Fatalf("applied = %+v, want exactly two replacements", applied)
	}
	out := string(buf.Bytes())
	if !strings.Contains(out, `service = UserManager("postgres://localhost", 50 * 2)`) {
		t.Errorf("output does not substitute the defaulted cache_size argument:\n%s", out)
	}
	if !strings.Contains(out, `admin_service = UserManager("mysql://admin", 100 * 2)`) {
		t.Errorf("output does not substitute the explicit keyword argument:\n%s", out)
	}
	if strings.Contains(out, "UserService(") {
		t.Errorf("output still instantiates UserService:\n%s", out)
	}
}

func TestRewriterNoChangeWhenNothingMatches(t *testing.T) {
	lib := parseOrFatal(t, "pkglib.py", `
@replace_me(since="1.0")
def old_greet(name):
    return new_greet(name)
`)
	libResult := marker.CollectFile("pkglib", lib)

	caller := parseOrFatal(t, "caller.py", `def unrelated():
    return 1
`)

	rw := New(caller, libResult, nil)
	_, applied := rw.Run(context.Background())
	if len(applied) != 0 {
		t.Errorf("applied = %+v, want none", applied)
	}
	if len(rw.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", rw.Warnings)
	}
}
