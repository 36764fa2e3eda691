package cleanup

import (
	"strings"
	"testing"

	"dissolve.dev/dissolve/internal/marker"
	"dissolve.dev/dissolve/internal/source"
)

func TestModeSelects(t *testing.T) {
	cases := []struct {
		name string
		mode Mode
		info *marker.ReplaceInfo
		want bool
	}{
		{"all selects everything", Mode{All: true}, &marker.ReplaceInfo{}, true},
		{"before selects older since", Mode{Before: "2.0"}, &marker.ReplaceInfo{Since: "1.0"}, true},
		{"before rejects newer since", Mode{Before: "2.0"}, &marker.ReplaceInfo{Since: "3.0"}, false},
		{"before rejects empty since", Mode{Before: "2.0"}, &marker.ReplaceInfo{}, false},
		{"current-version selects reached remove_in", Mode{CurrentVersion: "2.0"}, &marker.ReplaceInfo{RemoveIn: "1.5"}, true},
		{"current-version rejects future remove_in", Mode{CurrentVersion: "1.0"}, &marker.ReplaceInfo{RemoveIn: "2.0"}, false},
		{"no mode selects nothing", Mode{}, &marker.ReplaceInfo{Since: "1.0", RemoveIn: "0.5"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.mode.Selects(c.info); got != c.want {
				t.Errorf("Selects() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestApplyRemovesWholeDecoratedDefinition(t *testing.T) {
	const src = `import os

@replace_me(since="1.0", remove_in="2.0")
def old():
    return new()


def keep():
    return os.getcwd()
`
	f, err := source.Parse("mod.py", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	result := marker.CollectFile("pkg.mod", f)

	buf, removed, err := Apply(f, result, Mode{All: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(removed) != 1 || removed[0].QualifiedName != "pkg.mod.old" {
		t.Fatalf("Removed = %+v, want one entry for pkg.mod.old", removed)
	}

	out := string(buf.Bytes())
	if strings.Contains(out, "def old") {
		t.Errorf("output still contains removed definition:\n%s", out)
	}
	if strings.Contains(out, "replace_me") {
		t.Errorf("output still contains the marker decorator:\n%s", out)
	}
	if !strings.Contains(out, "def keep") {
		t.Errorf("output lost the surviving definition:\n%s", out)
	}
}

func TestApplyLeavesUnselectedConstructs(t *testing.T) {
	const src = `
@replace_me(since="1.0", remove_in="9.0")
def old():
    return new()
`
	f, err := source.Parse("mod.py", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	result := marker.CollectFile("pkg.mod", f)

	_, removed, err := Apply(f, result, Mode{CurrentVersion: "1.0"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("Removed = %+v, want none (remove_in 9.0 not reached)", removed)
	}
}
