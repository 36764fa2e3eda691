package rewrite

import (
	"bytes"
	"strings"
	"testing"
)

func TestStdinPrompterDecisions(t *testing.T) {
	cases := []struct {
		input string
		want  Decision
	}{
		{"y\n", DecisionApply},
		{"yes\n", DecisionApply},
		{"n\n", DecisionSkip},
		{"a\n", DecisionApplyAll},
		{"q\n", DecisionAbort},
		{"\n", DecisionSkip},
	}
	for _, c := range cases {
		var out bytes.Buffer
		p := NewStdinPrompter(strings.NewReader(c.input), &out)
		if got := p.Prompt("f.py", 1, 1, "old", "new"); got != c.want {
			t.Errorf("Prompt() with input %q = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestStdinPrompterAbortsOnEOF(t *testing.T) {
	var out bytes.Buffer
	p := NewStdinPrompter(strings.NewReader(""), &out)
	if got := p.Prompt("f.py", 1, 1, "old", "new"); got != DecisionAbort {
		t.Errorf("Prompt() on EOF = %v, want DecisionAbort", got)
	}
}
