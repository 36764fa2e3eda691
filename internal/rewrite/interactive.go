package rewrite

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Decision is the outcome of prompting the user about one applied
// replacement in interactive mode.
type Decision int

const (
	DecisionApply Decision = iota
	DecisionSkip
	DecisionApplyAll
	DecisionAbort
)

// Prompter asks whether to apply one replacement. Prompting happens in
// lexical source order, one call per candidate site.
type Prompter interface {
	Prompt(file string, line, column int, oldText, newText string) Decision
}

// StdinPrompter is the --interactive backend: it renders
// "{file}:{line}:{column} replace {old} with {new}?" and reads a single
// y/n/a/q answer from in.
type StdinPrompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func NewStdinPrompter(in io.Reader, out io.Writer) *StdinPrompter {
	return &StdinPrompter{scanner: bufio.NewScanner(in), out: out}
}

func (p *StdinPrompter) Prompt(file string, line, column int, oldText, newText string) Decision {
	fmt.Fprintf(p.out, "%s:%d:%d replace %s with %s? [y,n,a,q] ", file, line, column, oldText, newText)
	if !p.scanner.Scan() {
		return DecisionAbort
	}
	switch strings.ToLower(strings.TrimSpace(p.scanner.Text())) {
	case "y", "yes":
		return DecisionApply
	case "a", "all":
		return DecisionApplyAll
	case "q", "quit":
		return DecisionAbort
	default:
		return DecisionSkip
	}
}
