package source

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ParseError reports that the input was not a well-formed program. The
// engine never attempts to repair a parse error; the offending file is
// simply skipped.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
}

// Parse parses text as a source file at path, returning a File whose Root
// preserves every byte of text as trivia-carrying leaves. It fails with a
// *ParseError if text is not syntactically valid; tree-sitter's own error
// recovery is treated as a hard failure here, since the engine never
// attempts to repair a parse error.
func Parse(path string, text []byte) (*File, error) {
	return ParseContext(context.Background(), path, text)
}

// ParseContext is Parse with cancellation: the context is checked before
// parsing starts and is then handed to tree-sitter's ParseCtx; there is no
// separate check after the parse returns.
func ParseContext(ctx context.Context, path string, text []byte) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, text)
	if err != nil {
		return nil, fmt.Errorf("%s: tree-sitter parse: %w", path, err)
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, &ParseError{Path: path, Line: 1, Column: 1, Message: "empty parse tree"}
	}

	if root.HasError() {
		bad := firstErrorNode(root)
		p := Position{Line: 1, Column: 1}
		msg := "syntax error"
		if bad != nil {
			pt := bad.StartPoint()
			p = Position{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
			if bad.IsMissing() {
				msg = fmt.Sprintf("missing %s", bad.Type())
			} else {
				msg = fmt.Sprintf("unexpected %q", string(text[bad.StartByte():min(bad.EndByte(), bad.StartByte()+40)]))
			}
		}
		tree.Close()
		return nil, &ParseError{Path: path, Line: p.Line, Column: p.Column, Message: msg}
	}

	return &File{Path: path, Text: text, Tree: tree}, nil
}

// firstErrorNode returns the first ERROR or MISSING node encountered in a
// pre-order walk of n, or nil if none is found (which should not happen
// when n.HasError() is true, but callers must tolerate it).
func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if c.HasError() {
			if found := firstErrorNode(c); found != nil {
				return found
			}
		}
	}
	return nil
}

func min(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
