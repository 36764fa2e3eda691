// Package source implements the Source Model: parsing target-language text
// into a concrete syntax tree that preserves trivia, and reprinting that
// tree — after zero or more localized edits — back to text without
// disturbing any region that was not touched.
//
// The target language is Python 3.9+ syntax. Parsing is delegated to
// tree-sitter's Python grammar, whose nodes carry byte-accurate spans into
// the original source; unmodified regions are therefore reprinted by
// copying the original bytes verbatim, never by re-serializing a node.
package source

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// File is a parsed source file: the original bytes plus the tree-sitter
// tree over them. It is immutable; rewrites are recorded in a separate
// Buffer keyed to this File's byte offsets.
type File struct {
	Path string
	Text []byte
	Tree *sitter.Tree
}

// Root returns the file's root syntax node.
func (f *File) Root() *sitter.Node {
	return f.Tree.RootNode()
}

// Slice returns the raw source bytes spanned by n. Callers must not retain
// the slice past the next mutation of f.Text (File is otherwise immutable,
// so in practice the slice is safe for the lifetime of f).
func (f *File) Slice(n *sitter.Node) []byte {
	return f.Text[n.StartByte():n.EndByte()]
}

// Text of n as a string; equivalent to string(f.Slice(n)).
func (f *File) NodeText(n *sitter.Node) string {
	return string(f.Slice(n))
}

// Close releases the underlying tree-sitter tree. Safe to call on a nil
// receiver or an already-closed File.
func (f *File) Close() {
	if f != nil && f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

// Position is a 1-based line/column pair, in the style rsc.io/rf's
// token.Position addresses use, formatted as PATH:LINE:COLUMN.
type Position struct {
	Line   int
	Column int
}

// PositionAt converts a byte offset in f.Text into a 1-based line/column.
// It scans f.Text from the start on every call.
func (f *File) PositionAt(offset uint32) Position {
	line, col := 1, 1
	for i := uint32(0); i < offset && int(i) < len(f.Text); i++ {
		if f.Text[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Position{Line: line, Column: col}
}

// NodePosition returns the start position of n within f.
func (f *File) NodePosition(n *sitter.Node) Position {
	p := n.StartPoint()
	return Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}
