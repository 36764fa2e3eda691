package source

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Walk performs a pre-order traversal of n, calling visit for every node
// including n itself. If visit returns false, n's children are skipped.
// A single tree-walker parameterized by a visit-callback is sufficient
// for every consumer in this package, generalized from
// rsc.io/rf/refactor.Walk to tree-sitter nodes.
func Walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), visit)
	}
}

// WalkStack is Walk but passes the full ancestor chain (innermost first,
// terminating at n) to visit, mirroring rsc.io/rf/refactor.Walk's
// stack-based callback shape. It is used wherever a rewrite needs to know
// a node's enclosing statement or block, not just the node itself.
func WalkStack(n *sitter.Node, visit func(stack []*sitter.Node)) {
	var walk func(n *sitter.Node, stack []*sitter.Node)
	walk = func(n *sitter.Node, stack []*sitter.Node) {
		if n == nil {
			return
		}
		stack = append([]*sitter.Node{n}, stack...)
		visit(stack)
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), stack)
		}
	}
	walk(n, nil)
}

// NodeAt returns the innermost node in n's subtree whose byte range
// contains offset, along with its full ancestor stack (innermost first).
// It mirrors rsc.io/rf/refactor.Snapshot.SyntaxAt.
func NodeAt(root *sitter.Node, offset uint32) []*sitter.Node {
	var stack []*sitter.Node
	var descend func(n *sitter.Node)
	descend = func(n *sitter.Node) {
		if n == nil || offset < n.StartByte() || n.EndByte() <= offset {
			return
		}
		stack = append(stack, n)
		for i := 0; i < int(n.ChildCount()); i++ {
			descend(n.Child(i))
		}
	}
	descend(root)
	// Reverse so index 0 is innermost.
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	return stack
}

// NamedChildren returns n's named (non-trivia) children in order.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// TopLevelStatements returns the direct statement children of a module or
// block node.
func TopLevelStatements(block *sitter.Node) []*sitter.Node {
	return NamedChildren(block)
}
