package rewrite

import (
	sitter "github.com/smacker/go-tree-sitter"

	"dissolve.dev/dissolve/internal/source"
)

// magicBuiltins is the fixed set of dunder-dispatching builtins, mapped
// to the dunder method they dispatch to.
var magicBuiltins = map[string]string{
	"str":   "__str__",
	"repr":  "__repr__",
	"len":   "__len__",
	"bool":  "__bool__",
	"int":   "__int__",
	"float": "__float__",
	"bytes": "__bytes__",
	"hash":  "__hash__",
	"iter":  "__iter__",
	"next":  "__next__",
}

// magicCallSite reports whether call is g(e, ...) for a builtin g in
// magicBuiltins, and if so returns the dunder method name it dispatches
// to, the receiver argument e, and any remaining arguments (e.g. int's
// optional base).
func magicCallSite(text []byte, call *sitter.Node) (dunder string, receiver *sitter.Node, extra []*sitter.Node, ok bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return "", nil, nil, false
	}
	d, isMagic := magicBuiltins[nodeText(text, fn)]
	if !isMagic {
		return "", nil, nil, false
	}
	argList := call.ChildByFieldName("arguments")
	if argList == nil || argList.NamedChildCount() == 0 {
		return "", nil, nil, false
	}
	receiver = argList.NamedChild(0)
	for i := 1; i < int(argList.NamedChildCount()); i++ {
		extra = append(extra, argList.NamedChild(i))
	}
	return d, receiver, extra, true
}

// isSimpleExpression reports whether n is safe to duplicate textually
// without risk of running a side effect twice: a bare name or a chain of
// attribute accesses on one, but never something containing a call or
// subscript.
func isSimpleExpression(n *sitter.Node) bool {
	switch n.Type() {
	case "identifier":
		return true
	case "attribute":
		obj := n.ChildByFieldName("object")
		return obj != nil && isSimpleExpression(obj)
	default:
		return false
	}
}

// countFreeReferences counts occurrences of name as a free identifier
// (not a declaration occurrence, not hygienically shadowed) within
// template, used to enforce a refusal to rewrite magic methods whose
// receiver would be evaluated more than once with side effects.
func countFreeReferences(templateText []byte, template *sitter.Node, name string) int {
	count := 0
	source.WalkStack(template, func(stack []*sitter.Node) {
		node := stack[0]
		if node.Type() != "identifier" || nodeText(templateText, node) != name {
			return
		}
		var parent *sitter.Node
		if len(stack) > 1 {
			parent = stack[1]
		}
		if isDeclarationOccurrence(node, parent) {
			return
		}
		if len(stack) > 1 && shadowingBinder(templateText, stack[1:], name) {
			return
		}
		count++
	})
	return count
}
