package rewrite

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// shadowingBinder reports whether any node in ancestors (innermost first,
// stopping at the template's own root) is a lambda or comprehension that
// rebinds name — the case the Rewriter must leave alone: if a template
// contains lambda x: f(x) and the substitution binds x to some
// expression E, the result contains lambda x: f(x). It is also the
// mechanism behind the "context-sensitive replacement for
// comprehensions" supplemented feature: a comprehension's loop variable
// shadows a template parameter of the same name for every reference
// inside that comprehension, not just the loop target itself.
func shadowingBinder(text []byte, ancestors []*sitter.Node, name string) bool {
	for _, a := range ancestors {
		switch a.Type() {
		case "lambda":
			if lambdaBindsName(text, a, name) {
				return true
			}
		case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
			if comprehensionBindsName(text, a, name) {
				return true
			}
		}
	}
	return false
}

func lambdaBindsName(text []byte, lambda *sitter.Node, name string) bool {
	params := lambda.ChildByFieldName("parameters")
	if params == nil {
		return false
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		if paramBindsName(text, params.NamedChild(i), name) {
			return true
		}
	}
	return false
}

func comprehensionBindsName(text []byte, comp *sitter.Node, name string) bool {
	for i := 0; i < int(comp.NamedChildCount()); i++ {
		c := comp.NamedChild(i)
		if c.Type() != "for_in_clause" {
			continue
		}
		left := c.ChildByFieldName("left")
		if targetBindsName(text, left, name) {
			return true
		}
	}
	return false
}
