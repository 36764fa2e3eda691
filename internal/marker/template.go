package marker

import (
	sitter "github.com/smacker/go-tree-sitter"

	"dissolve.dev/dissolve/internal/source"
)

// extractParameters reads a function_definition's declared parameter list
// into ParameterInfo values, in declaration order. For methods the caller
// is responsible for treating parameter 0 (the receiver) specially when
// building call-site substitutions; it is recorded here like any other
// parameter.
func extractParameters(text []byte, def *sitter.Node) []ParameterInfo {
	paramList := def.ChildByFieldName("parameters")
	if paramList == nil {
		return nil
	}

	var out []ParameterInfo
	keywordOnly := false
	for i := 0; i < int(paramList.ChildCount()); i++ {
		p := paramList.Child(i)
		if p == nil {
			continue
		}
		switch p.Type() {
		case "*":
			keywordOnly = true
		case "/":
			// positional-only marker, no effect on KeywordOnly tracking
		case "identifier":
			out = append(out, ParameterInfo{Name: nodeText(text, p), KeywordOnly: keywordOnly})
		case "typed_parameter":
			name := firstIdentifierChild(p)
			out = append(out, ParameterInfo{Name: nodeText(text, name), KeywordOnly: keywordOnly})
		case "default_parameter":
			name := p.ChildByFieldName("name")
			value := p.ChildByFieldName("value")
			out = append(out, ParameterInfo{
				Name:              nodeText(text, name),
				HasDefault:        value != nil,
				DefaultSourceText: nodeText(text, value),
				KeywordOnly:       keywordOnly,
			})
		case "typed_default_parameter":
			name := p.ChildByFieldName("name")
			value := p.ChildByFieldName("value")
			out = append(out, ParameterInfo{
				Name:              nodeText(text, name),
				HasDefault:        value != nil,
				DefaultSourceText: nodeText(text, value),
				KeywordOnly:       keywordOnly,
			})
		case "list_splat_pattern":
			name := firstIdentifierChild(p)
			out = append(out, ParameterInfo{Name: nodeText(text, name), VariadicPositional: true})
			keywordOnly = true // everything after *args is keyword-only
		case "dictionary_splat_pattern":
			name := firstIdentifierChild(p)
			out = append(out, ParameterInfo{Name: nodeText(text, name), VariadicKeyword: true})
		}
	}
	return out
}

func firstIdentifierChild(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "identifier" {
			return c
		}
	}
	return nil
}

func nodeText(text []byte, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(text[n.StartByte():n.EndByte()])
}

// deriveTemplate applies the single-return-statement rule: a deprecated
// construct's body, after skipping a leading docstring, must consist of
// exactly one return statement with a value, and that value must not be a
// lambda or contain a recursive call back to the construct itself. On
// success it returns the returned expression node (rooted in the same tree
// as def); on failure it returns nil along with the reason.
func deriveTemplate(text []byte, def *sitter.Node, kind ConstructKind) (*sitter.Node, FailureReason, string) {
	body := def.ChildByFieldName("body")
	if body == nil {
		return nil, ReasonComplexBody, "definition has no body"
	}

	stmts := stripDocstring(source.TopLevelStatements(body))
	if len(stmts) == 0 {
		return nil, ReasonNoReturn, "body has no return statement"
	}
	if len(stmts) > 1 {
		return nil, ReasonComplexBody, "body must be a single return statement"
	}

	ret := stmts[0]
	if ret.Type() != "return_statement" {
		return nil, ReasonComplexBody, "body must be a single return statement"
	}
	if ret.NamedChildCount() == 0 {
		return nil, ReasonNoReturn, "return statement has no value"
	}
	value := ret.NamedChild(0)
	if value.Type() == "await" {
		if value.NamedChildCount() == 0 {
			return nil, ReasonComplexBody, "await expression has no operand"
		}
		value = value.NamedChild(0)
	}

	if value.Type() == "lambda" {
		return nil, ReasonLambda, "return value must not be a lambda"
	}

	simpleName := functionSimpleName(def, text)
	if containsRecursiveCall(text, value, simpleName) {
		return nil, ReasonRecursiveCall, "replacement body calls the deprecated construct itself"
	}

	return value, ReasonUnknown, ""
}

// stripDocstring drops a leading bare string-literal expression statement
// (a docstring) from a statement list.
func stripDocstring(stmts []*sitter.Node) []*sitter.Node {
	if len(stmts) == 0 {
		return stmts
	}
	first := stmts[0]
	if first.Type() == "expression_statement" && first.NamedChildCount() == 1 && first.NamedChild(0).Type() == "string" {
		return stmts[1:]
	}
	return stmts
}

// containsRecursiveCall reports whether expr contains a call to a function
// or method named simpleName — matched as a bare identifier call
// (simpleName(...)) or a self./cls. attribute call (self.simpleName(...)),
// since either form would make the return statement into an infinite
// substitution loop once rewritten call sites reference the same name.
func containsRecursiveCall(text []byte, expr *sitter.Node, simpleName string) bool {
	if simpleName == "" {
		return false
	}
	found := false
	source.Walk(expr, func(n *sitter.Node) bool {
		if found {
			return false
		}
		if n.Type() == "call" {
			fn := n.ChildByFieldName("function")
			if fn != nil {
				switch fn.Type() {
				case "identifier":
					if nodeText(text, fn) == simpleName {
						found = true
					}
				case "attribute":
					obj := fn.ChildByFieldName("object")
					attr := fn.ChildByFieldName("attribute")
					if attr != nil && nodeText(text, attr) == simpleName && obj != nil && obj.Type() == "identifier" {
						objName := nodeText(text, obj)
						if objName == "self" || objName == "cls" {
							found = true
						}
					}
				}
			}
		}
		return true
	})
	return found
}
