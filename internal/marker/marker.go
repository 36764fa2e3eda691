package marker

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// markerName is the deprecation marker's spelled name: a decorator or
// function call named replace_me.
const markerName = "replace_me"

// markerArgs is the literal-only evaluation of a replace_me(...) call's
// keyword arguments.
type markerArgs struct {
	Since    string
	RemoveIn string
	Message  string
	Dynamic  bool // true if any argument was not a literal
	Value    *sitter.Node // for attribute deprecation: the single positional value argument
}

// isMarkerCallee reports whether fn (a call's "function" field) refers to
// the deprecation marker by name. It matches a bare identifier
// ("replace_me") or a dotted/attribute access whose last segment is
// "replace_me" (e.g. "dissolve.replace_me"), since full name-binding
// resolution of the marker's origin is the Rewriter's job, not the
// Collector's — the Collector only needs to recognize the pattern.
func isMarkerCallee(text []byte, fn *sitter.Node) bool {
	if fn == nil {
		return false
	}
	switch fn.Type() {
	case "identifier":
		return string(text[fn.StartByte():fn.EndByte()]) == markerName
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		if attr == nil {
			return false
		}
		return string(text[attr.StartByte():attr.EndByte()]) == markerName
	default:
		return false
	}
}

// asMarkerCall returns n if n is a call to the deprecation marker,
// otherwise nil.
func asMarkerCall(text []byte, n *sitter.Node) *sitter.Node {
	if n == nil || n.Type() != "call" {
		return nil
	}
	if isMarkerCallee(text, n.ChildByFieldName("function")) {
		return n
	}
	return nil
}

// parseMarkerArgs evaluates the arguments of a replace_me(...) call node
// (call.Type() == "call") by literal-only evaluation: since, remove_in,
// and message must be string literals; a bare value positional argument
// (attribute-deprecation form) is captured as Value. Any keyword argument
// whose value is not a string literal sets Dynamic.
func parseMarkerArgs(text []byte, call *sitter.Node) markerArgs {
	var out markerArgs
	argList := call.ChildByFieldName("arguments")
	if argList == nil {
		return out
	}
	posIndex := 0
	for i := 0; i < int(argList.NamedChildCount()); i++ {
		arg := argList.NamedChild(i)
		switch arg.Type() {
		case "keyword_argument":
			nameNode := arg.ChildByFieldName("name")
			valNode := arg.ChildByFieldName("value")
			if nameNode == nil || valNode == nil {
				out.Dynamic = true
				continue
			}
			name := string(text[nameNode.StartByte():nameNode.EndByte()])
			lit, ok := stringLiteralValue(text, valNode)
			if !ok {
				out.Dynamic = true
				continue
			}
			switch name {
			case "since":
				out.Since = lit
			case "remove_in":
				out.RemoveIn = lit
			case "message":
				out.Message = lit
			default:
				// Unknown keyword: tolerated, ignored.
			}
		case "comment":
			// trivia between arguments
		default:
			// Positional argument: only meaningful for attribute
			// deprecation (NAME = replace_me(VALUE)), where it is an
			// arbitrary expression, not necessarily a literal.
			if posIndex == 0 {
				out.Value = arg
			}
			posIndex++
		}
	}
	return out
}

// stringLiteralValue returns the unquoted value of n if n is a string
// literal, and ok=false otherwise (including for f-strings, which are not
// considered literal here since their contents are not statically known).
func stringLiteralValue(text []byte, n *sitter.Node) (string, bool) {
	if n == nil || n.Type() != "string" {
		return "", false
	}
	raw := string(text[n.StartByte():n.EndByte()])
	return unquotePythonString(raw), true
}

// unquotePythonString strips a Python string literal's quote delimiters
// (including triple-quoted and prefix characters such as r/b/u) without
// interpreting escape sequences beyond what strconv.Unquote handles for
// the common single/double quoted case; triple-quoted literals have their
// outer quotes stripped only.
func unquotePythonString(raw string) string {
	s := raw
	// Strip a string prefix (r, b, u, f and combinations), case-insensitively.
	i := 0
	for i < len(s) && s[i] != '\'' && s[i] != '"' {
		i++
	}
	prefix := strings.ToLower(s[:i])
	body := s[i:]

	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(body, q) && strings.HasSuffix(body, q) && len(body) >= 2*len(q) {
			return body[len(q) : len(body)-len(q)]
		}
	}
	if strings.Contains(prefix, "r") {
		if len(body) >= 2 {
			return body[1 : len(body)-1]
		}
		return body
	}
	if unq, err := strconv.Unquote(body); err == nil {
		return unq
	}
	if len(body) >= 2 {
		return body[1 : len(body)-1]
	}
	return body
}

// decoratorsOf returns the decorator expression nodes attached to a
// decorated_definition node, in source order.
func decoratorsOf(decorated *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		c := decorated.NamedChild(i)
		if c.Type() == "decorator" {
			// A decorator node wraps "@" + expression; the expression is
			// its sole named child.
			if c.NamedChildCount() > 0 {
				out = append(out, c.NamedChild(0))
			}
		}
	}
	return out
}

// findMarkerDecorator returns the first decorator expression in decorated
// that is a call to the deprecation marker, or nil.
func findMarkerDecorator(text []byte, decorated *sitter.Node) *sitter.Node {
	for _, d := range decoratorsOf(decorated) {
		if call := asMarkerCall(text, d); call != nil {
			return call
		}
	}
	return nil
}

// IsMarkerDecorator reports whether decorator (a "decorator" node, the "@"
// + expression wrapper) applies the deprecation marker. Exported for
// migrate's --strip-markers pass in internal/driver, which deletes a
// construct's own marker decorator after a call site referencing it has
// been rewritten.
func IsMarkerDecorator(text []byte, decorator *sitter.Node) bool {
	if decorator.NamedChildCount() == 0 {
		return false
	}
	return asMarkerCall(text, decorator.NamedChild(0)) != nil
}

// hasDecoratorNamed reports whether any decorator on decorated is a bare
// identifier or attribute access with the given simple name (used to spot
// @classmethod / @staticmethod / @property).
func hasDecoratorNamed(text []byte, decorated *sitter.Node, name string) bool {
	for _, d := range decoratorsOf(decorated) {
		switch d.Type() {
		case "identifier":
			if string(text[d.StartByte():d.EndByte()]) == name {
				return true
			}
		case "attribute":
			attr := d.ChildByFieldName("attribute")
			if attr != nil && string(text[attr.StartByte():attr.EndByte()]) == name {
				return true
			}
		}
	}
	return false
}
