package marker

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"dissolve.dev/dissolve/internal/source"
)

// extractBaseNames returns the dotted names of a class definition's direct
// base classes, in declaration order, skipping keyword arguments in the
// base-class list such as metaclass=... .
func extractBaseNames(text []byte, classDef *sitter.Node) []string {
	bases := classDef.ChildByFieldName("superclasses")
	if bases == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(bases.NamedChildCount()); i++ {
		c := bases.NamedChild(i)
		switch c.Type() {
		case "identifier", "attribute":
			out = append(out, nodeText(text, c))
		}
	}
	return out
}

// qualifyBaseNames resolves each of a class's declared base names to the
// qualified form CollectionResult.Inheritance and .Replacements key by:
// a bare name (no dot) is assumed to name a class in the same module,
// since that is what Python's own name resolution does for an
// unqualified base in a class statement; a dotted name (already an
// attribute access, e.g. "othermod.Base") is left as-is, since it was
// already written qualified by the source's own module alias.
func qualifyBaseNames(moduleName string, bases []string) []string {
	if len(bases) == 0 {
		return nil
	}
	out := make([]string, len(bases))
	for i, b := range bases {
		if strings.Contains(b, ".") || moduleName == "" {
			out[i] = b
			continue
		}
		out[i] = moduleName + "." + b
	}
	return out
}

// deriveClassTemplate implements the class-wrapper deprecation form: a
// deprecated class whose __init__ does nothing but delegate to another
// class, e.g.
//
//	@replace_me(since="2.0.0")
//	class UserService:
//	    def __init__(self, database_url, cache_size=50):
//	        self._manager = UserManager(database_url, cache_size * 2)
//
// The class need not declare any base class at all — what makes it a
// wrapper is that every statement in __init__'s body is a self.attr =
// value assignment and exactly one of them assigns a call to another
// constructor (as self._manager does above). The delegating call
// expression becomes the substitution template, so
// UserService("postgres://localhost") rewrites to
// UserManager("postgres://localhost") with __init__'s own parameters
// (skipping the receiver) bound the same way a function's are.
func deriveClassTemplate(text []byte, classDef *sitter.Node) (*sitter.Node, []ParameterInfo, FailureReason, string) {
	initDef := findInitMethod(text, classDef)
	if initDef == nil {
		return nil, nil, ReasonComplexBody, "deprecated class has no __init__ to derive a delegating call from"
	}

	body := initDef.ChildByFieldName("body")
	if body == nil {
		return nil, nil, ReasonComplexBody, "__init__ has no body"
	}

	var call *sitter.Node
	for _, stmt := range stripDocstring(source.TopLevelStatements(body)) {
		assign, ok := selfAttributeAssignment(text, stmt)
		if !ok {
			return nil, nil, ReasonComplexBody, "__init__ must contain only self attribute assignments"
		}
		right := assign.ChildByFieldName("right")
		if right == nil || right.Type() != "call" {
			continue
		}
		if call != nil {
			return nil, nil, ReasonComplexBody, "__init__ delegates to more than one call"
		}
		call = right
	}
	if call == nil {
		return nil, nil, ReasonComplexBody, "__init__ contains no delegating call"
	}

	params := extractParameters(text, initDef)
	if len(params) > 0 {
		params = params[1:] // drop the receiver
	}

	return call, params, ReasonUnknown, ""
}

// findInitMethod returns classDef's own __init__ method, unwrapping a
// decorated_definition if present, or nil if it has none.
func findInitMethod(text []byte, classDef *sitter.Node) *sitter.Node {
	body := classDef.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	for _, stmt := range source.TopLevelStatements(body) {
		def := stmt
		if def.Type() == "decorated_definition" {
			def = def.ChildByFieldName("definition")
			if def == nil {
				continue
			}
		}
		if def.Type() != "function_definition" {
			continue
		}
		if functionSimpleName(def, text) == "__init__" {
			return def
		}
	}
	return nil
}

// selfAttributeAssignment reports whether stmt is an expression statement
// of the form self.<attr> = <expr>, returning the assignment node itself.
func selfAttributeAssignment(text []byte, stmt *sitter.Node) (*sitter.Node, bool) {
	if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
		return nil, false
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return nil, false
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "attribute" {
		return nil, false
	}
	obj := left.ChildByFieldName("object")
	if obj == nil || obj.Type() != "identifier" || string(text[obj.StartByte():obj.EndByte()]) != "self" {
		return nil, false
	}
	return assign, true
}
