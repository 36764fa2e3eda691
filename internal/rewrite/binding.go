// Package rewrite implements the Call-site Rewriter: it walks a target
// file's CST, finds every call, attribute access, or instantiation whose
// symbol resolves to a known deprecation replacement, binds arguments to
// the replacement template's parameters, and splices the substituted
// expression back into the source.
package rewrite

import (
	sitter "github.com/smacker/go-tree-sitter"

	"dissolve.dev/dissolve/internal/marker"
)

// Bindings is the file-level name-binding table built once per file
// before any rewriting begins: which local names refer to imported
// deprecated symbols, and which local names are just module aliases that
// deprecated symbols can be reached through.
type Bindings struct {
	// ImportedNames maps a local name bound by "from X import name [as
	// alias]" to the ReplaceInfo it refers to.
	ImportedNames map[string]*marker.ReplaceInfo
	// ImportedModules maps a local module alias (from "import X" or
	// "import X as alias") to X's dotted module path.
	ImportedModules map[string]string
}

func newBindings() *Bindings {
	return &Bindings{
		ImportedNames:   map[string]*marker.ReplaceInfo{},
		ImportedModules: map[string]string{},
	}
}

// BuildBindings scans root's top-level import statements and resolves
// each imported name against result, so the Rewriter can later tell
// whether a bare identifier or a "mod.name" attribute access refers to a
// deprecated construct without invoking the Type Resolver.
func BuildBindings(text []byte, root *sitter.Node, result *marker.CollectionResult) *Bindings {
	b := newBindings()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "import_statement":
			collectImportStatement(text, stmt, b)
		case "import_from_statement":
			collectImportFromStatement(text, stmt, b, result)
		}
	}
	return b
}

func collectImportStatement(text []byte, stmt *sitter.Node, b *Bindings) {
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		c := stmt.NamedChild(i)
		switch c.Type() {
		case "dotted_name":
			path := nodeText(text, c)
			alias := lastDotComponent(path)
			b.ImportedModules[alias] = path
		case "aliased_import":
			nameNode := c.ChildByFieldName("name")
			aliasNode := c.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			b.ImportedModules[nodeText(text, aliasNode)] = nodeText(text, nameNode)
		}
	}
}

func collectImportFromStatement(text []byte, stmt *sitter.Node, b *Bindings, result *marker.CollectionResult) {
	moduleNode := stmt.ChildByFieldName("module_name")
	if moduleNode == nil || moduleNode.Type() != "dotted_name" {
		return
	}
	module := nodeText(text, moduleNode)

	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		c := stmt.NamedChild(i)
		if c == moduleNode {
			continue
		}
		switch c.Type() {
		case "dotted_name":
			simple := nodeText(text, c)
			bindImportedName(b, result, module, simple, simple)
		case "aliased_import":
			nameNode := c.ChildByFieldName("name")
			aliasNode := c.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			bindImportedName(b, result, module, nodeText(text, nameNode), nodeText(text, aliasNode))
		}
	}
}

func bindImportedName(b *Bindings, result *marker.CollectionResult, module, simple, alias string) {
	qualifiedName := module + "." + simple
	if info, ok := result.Replacements[qualifiedName]; ok {
		b.ImportedNames[alias] = info
	}
}

func lastDotComponent(s string) string {
	last := s
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[i+1:]
		}
	}
	return last
}

func nodeText(text []byte, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(text[n.StartByte():n.EndByte()])
}

// isNameShadowed reports whether an imported binding for name is
// unusable at the use node stack[0] because some enclosing scope rebinds
// it: an imported binding for name is only usable there if no enclosing
// scope, from the innermost function containing the use out to module
// scope, binds name itself before the use's position (function parameters
// count as bound for the entire body regardless of position; a later
// re-definition in the same scope does not retroactively shadow an
// earlier use).
func isNameShadowed(text []byte, stack []*sitter.Node, name string) bool {
	useOffset := stack[0].StartByte()
	for _, scope := range enclosingScopes(stack) {
		if scopeBindsName(text, scope, name, useOffset) {
			return true
		}
	}
	return false
}

// enclosingScopes returns, from stack (innermost-first ancestor chain
// including the use node itself), every function_definition body and the
// module root that encloses the use — the scope chain to check for
// shadowing.
func enclosingScopes(stack []*sitter.Node) []*sitter.Node {
	var scopes []*sitter.Node
	for _, n := range stack {
		switch n.Type() {
		case "function_definition":
			if body := n.ChildByFieldName("body"); body != nil {
				scopes = append(scopes, n)
			}
		case "module":
			scopes = append(scopes, n)
		}
	}
	return scopes
}

// scopeBindsName reports whether scope (a function_definition or module
// node) itself introduces a binding for name: as a declared parameter (if
// scope is a function), or via an assignment, for-target, or nested
// def/class at scope's own top level, occurring before useOffset. Import
// statements and with-statement "as" targets are not counted. Nested
// function/class bodies are not descended into, since they are separate
// scopes.
func scopeBindsName(text []byte, scope *sitter.Node, name string, useOffset uint32) bool {
	var body *sitter.Node
	if scope.Type() == "function_definition" {
		if params := scope.ChildByFieldName("parameters"); params != nil {
			for i := 0; i < int(params.NamedChildCount()); i++ {
				if paramBindsName(text, params.NamedChild(i), name) {
					return true
				}
			}
		}
		body = scope.ChildByFieldName("body")
	} else {
		body = scope
	}
	if body == nil {
		return false
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		if statementBindsName(text, body.NamedChild(i), name, useOffset) {
			return true
		}
	}
	return false
}

func paramBindsName(text []byte, p *sitter.Node, name string) bool {
	switch p.Type() {
	case "identifier":
		return nodeText(text, p) == name
	case "typed_parameter", "default_parameter", "typed_default_parameter", "list_splat_pattern", "dictionary_splat_pattern":
		id := firstIdentifierChild(p)
		return id != nil && nodeText(text, id) == name
	}
	return false
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

// statementBindsName recurses into control-flow bodies (if/for/while/try/
// with) that share the enclosing scope in Python, but not into nested
// function or class definitions. A binding only counts if it starts
// before useOffset, so a re-definition later in the same scope does not
// shadow a use that precedes it.
func statementBindsName(text []byte, stmt *sitter.Node, name string, useOffset uint32) bool {
	switch stmt.Type() {
	case "function_definition", "class_definition", "lambda":
		if stmt.StartByte() >= useOffset {
			return false
		}
		nameNode := stmt.ChildByFieldName("name")
		return nameNode != nil && nodeText(text, nameNode) == name
	case "assignment", "augmented_assignment":
		if stmt.StartByte() >= useOffset {
			return false
		}
		left := stmt.ChildByFieldName("left")
		return targetBindsName(text, left, name)
	case "for_statement":
		if stmt.StartByte() < useOffset {
			left := stmt.ChildByFieldName("left")
			if targetBindsName(text, left, name) {
				return true
			}
		}
		return bodyBindsName(text, stmt, name, useOffset)
	case "with_statement":
		return bodyBindsName(text, stmt, name, useOffset)
	case "expression_statement", "block":
		return bodyBindsName(text, stmt, name, useOffset)
	case "if_statement", "while_statement", "try_statement", "elif_clause", "else_clause", "except_clause", "finally_clause":
		return bodyBindsName(text, stmt, name, useOffset)
	case "import_statement", "import_from_statement":
		return false // an import re-binding the same name is a shadow only if it targets a different symbol; treated conservatively as not a shadow here since re-importing the same qualified name is a no-op in practice.
	}
	return false
}

func bodyBindsName(text []byte, n *sitter.Node, name string, useOffset uint32) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if statementBindsName(text, n.NamedChild(i), name, useOffset) {
			return true
		}
	}
	return false
}

func targetBindsName(text []byte, target *sitter.Node, name string) bool {
	if target == nil {
		return false
	}
	switch target.Type() {
	case "identifier":
		return nodeText(text, target) == name
	case "pattern_list", "tuple_pattern", "list_pattern":
		for i := 0; i < int(target.NamedChildCount()); i++ {
			if targetBindsName(text, target.NamedChild(i), name) {
				return true
			}
		}
	}
	return false
}
