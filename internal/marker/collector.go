package marker

import (
	sitter "github.com/smacker/go-tree-sitter"

	"dissolve.dev/dissolve/internal/source"
)

// CollectFile runs the Collector over a single parsed file, without
// following any imports. moduleName is the dotted module path this file
// represents (e.g. "pkg.widgets"), used to build qualified names.
func CollectFile(moduleName string, file *source.File) *CollectionResult {
	result := newResult()
	walkStatements(result, file.Text, file, moduleName, "", source.TopLevelStatements(file.Root()))
	return result
}

// walkStatements processes one lexical scope's direct statements: either a
// module body (enclosingClass == "") or a class body (enclosingClass set to
// that class's qualified name).
func walkStatements(result *CollectionResult, text []byte, file *source.File, moduleName, enclosingClass string, stmts []*sitter.Node) {
	for _, stmt := range stmts {
		switch stmt.Type() {
		case "decorated_definition":
			def := stmt.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			marker := findMarkerDecorator(text, stmt)
			switch def.Type() {
			case "function_definition":
				handleFunctionDef(result, text, file, moduleName, enclosingClass, stmt, def, marker)
			case "class_definition":
				handleClassDef(result, text, file, moduleName, enclosingClass, stmt, def, marker)
			}
		case "function_definition":
			handleFunctionDef(result, text, file, moduleName, enclosingClass, stmt, stmt, nil)
		case "class_definition":
			handleClassDef(result, text, file, moduleName, enclosingClass, stmt, stmt, nil)
		case "expression_statement":
			handleAssignment(result, text, file, moduleName, enclosingClass, stmt)
		}
	}
}

// buildQualifiedName joins a module path, an optional enclosing class
// qualified name, and a simple name into a dotted qualified name.
func buildQualifiedName(moduleName, enclosingClass, simpleName string) string {
	if enclosingClass != "" {
		return enclosingClass + "." + simpleName
	}
	if moduleName != "" {
		return moduleName + "." + simpleName
	}
	return simpleName
}

func functionSimpleName(def *sitter.Node, text []byte) string {
	name := def.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	return string(text[name.StartByte():name.EndByte()])
}

func isAsyncDef(def *sitter.Node) bool {
	for i := 0; i < int(def.ChildCount()); i++ {
		c := def.Child(i)
		if c == nil {
			continue
		}
		if c.Type() == "async" {
			return true
		}
		if c.Type() == "def" {
			// "async" always precedes "def" if present; once we reach
			// "def" without having seen "async" there is none.
			return false
		}
	}
	return false
}

func methodKind(text []byte, decorated, def *sitter.Node) ConstructKind {
	if decorated == nil {
		if isAsyncDef(def) {
			return KindAsyncFunction
		}
		return KindInstanceMethod
	}
	switch {
	case hasDecoratorNamed(text, decorated, "staticmethod"):
		return KindStaticMethod
	case hasDecoratorNamed(text, decorated, "classmethod"):
		return KindClassMethod
	case hasDecoratorNamed(text, decorated, "property"):
		return KindProperty
	default:
		return KindInstanceMethod
	}
}

// handleFunctionDef processes a def/async def statement, which may or may
// not carry the deprecation marker, at module or class scope. decorated is
// the enclosing decorated_definition node if any decorators are present,
// used only to inspect decorators other than the marker itself.
func handleFunctionDef(result *CollectionResult, text []byte, file *source.File, moduleName, enclosingClass string, defNode, def, markerCall *sitter.Node) {
	if markerCall == nil {
		return
	}

	simpleName := functionSimpleName(def, text)
	if simpleName == "" {
		return
	}

	var kind ConstructKind
	var decorated *sitter.Node
	if defNode.Type() == "decorated_definition" {
		decorated = defNode
	}
	if enclosingClass != "" {
		kind = methodKind(text, decorated, def)
	} else if isAsyncDef(def) {
		kind = KindAsyncFunction
	} else {
		kind = KindFreeFunction
	}

	qualifiedName := buildQualifiedName(moduleName, enclosingClass, simpleName)
	args := parseMarkerArgs(text, markerCall)
	if args.Dynamic {
		result.Unreplaceable[qualifiedName] = &UnreplaceableConstruct{
			QualifiedName: qualifiedName,
			Kind:          kind,
			Reason:        ReasonDynamicMarkerArgs,
			Message:       "replace_me() arguments must be literal strings",
		}
		return
	}

	params := extractParameters(text, def)
	tmpl, reason, msg := deriveTemplate(text, def, kind)
	if tmpl == nil {
		result.Unreplaceable[qualifiedName] = &UnreplaceableConstruct{
			QualifiedName: qualifiedName,
			Kind:          kind,
			Reason:        reason,
			Message:       msg,
		}
		return
	}

	result.Replacements[qualifiedName] = &ReplaceInfo{
		QualifiedName:  qualifiedName,
		SimpleName:     simpleName,
		Kind:           kind,
		Parameters:     params,
		Template:       tmpl,
		TemplateFile:   text,
		Since:          args.Since,
		RemoveIn:       args.RemoveIn,
		Message:        args.Message,
		DeclaringClass: enclosingClass,
		DefNode:        defNode,
		DefFile:        file.Path,
	}
}

// handleClassDef records inheritance for every class encountered (needed
// for subclass-aware call-site resolution regardless of whether the class
// itself is deprecated), then, if the class carries the marker, derives a
// class-wrapper replacement, and finally recurses into the class body as
// a class scope.
func handleClassDef(result *CollectionResult, text []byte, file *source.File, moduleName, enclosingClass string, defNode, def, markerCall *sitter.Node) {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	className := string(text[nameNode.StartByte():nameNode.EndByte()])
	qualifiedName := buildQualifiedName(moduleName, enclosingClass, className)

	result.Inheritance[qualifiedName] = qualifyBaseNames(moduleName, extractBaseNames(text, def))

	if markerCall != nil {
		args := parseMarkerArgs(text, markerCall)
		switch {
		case args.Dynamic:
			result.Unreplaceable[qualifiedName] = &UnreplaceableConstruct{
				QualifiedName: qualifiedName,
				Kind:          KindClass,
				Reason:        ReasonDynamicMarkerArgs,
				Message:       "replace_me() arguments must be literal strings",
			}
		default:
			tmpl, params, reason, msg := deriveClassTemplate(text, def)
			if tmpl == nil {
				result.Unreplaceable[qualifiedName] = &UnreplaceableConstruct{
					QualifiedName: qualifiedName,
					Kind:          KindClass,
					Reason:        reason,
					Message:       msg,
				}
			} else {
				result.Replacements[qualifiedName] = &ReplaceInfo{
					QualifiedName:  qualifiedName,
					SimpleName:     className,
					Kind:           KindClass,
					Parameters:     params,
					Template:       tmpl,
					TemplateFile:   text,
					Since:          args.Since,
					RemoveIn:       args.RemoveIn,
					Message:        args.Message,
					DeclaringClass: enclosingClass,
					DefNode:        defNode,
					DefFile:        file.Path,
				}
			}
		}
	}

	body := def.ChildByFieldName("body")
	if body != nil {
		walkStatements(result, text, file, moduleName, qualifiedName, source.TopLevelStatements(body))
	}
}

// handleAssignment processes NAME = replace_me(VALUE) at module or class
// scope: the module- or class-attribute deprecation form.
func handleAssignment(result *CollectionResult, text []byte, file *source.File, moduleName, enclosingClass string, exprStmt *sitter.Node) {
	if exprStmt.NamedChildCount() == 0 {
		return
	}
	assign := exprStmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return
	}
	left := assign.ChildByFieldName("left")
	right := assign.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "identifier" {
		return
	}
	call := asMarkerCall(text, right)
	if call == nil {
		return
	}

	name := string(text[left.StartByte():left.EndByte()])
	qualifiedName := buildQualifiedName(moduleName, enclosingClass, name)
	kind := KindModuleAttribute
	if enclosingClass != "" {
		kind = KindClassAttribute
	}

	args := parseMarkerArgs(text, call)
	switch {
	case args.Dynamic:
		result.Unreplaceable[qualifiedName] = &UnreplaceableConstruct{
			QualifiedName: qualifiedName,
			Kind:          kind,
			Reason:        ReasonDynamicMarkerArgs,
			Message:       "replace_me() arguments must be literal strings",
		}
	case args.Value == nil:
		result.Unreplaceable[qualifiedName] = &UnreplaceableConstruct{
			QualifiedName: qualifiedName,
			Kind:          kind,
			Reason:        ReasonUnknown,
			Message:       "replace_me() needs a replacement value for an attribute deprecation",
		}
	default:
		result.Replacements[qualifiedName] = &ReplaceInfo{
			QualifiedName:  qualifiedName,
			SimpleName:     name,
			Kind:           kind,
			Template:       args.Value,
			TemplateFile:   text,
			Since:          args.Since,
			RemoveIn:       args.RemoveIn,
			Message:        args.Message,
			DeclaringClass: enclosingClass,
			DefNode:        exprStmt,
			DefFile:        file.Path,
		}
	}
}
