package rewrite

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"dissolve.dev/dissolve/internal/marker"
	"dissolve.dev/dissolve/internal/source"
	"dissolve.dev/dissolve/internal/typeresolve"
)

// AppliedReplacement records one substitution the Rewriter actually made,
// for the Driver's report and for a later --strip-markers pass.
type AppliedReplacement struct {
	Line, Column int
	OldText      string
	NewText      string
	Info         *marker.ReplaceInfo
}

// Rewriter walks one file's CST looking for call, attribute-access, and
// instantiation sites whose symbol resolves to a ReplaceInfo in Result,
// and queues each successful substitution into a source.Buffer.
type Rewriter struct {
	File     *source.File
	Result   *marker.CollectionResult
	Bindings *Bindings
	Resolver *typeresolve.FileSession
	Prompter Prompter // nil: apply every candidate without asking

	// Warnings accumulates BindingError-equivalent messages for sites
	// that were identified but could not be bound; the Driver surfaces
	// these without aborting the file.
	Warnings []string
}

// New builds a Rewriter for file, deriving its name-binding table from
// file's own imports against result.
func New(file *source.File, result *marker.CollectionResult, resolver *typeresolve.FileSession) *Rewriter {
	return &Rewriter{
		File:     file,
		Result:   result,
		Bindings: BuildBindings(file.Text, file.Root(), result),
		Resolver: resolver,
	}
}

// Run walks the file once, in source order, and returns a Buffer with
// every accepted replacement queued plus the list of what was applied.
// A DecisionAbort from the Prompter stops further sites from being
// considered but does not undo replacements already queued.
func (rw *Rewriter) Run(ctx context.Context) (*source.Buffer, []AppliedReplacement) {
	buf := source.NewBuffer(rw.File.Text)
	var applied []AppliedReplacement
	applyAll := false
	aborted := false

	handled := map[*sitter.Node]bool{}

	source.WalkStack(rw.File.Root(), func(stack []*sitter.Node) {
		if aborted {
			return
		}
		node := stack[0]
		switch node.Type() {
		case "call":
			rw.handleCall(ctx, stack, handled, buf, &applied, &applyAll, &aborted)
		case "identifier":
			rw.handleBareIdentifier(stack, handled, buf, &applied, &applyAll, &aborted)
		case "attribute":
			rw.handleAttributeAccess(ctx, stack, handled, buf, &applied, &applyAll, &aborted)
		}
	})

	return buf, applied
}

func (rw *Rewriter) text() []byte { return rw.File.Text }

func (rw *Rewriter) handleCall(ctx context.Context, stack []*sitter.Node, handled map[*sitter.Node]bool, buf *source.Buffer, applied *[]AppliedReplacement, applyAll, aborted *bool) {
	call := stack[0]
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return
	}
	handled[fn] = true

	if dunder, receiver, extra, ok := magicCallSite(rw.text(), call); ok {
		rw.tryMagicRewrite(ctx, call, dunder, receiver, extra, buf, applied, applyAll, aborted)
		return
	}

	if info, ok := rw.resolveDirectCallee(stack, fn); ok {
		rw.tryApply(call, call, info, "", false, buf, applied, applyAll, aborted)
		return
	}

	if fn.Type() == "attribute" && rw.Resolver != nil {
		obj := fn.ChildByFieldName("object")
		attr := fn.ChildByFieldName("attribute")
		if obj != nil && attr != nil {
			class, ok := rw.Resolver.Resolve(ctx, obj.StartByte(), nodeText(rw.text(), obj))
			if ok {
				methodName := nodeText(rw.text(), attr)
				if info, ok2 := marker.ResolveMember(rw.Result, class, methodName); ok2 && isCallableMethodKind(info.Kind) {
					rw.tryApply(call, call, info, nodeText(rw.text(), obj), true, buf, applied, applyAll, aborted)
				}
			}
		}
	}
}

// resolveDirectCallee implements the "Direct call" case: fn is either a
// bare identifier bound by an import or naming a deprecated module-level
// construct defined in this same file, or a module-qualified attribute
// (mod.name()) where mod is an import alias.
func (rw *Rewriter) resolveDirectCallee(stack []*sitter.Node, fn *sitter.Node) (*marker.ReplaceInfo, bool) {
	text := rw.text()
	switch fn.Type() {
	case "identifier":
		name := nodeText(text, fn)
		info, ok := rw.Bindings.ImportedNames[name]
		if !ok {
			for _, r := range rw.Result.Replacements {
				if r.DefFile == rw.File.Path && r.DeclaringClass == "" && r.SimpleName == name {
					info, ok = r, true
					break
				}
			}
		}
		if !ok || !isDirectlyCallableKind(info.Kind) {
			return nil, false
		}
		if isNameShadowed(text, stack, name) {
			return nil, false
		}
		return info, true
	case "attribute":
		obj := fn.ChildByFieldName("object")
		attr := fn.ChildByFieldName("attribute")
		if obj == nil || attr == nil || obj.Type() != "identifier" {
			return nil, false
		}
		alias := nodeText(text, obj)
		modPath, ok := rw.Bindings.ImportedModules[alias]
		if !ok || isNameShadowed(text, stack, alias) {
			return nil, false
		}
		qualifiedName := modPath + "." + nodeText(text, attr)
		info, ok2 := rw.Result.Replacements[qualifiedName]
		if !ok2 || !isDirectlyCallableKind(info.Kind) {
			return nil, false
		}
		return info, true
	}
	return nil, false
}

func isDirectlyCallableKind(k marker.ConstructKind) bool {
	return k == marker.KindFreeFunction || k == marker.KindAsyncFunction || k == marker.KindClass
}

func isCallableMethodKind(k marker.ConstructKind) bool {
	return k == marker.KindInstanceMethod || k == marker.KindClassMethod || k == marker.KindStaticMethod
}

// handleBareIdentifier covers a name imported straight from a deprecated
// module/class attribute, used as a plain value rather than as a call.
func (rw *Rewriter) handleBareIdentifier(stack []*sitter.Node, handled map[*sitter.Node]bool, buf *source.Buffer, applied *[]AppliedReplacement, applyAll, aborted *bool) {
	node := stack[0]
	if handled[node] {
		return
	}
	var parent *sitter.Node
	if len(stack) > 1 {
		parent = stack[1]
	}
	if !isBareValueUse(node, parent) {
		return
	}
	text := rw.text()
	name := nodeText(text, node)
	info, ok := rw.Bindings.ImportedNames[name]
	if !ok || (info.Kind != marker.KindModuleAttribute && info.Kind != marker.KindClassAttribute) {
		return
	}
	if isNameShadowed(text, stack, name) {
		return
	}
	rw.applyBareTemplate(node, info, buf, applied, applyAll, aborted)
}

// handleAttributeAccess covers "e.a" / "M.A" attribute reads that are
// not part of a call already handled at the "call" level.
func (rw *Rewriter) handleAttributeAccess(ctx context.Context, stack []*sitter.Node, handled map[*sitter.Node]bool, buf *source.Buffer, applied *[]AppliedReplacement, applyAll, aborted *bool) {
	node := stack[0]
	if handled[node] {
		return
	}
	var parent *sitter.Node
	if len(stack) > 1 {
		parent = stack[1]
	}
	if parent != nil && parent.Type() == "call" && parent.ChildByFieldName("function") == node {
		return
	}

	text := rw.text()
	obj := node.ChildByFieldName("object")
	attr := node.ChildByFieldName("attribute")
	if obj == nil || attr == nil {
		return
	}
	attrName := nodeText(text, attr)

	if obj.Type() == "identifier" {
		alias := nodeText(text, obj)
		if modPath, ok := rw.Bindings.ImportedModules[alias]; ok && !isNameShadowed(text, stack, alias) {
			qualifiedName := modPath + "." + attrName
			if info, ok2 := rw.Result.Replacements[qualifiedName]; ok2 && info.Kind == marker.KindModuleAttribute {
				rw.applyBareTemplate(node, info, buf, applied, applyAll, aborted)
				return
			}
		}
	}

	if rw.Resolver != nil {
		class, ok := rw.Resolver.Resolve(ctx, obj.StartByte(), nodeText(text, obj))
		if ok {
			if info, ok2 := marker.ResolveMember(rw.Result, class, attrName); ok2 && info.Kind == marker.KindClassAttribute {
				rw.applyBareTemplate(node, info, buf, applied, applyAll, aborted)
			}
		}
	}
}

// isBareValueUse reports whether node (an identifier) is a free-variable
// reference rather than some other name occurrence (an attribute member
// name, a keyword-argument name, or a binding target) that happens to
// share text with an imported deprecated symbol.
func isBareValueUse(node, parent *sitter.Node) bool {
	if parent == nil {
		return true
	}
	switch parent.Type() {
	case "attribute":
		return parent.ChildByFieldName("attribute") != node
	case "keyword_argument":
		return parent.ChildByFieldName("name") != node
	case "assignment", "augmented_assignment":
		return parent.ChildByFieldName("left") != node
	case "for_statement":
		return parent.ChildByFieldName("left") != node
	case "function_definition", "class_definition":
		return parent.ChildByFieldName("name") != node
	case "typed_parameter", "default_parameter", "typed_default_parameter", "list_splat_pattern", "dictionary_splat_pattern":
		return false
	case "parameters":
		return false
	case "dotted_name", "aliased_import":
		return false
	}
	return true
}

func (rw *Rewriter) tryApply(replaceNode, sourceNode *sitter.Node, info *marker.ReplaceInfo, receiverText string, hasReceiver bool, buf *source.Buffer, applied *[]AppliedReplacement, applyAll, aborted *bool) {
	text := rw.text()
	bound, err := BindArguments(text, sourceNode, info, receiverText, hasReceiver)
	if err != nil {
		rw.Warnings = append(rw.Warnings, err.Error())
		return
	}
	newText := Substitute(info.TemplateFile, info.Template, bound)
	rw.applyEdit(replaceNode, newText, info, buf, applied, applyAll, aborted)
}

func (rw *Rewriter) applyBareTemplate(node *sitter.Node, info *marker.ReplaceInfo, buf *source.Buffer, applied *[]AppliedReplacement, applyAll, aborted *bool) {
	newText := Substitute(info.TemplateFile, info.Template, map[string]string{})
	rw.applyEdit(node, newText, info, buf, applied, applyAll, aborted)
}

func (rw *Rewriter) applyEdit(node *sitter.Node, newText string, info *marker.ReplaceInfo, buf *source.Buffer, applied *[]AppliedReplacement, applyAll, aborted *bool) {
	oldText := nodeText(rw.text(), node)
	if newText == oldText {
		return
	}

	decision := DecisionApply
	if rw.Prompter != nil && !*applyAll {
		pos := rw.File.NodePosition(node)
		decision = rw.Prompter.Prompt(rw.File.Path, pos.Line, pos.Column, oldText, newText)
	}
	switch decision {
	case DecisionSkip:
		return
	case DecisionApplyAll:
		*applyAll = true
	case DecisionAbort:
		*aborted = true
		return
	}

	if err := buf.Replace(node.StartByte(), node.EndByte(), newText); err != nil {
		rw.Warnings = append(rw.Warnings, err.Error())
		return
	}

	pos := rw.File.NodePosition(node)
	*applied = append(*applied, AppliedReplacement{
		Line: pos.Line, Column: pos.Column,
		OldText: oldText, NewText: newText, Info: info,
	})
}

func (rw *Rewriter) tryMagicRewrite(ctx context.Context, call *sitter.Node, dunder string, receiver *sitter.Node, extra []*sitter.Node, buf *source.Buffer, applied *[]AppliedReplacement, applyAll, aborted *bool) {
	if rw.Resolver == nil {
		return
	}
	text := rw.text()
	class, ok := rw.Resolver.Resolve(ctx, receiver.StartByte(), nodeText(text, receiver))
	if !ok {
		return
	}
	info, ok2 := marker.ResolveMember(rw.Result, class, dunder)
	if !ok2 {
		return
	}
	if len(info.Parameters) > 0 {
		receiverParam := info.Parameters[0].Name
		if countFreeReferences(info.TemplateFile, info.Template, receiverParam) > 1 && !isSimpleExpression(receiver) {
			rw.Warnings = append(rw.Warnings, "rewrite: refusing "+info.QualifiedName+": receiver used more than once and is not side-effect free")
			return
		}
	}

	extraArgs := callArguments{keyword: map[string]*sitter.Node{}, positional: extra}
	bound, err := bindFromArgs(text, extraArgs, info, nodeText(text, receiver), true)
	if err != nil {
		rw.Warnings = append(rw.Warnings, err.Error())
		return
	}
	newText := Substitute(info.TemplateFile, info.Template, bound)
	rw.applyEdit(call, newText, info, buf, applied, applyAll, aborted)
}
