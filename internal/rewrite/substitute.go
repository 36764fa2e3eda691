package rewrite

import (
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"dissolve.dev/dissolve/internal/marker"
	"dissolve.dev/dissolve/internal/source"
)

// callArguments is a call site's argument list, split into the shapes
// argument binding cares about.
type callArguments struct {
	positional    []*sitter.Node
	keyword       map[string]*sitter.Node
	starArg       *sitter.Node // the expression inside a *expr call argument
	doubleStarArg *sitter.Node // the expression inside a **expr call argument
}

// BindArguments maps each of info.Parameters to source text drawn from
// call's actual
// arguments, receiverText (for methods), or the parameter's own default.
// It returns an error — never a partial map — the moment binding cannot
// be completed, so the caller can skip the site cleanly.
func BindArguments(text []byte, call *sitter.Node, info *marker.ReplaceInfo, receiverText string, hasReceiver bool) (map[string]string, error) {
	return bindFromArgs(text, parseCallArgs(text, call), info, receiverText, hasReceiver)
}

// parseCallArgs splits call's own argument_list into positional, keyword,
// and splat parts.
func parseCallArgs(text []byte, call *sitter.Node) callArguments {
	args := callArguments{keyword: map[string]*sitter.Node{}}
	argList := call.ChildByFieldName("arguments")
	if argList == nil {
		return args
	}
	for i := 0; i < int(argList.NamedChildCount()); i++ {
		arg := argList.NamedChild(i)
		switch arg.Type() {
		case "keyword_argument":
			name := arg.ChildByFieldName("name")
			value := arg.ChildByFieldName("value")
			if name != nil && value != nil {
				args.keyword[nodeText(text, name)] = value
			}
		case "list_splat":
			if arg.NamedChildCount() > 0 {
				args.starArg = arg.NamedChild(0)
			}
		case "dictionary_splat":
			if arg.NamedChildCount() > 0 {
				args.doubleStarArg = arg.NamedChild(0)
			}
		default:
			args.positional = append(args.positional, arg)
		}
	}
	return args
}

// bindFromArgs is BindArguments' implementation, factored out so magic.go
// can bind a synthetic argument list (a builtin call's arguments minus its
// receiver) without going through a real call node.
func bindFromArgs(text []byte, args callArguments, info *marker.ReplaceInfo, receiverText string, hasReceiver bool) (map[string]string, error) {
	params := info.Parameters
	bound := map[string]string{}
	filled := map[string]bool{}
	idx := 0

	if hasReceiver {
		if len(params) == 0 {
			return nil, fmt.Errorf("rewrite: %s has no receiver parameter to bind", info.QualifiedName)
		}
		bound[params[0].Name] = receiverText
		filled[params[0].Name] = true
		idx = 1
	}

	pos := 0
	for pos < len(args.positional) {
		if idx >= len(params) {
			return nil, fmt.Errorf("rewrite: too many positional arguments for %s", info.QualifiedName)
		}
		p := params[idx]
		if p.VariadicPositional {
			var texts []string
			for ; pos < len(args.positional); pos++ {
				texts = append(texts, nodeText(text, args.positional[pos]))
			}
			bound[p.Name] = strings.Join(texts, ", ")
			filled[p.Name] = true
			idx++
			continue
		}
		if p.KeywordOnly {
			return nil, fmt.Errorf("rewrite: positional argument targets keyword-only parameter %q of %s", p.Name, info.QualifiedName)
		}
		bound[p.Name] = nodeText(text, args.positional[pos])
		filled[p.Name] = true
		idx++
		pos++
	}

	if args.starArg != nil {
		p := variadicPositionalParam(params)
		if p == nil {
			return nil, fmt.Errorf("rewrite: starred argument but %s declares no *args parameter", info.QualifiedName)
		}
		bound[p.Name] = "*" + nodeText(text, args.starArg)
		filled[p.Name] = true
	}

	for name, valueNode := range args.keyword {
		if p := findParam(params, name); p != nil {
			bound[p.Name] = nodeText(text, valueNode)
			filled[p.Name] = true
			continue
		}
		kw := variadicKeywordParam(params)
		if kw == nil {
			return nil, fmt.Errorf("rewrite: keyword argument %q does not match any parameter of %s", name, info.QualifiedName)
		}
		frag := fmt.Sprintf("%s=%s", name, nodeText(text, valueNode))
		bound[kw.Name] = joinNonEmpty(bound[kw.Name], frag)
		filled[kw.Name] = true
	}

	if args.doubleStarArg != nil {
		kw := variadicKeywordParam(params)
		if kw == nil {
			return nil, fmt.Errorf("rewrite: double-starred argument but %s declares no **kwargs parameter", info.QualifiedName)
		}
		bound[kw.Name] = joinNonEmpty(bound[kw.Name], "**"+nodeText(text, args.doubleStarArg))
		filled[kw.Name] = true
	}

	for _, p := range params {
		if filled[p.Name] {
			continue
		}
		if p.VariadicPositional || p.VariadicKeyword {
			continue
		}
		if !p.HasDefault {
			return nil, fmt.Errorf("rewrite: missing required argument %q for %s", p.Name, info.QualifiedName)
		}
		bound[p.Name] = p.DefaultSourceText
	}

	return bound, nil
}

func joinNonEmpty(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + ", " + next
}

func findParam(params []marker.ParameterInfo, name string) *marker.ParameterInfo {
	for i := range params {
		if params[i].Name == name {
			return &params[i]
		}
	}
	return nil
}

func variadicPositionalParam(params []marker.ParameterInfo) *marker.ParameterInfo {
	for i := range params {
		if params[i].VariadicPositional {
			return &params[i]
		}
	}
	return nil
}

func variadicKeywordParam(params []marker.ParameterInfo) *marker.ParameterInfo {
	for i := range params {
		if params[i].VariadicKeyword {
			return &params[i]
		}
	}
	return nil
}

// substitutionEdit is a byte-span replacement local to one template's own
// text, distinct from source.Edit which operates on a whole file.
type substitutionEdit struct {
	start, end uint32
	text       string
}

// Substitute walks template (an expression node rooted in templateText)
// and returns the text produced by replacing every free identifier that
// names a bound parameter with its bound source text. Substitution is
// hygienic: an occurrence inside a lambda or comprehension that rebinds
// the same name is left untouched.
func Substitute(templateText []byte, template *sitter.Node, bound map[string]string) string {
	var edits []substitutionEdit

	source.WalkStack(template, func(stack []*sitter.Node) {
		node := stack[0]
		if node.Type() != "identifier" {
			return
		}
		name := nodeText(templateText, node)
		val, ok := bound[name]
		if !ok {
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
		if parent != nil && (parent.Type() == "list_splat" || parent.Type() == "dictionary_splat") {
			edits = append(edits, substitutionEdit{parent.StartByte(), parent.EndByte(), val})
			return
		}
		edits = append(edits, substitutionEdit{node.StartByte(), node.EndByte(), val})
	})

	if len(edits) == 0 {
		return nodeText(templateText, template)
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var out strings.Builder
	cursor := template.StartByte()
	for _, e := range edits {
		if e.start < cursor {
			continue // a splat parent already consumed this span
		}
		out.Write(templateText[cursor:e.start])
		out.WriteString(e.text)
		cursor = e.end
	}
	out.Write(templateText[cursor:template.EndByte()])
	return out.String()
}

// isDeclarationOccurrence reports whether node is a name in binding
// position (an attribute member name, a keyword argument's name, a
// parameter declaration) rather than a free-variable reference, in which
// case it must never be substituted even if its text matches a bound
// parameter name.
func isDeclarationOccurrence(node, parent *sitter.Node) bool {
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "attribute":
		return parent.ChildByFieldName("attribute") == node
	case "keyword_argument":
		return parent.ChildByFieldName("name") == node
	}
	return false
}
