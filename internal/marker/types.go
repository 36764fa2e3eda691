// Package marker implements the Marker Collector: it walks a parsed
// source file (and, transitively, its imports) to find every construct
// decorated with the deprecation marker and extract a replacement
// template expression from each one.
package marker

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// ConstructKind classifies the kind of deprecated construct a ReplaceInfo
// or UnreplaceableConstruct describes.
type ConstructKind int

const (
	KindUnknown ConstructKind = iota
	KindFreeFunction
	KindAsyncFunction
	KindInstanceMethod
	KindClassMethod
	KindStaticMethod
	KindProperty
	KindClass
	KindClassAttribute
	KindModuleAttribute
)

func (k ConstructKind) String() string {
	switch k {
	case KindFreeFunction:
		return "free function"
	case KindAsyncFunction:
		return "async function"
	case KindInstanceMethod:
		return "instance method"
	case KindClassMethod:
		return "class method"
	case KindStaticMethod:
		return "static method"
	case KindProperty:
		return "property"
	case KindClass:
		return "class"
	case KindClassAttribute:
		return "class attribute"
	case KindModuleAttribute:
		return "module attribute"
	default:
		return "unknown"
	}
}

// ParameterInfo describes one declared parameter of a deprecated
// construct. For methods, the implicit receiver is recorded as parameter
// index 0 with Name set to the receiver's spelled name ("self", "cls",
// ...).
type ParameterInfo struct {
	Name               string
	HasDefault         bool
	DefaultSourceText  string
	VariadicPositional bool // *args
	VariadicKeyword    bool // **kwargs
	KeywordOnly        bool
}

// ReplaceInfo is produced for each deprecated construct the Collector can
// fully process: it carries everything the Rewriter needs to substitute a
// call site.
type ReplaceInfo struct {
	QualifiedName string
	SimpleName    string
	Kind          ConstructKind
	Parameters    []ParameterInfo
	Template      *sitter.Node // expression node, rooted in TemplateFile's tree
	TemplateFile  []byte       // source bytes Template's offsets are relative to
	Since         string
	RemoveIn      string
	Message       string
	DeclaringClass string // qualified name of enclosing class, "" if none

	// DefNode is the construct's own definition statement (the
	// decorated_definition of a decorated def/class, or the statement of
	// an attribute assignment), used by cleanup to locate and delete it.
	DefNode *sitter.Node
	DefFile string
}

// FailureReason enumerates why a spotted marker could not be turned into a
// ReplaceInfo.
type FailureReason int

const (
	ReasonUnknown FailureReason = iota
	ReasonComplexBody
	ReasonNoReturn
	ReasonRecursiveCall
	ReasonLambda
	ReasonDynamicMarkerArgs
	ReasonSyntacticallyInvalidTemplate
)

func (r FailureReason) String() string {
	switch r {
	case ReasonComplexBody:
		return "complex_body"
	case ReasonNoReturn:
		return "no_return"
	case ReasonRecursiveCall:
		return "recursive_call"
	case ReasonLambda:
		return "lambda"
	case ReasonDynamicMarkerArgs:
		return "dynamic_marker_args"
	case ReasonSyntacticallyInvalidTemplate:
		return "syntactically_invalid_template"
	default:
		return "unknown"
	}
}

// UnreplaceableConstruct is recorded when the Collector sees a marker but
// cannot derive a replacement template from it.
type UnreplaceableConstruct struct {
	QualifiedName string
	Kind          ConstructKind
	Reason        FailureReason
	Message       string
}

// CollectionResult is the Collector's output for one module.
type CollectionResult struct {
	Replacements  map[string]*ReplaceInfo
	Unreplaceable map[string]*UnreplaceableConstruct
	Inheritance   map[string][]string // class qualified name -> base qualified names
}

func newResult() *CollectionResult {
	return &CollectionResult{
		Replacements:  make(map[string]*ReplaceInfo),
		Unreplaceable: make(map[string]*UnreplaceableConstruct),
		Inheritance:   make(map[string][]string),
	}
}

// Merge folds other into r, favoring entries already in r on collision:
// the file being collected takes precedence over imports collected at
// greater depth (see DESIGN.md).
func (r *CollectionResult) Merge(other *CollectionResult) {
	for k, v := range other.Replacements {
		if _, ok := r.Replacements[k]; ok {
			continue
		}
		if _, ok := r.Unreplaceable[k]; ok {
			continue
		}
		r.Replacements[k] = v
	}
	for k, v := range other.Unreplaceable {
		if _, ok := r.Replacements[k]; ok {
			continue
		}
		if _, ok := r.Unreplaceable[k]; ok {
			continue
		}
		r.Unreplaceable[k] = v
	}
	for k, bases := range other.Inheritance {
		if _, ok := r.Inheritance[k]; !ok {
			r.Inheritance[k] = bases
		}
	}
}
