package marker

import (
	sitter "github.com/smacker/go-tree-sitter"

	"dissolve.dev/dissolve/internal/source"
)

// DefaultImportDepth is how many import hops the Collector follows from
// the file under analysis when a caller does not override it.
const DefaultImportDepth = 2

// ModuleLoader resolves a dotted module name (as it appears in an import
// statement) to its parsed source and its own canonical dotted module
// name, which may differ from the requested name for a relative import.
type ModuleLoader interface {
	Load(moduleName string) (file *source.File, resolvedName string, ok bool)
}

// CollectModule runs the Collector over file and, when maxDepth > 0,
// transitively over the modules it imports (and the modules those import,
// and so on, down to maxDepth hops), merging every result together. A
// module already visited — including file's own module, to guard against
// import cycles — is never loaded twice.
//
// Local definitions always win over anything found by following an
// import, since CollectionResult.Merge keeps whatever is already present
// over an incoming duplicate. Imports are followed depth-first in
// statement order (an imported module's own imports are merged before
// the importing file's next import), and among them the first one
// reached in that order wins.
func CollectModule(loader ModuleLoader, moduleName string, file *source.File, maxDepth int) *CollectionResult {
	result := CollectFile(moduleName, file)
	if maxDepth <= 0 || loader == nil {
		return result
	}
	seen := map[string]bool{moduleName: true}
	result.Merge(followImports(loader, file, maxDepth, seen))
	return result
}

func followImports(loader ModuleLoader, file *source.File, depth int, seen map[string]bool) *CollectionResult {
	combined := newResult()
	if depth <= 0 {
		return combined
	}
	for _, name := range importedModules(file.Text, file.Root()) {
		if seen[name] {
			continue
		}
		seen[name] = true

		imported, resolved, ok := loader.Load(name)
		if !ok {
			continue
		}
		if seen[resolved] && resolved != name {
			continue
		}
		seen[resolved] = true

		sub := CollectFile(resolved, imported)
		combined.Merge(sub)
		combined.Merge(followImports(loader, imported, depth-1, seen))
	}
	return combined
}

// importedModules extracts the dotted module names named by every
// top-level "import X[.Y]" and "from X[.Y] import ..." statement in root.
// Relative (".", "..") imports, whose target cannot be named as a plain
// dotted path, are skipped — the Collector treats them as outside the
// bounded-depth search rather than guessing. A wildcard
// "from X import *" is followed like any other from-import of X.
func importedModules(text []byte, root *sitter.Node) []string {
	var mods []string
	for _, stmt := range source.TopLevelStatements(root) {
		switch stmt.Type() {
		case "import_statement":
			for i := 0; i < int(stmt.NamedChildCount()); i++ {
				c := stmt.NamedChild(i)
				switch c.Type() {
				case "dotted_name":
					mods = append(mods, nodeText(text, c))
				case "aliased_import":
					dn := c.ChildByFieldName("name")
					if dn != nil {
						mods = append(mods, nodeText(text, dn))
					}
				}
			}
		case "import_from_statement":
			mod := stmt.ChildByFieldName("module_name")
			if mod != nil && mod.Type() == "dotted_name" {
				mods = append(mods, nodeText(text, mod))
			}
		}
	}
	return mods
}
