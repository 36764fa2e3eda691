// Package cleanup implements cleanup mode: deleting entire deprecated
// definitions once a version boundary has passed, reusing the Marker
// Collector's output rather than re-walking the tree with new logic.
package cleanup

import (
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"dissolve.dev/dissolve/internal/marker"
	"dissolve.dev/dissolve/internal/source"
)

// Mode selects which constructs cleanup targets, mirroring the three
// --all/--before/--current-version CLI flags. Exactly one is active.
type Mode struct {
	All            bool
	Before         string // remove constructs whose Since < Before
	CurrentVersion string // remove constructs whose RemoveIn <= CurrentVersion
}

// Selects reports whether info should be removed under m.
func (m Mode) Selects(info *marker.ReplaceInfo) bool {
	switch {
	case m.All:
		return true
	case m.Before != "":
		return info.Since != "" && marker.CompareVersions(info.Since, m.Before) < 0
	case m.CurrentVersion != "":
		return marker.AtOrPast(m.CurrentVersion, info.RemoveIn)
	default:
		return false
	}
}

// Removed records one deletion applied to a file, for the Driver's report.
type Removed struct {
	QualifiedName string
	Line, Column  int
}

// Apply queues deletion of every construct in result that m selects and
// whose DefNode belongs to file, returning the buffer with those
// deletions queued and the list of what was removed. Constructs are
// deleted whole-declaration: the entire def/class statement (including
// its decorator list, via decorated_definition) or, for an attribute-form
// deprecation, the entire assignment statement.
//
// Cleanup never removes helpers that are merely referenced by a deprecated
// construct — only the marked construct itself. Whether such helpers
// should also go is left to a human running a separate dead-code pass; see
// DESIGN.md.
func Apply(file *source.File, result *marker.CollectionResult, m Mode) (*source.Buffer, []Removed, error) {
	buf := source.NewBuffer(file.Text)
	var removed []Removed

	names := sortedNames(result.Replacements)
	for _, name := range names {
		info := result.Replacements[name]
		if info.DefFile != file.Path || info.DefNode == nil {
			continue
		}
		if !m.Selects(info) {
			continue
		}
		target := declarationStatement(info.DefNode)
		if err := deleteWholeLine(file, buf, target); err != nil {
			return buf, removed, fmt.Errorf("cleanup: %s: %w", name, err)
		}
		pos := file.NodePosition(target)
		removed = append(removed, Removed{QualifiedName: name, Line: pos.Line, Column: pos.Column})
	}

	return buf, removed, nil
}

// declarationStatement walks up from a def/class node to the statement
// that must be deleted as a unit: a decorated_definition if one wraps it
// (so the decorator list goes with the body), otherwise the node itself.
func declarationStatement(defNode *sitter.Node) *sitter.Node {
	if parent := defNode.Parent(); parent != nil && parent.Type() == "decorated_definition" {
		return parent
	}
	return defNode
}

// deleteWholeLine deletes target's own span plus its trailing newline (if
// any), so removing a definition does not leave a blank line where it used
// to sit, matching how a human would delete the statement by hand.
func deleteWholeLine(file *source.File, buf *source.Buffer, target *sitter.Node) error {
	start := target.StartByte()
	end := target.EndByte()
	text := file.Text
	for end < uint32(len(text)) && text[end] == '\n' {
		end++
		break
	}
	// Also absorb the statement's own leading indentation, so a nested
	// (class-body) definition doesn't leave a dangling blank indented line.
	for start > 0 && (text[start-1] == ' ' || text[start-1] == '\t') {
		start--
	}
	return buf.Delete(start, end)
}

func sortedNames(m map[string]*marker.ReplaceInfo) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
