package driver

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"dissolve.dev/dissolve/internal/marker"
)

var (
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// WriteReport renders results to w: one summary line per file, plus the
// diff for any modified file when showDiff is set. Output is stably
// ordered by path.
func WriteReport(w io.Writer, results []*FileResult, showDiff, color bool) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	for _, r := range results {
		switch r.Status {
		case StatusModified:
			fmt.Fprintln(w, style(color, modifiedStyle, fmt.Sprintf("Modified: %s", r.Path)))
		case StatusFailed:
			line := fmt.Sprintf("Failed: %s: %v", r.Path, r.Err)
			fmt.Fprintln(w, style(color, failedStyle, line))
		default:
			fmt.Fprintf(w, "Unchanged: %s\n", r.Path)
		}
		for _, warning := range r.Warnings {
			fmt.Fprintln(w, style(color, warnStyle, "  warning: "+warning))
		}
		if showDiff && len(r.Diff) > 0 {
			w.Write(r.Diff)
		}
	}
}

// WriteInfoReport renders check/info mode's per-construct summary: for
// each file, a count line followed by one line per replaceable marker,
// then a second count line followed by the unreplaceable ones grouped by
// reason.
func WriteInfoReport(w io.Writer, results []*FileResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	for _, r := range results {
		if r.Status == StatusFailed {
			fmt.Fprintf(w, "%s: %v\n", r.Path, r.Err)
			continue
		}
		if len(r.Replacements) == 0 && len(r.Unreplaceable) == 0 {
			continue
		}
		if len(r.Replacements) > 0 {
			fmt.Fprintf(w, "%s: %d @replace_me construct(s)\n", r.Path, len(r.Replacements))
			names := make([]string, 0, len(r.Replacements))
			byName := map[string]*marker.ReplaceInfo{}
			for _, info := range r.Replacements {
				names = append(names, info.QualifiedName)
				byName[info.QualifiedName] = info
			}
			sort.Strings(names)
			for _, name := range names {
				info := byName[name]
				fmt.Fprintf(w, "  %s (%s): since=%s remove_in=%s\n", info.QualifiedName, info.Kind, info.Since, info.RemoveIn)
			}
		}
		if len(r.Unreplaceable) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s: %d @replace_me construct(s) cannot be replaced\n", r.Path, len(r.Unreplaceable))
		byReason := map[marker.FailureReason][]*marker.UnreplaceableConstruct{}
		for _, u := range r.Unreplaceable {
			byReason[u.Reason] = append(byReason[u.Reason], u)
		}
		reasons := make([]marker.FailureReason, 0, len(byReason))
		for reason := range byReason {
			reasons = append(reasons, reason)
		}
		sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
		for _, reason := range reasons {
			fmt.Fprintf(w, "  %s:\n", reason)
			for _, u := range byReason[reason] {
				fmt.Fprintf(w, "    %s (%s): %s\n", u.QualifiedName, u.Kind, u.Message)
			}
		}
	}
}

// jsonReport is the shape the --format json output emits: one document
// per file.
type jsonReport struct {
	Path          string              `json:"path"`
	Status        string              `json:"status"`
	Applied       int                 `json:"applied,omitempty"`
	Removed       int                 `json:"removed,omitempty"`
	Replacements  []jsonReplacement   `json:"replacements,omitempty"`
	Unreplaceable []jsonUnreplaceable `json:"unreplaceable,omitempty"`
	Warnings      []string            `json:"warnings,omitempty"`
	Error         string              `json:"error,omitempty"`
}

type jsonReplacement struct {
	QualifiedName string `json:"qualified_name"`
	Kind          string `json:"kind"`
	Since         string `json:"since,omitempty"`
	RemoveIn      string `json:"remove_in,omitempty"`
}

type jsonUnreplaceable struct {
	QualifiedName string `json:"qualified_name"`
	Kind          string `json:"kind"`
	Reason        string `json:"reason"`
	Message       string `json:"message"`
}

// WriteJSONReport renders results as a JSON array, one object per file.
func WriteJSONReport(w io.Writer, results []*FileResult) error {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	docs := make([]jsonReport, 0, len(results))
	for _, r := range results {
		doc := jsonReport{
			Path:     r.Path,
			Status:   r.Status.String(),
			Applied:  len(r.Applied),
			Removed:  len(r.Removed),
			Warnings: r.Warnings,
		}
		if r.Err != nil {
			doc.Error = r.Err.Error()
		}
		for _, info := range r.Replacements {
			doc.Replacements = append(doc.Replacements, jsonReplacement{
				QualifiedName: info.QualifiedName,
				Kind:          info.Kind.String(),
				Since:         info.Since,
				RemoveIn:      info.RemoveIn,
			})
		}
		for _, u := range r.Unreplaceable {
			doc.Unreplaceable = append(doc.Unreplaceable, jsonUnreplaceable{
				QualifiedName: u.QualifiedName,
				Kind:          u.Kind.String(),
				Reason:        u.Reason.String(),
				Message:       u.Message,
			})
		}
		docs = append(docs, doc)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

func style(color bool, s lipgloss.Style, text string) string {
	if !color {
		return text
	}
	return s.Render(text)
}
