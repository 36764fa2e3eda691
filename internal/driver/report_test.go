package driver

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"dissolve.dev/dissolve/internal/marker"
)

func TestWriteReportNoColor(t *testing.T) {
	results := []*FileResult{
		{Path: "b.py", Status: StatusUnchanged},
		{Path: "a.py", Status: StatusModified, Warnings: []string{"skipped one site"}},
	}
	var buf bytes.Buffer
	WriteReport(&buf, results, false, false)
	out := buf.String()

	if !strings.Contains(out, "Modified: a.py") {
		t.Errorf("missing Modified line:\n%s", out)
	}
	if !strings.Contains(out, "Unchanged: b.py") {
		t.Errorf("missing Unchanged line:\n%s", out)
	}
	if !strings.Contains(out, "warning: skipped one site") {
		t.Errorf("missing warning line:\n%s", out)
	}
	// results ordered by path even though passed in out of order
	if strings.Index(out, "a.py") > strings.Index(out, "b.py") {
		t.Errorf("results not sorted by path:\n%s", out)
	}
}

func TestWriteInfoReportGroupsByReason(t *testing.T) {
	results := []*FileResult{
		{
			Path:   "mod.py",
			Status: StatusUnchanged,
			Replacements: []*marker.ReplaceInfo{
				{QualifiedName: "mod.old", Kind: marker.KindFreeFunction, Since: "1.0", RemoveIn: "2.0"},
			},
			Unreplaceable: []*marker.UnreplaceableConstruct{
				{QualifiedName: "mod.loop", Kind: marker.KindFreeFunction, Reason: marker.ReasonRecursiveCall, Message: "self-referential"},
			},
		},
	}
	var buf bytes.Buffer
	WriteInfoReport(&buf, results)
	out := buf.String()

	if !strings.Contains(out, "mod.old") || !strings.Contains(out, "since=1.0") {
		t.Errorf("missing replacement line:\n%s", out)
	}
	if !strings.Contains(out, "recursive_call:") {
		t.Errorf("missing grouped failure reason:\n%s", out)
	}
	if !strings.Contains(out, "mod.loop") {
		t.Errorf("missing unreplaceable entry:\n%s", out)
	}
}

func TestWriteJSONReportRoundTrips(t *testing.T) {
	results := []*FileResult{
		{
			Path:   "mod.py",
			Status: StatusModified,
			Replacements: []*marker.ReplaceInfo{
				{QualifiedName: "mod.old", Kind: marker.KindFreeFunction, Since: "1.0"},
			},
		},
	}
	var buf bytes.Buffer
	if err := WriteJSONReport(&buf, results); err != nil {
		t.Fatal(err)
	}

	var docs []jsonReport
	if err := json.Unmarshal(buf.Bytes(), &docs); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(docs) != 1 || docs[0].Path != "mod.py" || docs[0].Status != "Modified" {
		t.Errorf("docs = %+v", docs)
	}
	if len(docs[0].Replacements) != 1 || docs[0].Replacements[0].QualifiedName != "mod.old" {
		t.Errorf("Replacements = %+v", docs[0].Replacements)
	}
}
