package driver

import (
	"context"
	"testing"
)

func TestRunPoolProcessesAllPathsAndSortsByPath(t *testing.T) {
	paths := []string{"c.py", "a.py", "b.py"}
	results := runPool(context.Background(), paths, func(ctx context.Context, path string) *FileResult {
		return &FileResult{Path: path, Status: StatusUnchanged}
	})

	if len(results) != 3 {
		t.Fatalf("results = %+v, want 3", results)
	}
	for i, want := range []string{"a.py", "b.py", "c.py"} {
		if results[i].Path != want {
			t.Errorf("results[%d].Path = %q, want %q", i, results[i].Path, want)
		}
	}
}

func TestRunPoolEmptyInput(t *testing.T) {
	results := runPool(context.Background(), nil, func(ctx context.Context, path string) *FileResult {
		t.Fatal("process should not be called for an empty path list")
		return nil
	})
	if len(results) != 0 {
		t.Errorf("results = %+v, want empty", results)
	}
}
