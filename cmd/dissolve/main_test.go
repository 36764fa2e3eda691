package main

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
)

func newTestRoot(t *testing.T, color string) *cobra.Command {
	t.Helper()
	root := &cobra.Command{Use: "dissolve"}
	root.PersistentFlags().String("color", color, "")
	root.PersistentFlags().String("log-format", "text", "")
	return root
}

func TestResolveColorModes(t *testing.T) {
	cases := []struct {
		mode, noColorEnv string
		want             bool
	}{
		{"auto", "", true},
		{"on", "", true},
		{"off", "", false},
		{"on", "1", false}, // NO_COLOR always wins
	}
	for _, c := range cases {
		t.Setenv("NO_COLOR", c.noColorEnv)
		root := newTestRoot(t, c.mode)
		if got := resolveColor(root); got != c.want {
			t.Errorf("resolveColor(mode=%q, NO_COLOR=%q) = %v, want %v", c.mode, c.noColorEnv, got, c.want)
		}
	}
}

func TestExitCodeForUsageError(t *testing.T) {
	if got := exitCodeFor(&usageError{"bad flag"}); got != 2 {
		t.Errorf("exitCodeFor(usageError) = %d, want 2", got)
	}
}

func TestExitCodeForOtherError(t *testing.T) {
	if got := exitCodeFor(errors.New("boom")); got != 1 {
		t.Errorf("exitCodeFor(generic error) = %d, want 1", got)
	}
}

func TestNewLoggerTextAndJSON(t *testing.T) {
	root := newTestRoot(t, "auto")
	sub := &cobra.Command{Use: "migrate"}
	root.AddCommand(sub)

	if logger := newLogger(sub); logger == nil {
		t.Error("newLogger returned nil for text format")
	}

	if err := root.PersistentFlags().Set("log-format", "json"); err != nil {
		t.Fatal(err)
	}
	if logger := newLogger(sub); logger == nil {
		t.Error("newLogger returned nil for json format")
	}
}
