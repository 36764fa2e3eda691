package main

import (
	"context"
	"testing"
)

func TestRunCleanupRequiresExactlyOneSelectionFlag(t *testing.T) {
	cases := []struct {
		name                              string
		all                               bool
		before, currentVersion            string
		wantErr                           bool
	}{
		{"none set", false, "", "", true},
		{"only all", true, "", "", false},
		{"only before", false, "1.0", "", false},
		{"only current-version", false, "", "1.0", false},
		{"all and before both set", true, "1.0", "", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cmd := newCleanupCmd()
			cmd.SetContext(context.Background())
			if err := cmd.Flags().Set("all", boolStr(c.all)); err != nil {
				t.Fatal(err)
			}
			if err := cmd.Flags().Set("before", c.before); err != nil {
				t.Fatal(err)
			}
			if err := cmd.Flags().Set("current-version", c.currentVersion); err != nil {
				t.Fatal(err)
			}

			// runCleanup validates flags before touching the filesystem, so
			// passing no paths still exercises the check we care about.
			err := runCleanup(cmd, nil)
			if c.wantErr {
				if err == nil {
					t.Errorf("runCleanup() = nil, want a usage error")
				} else if _, ok := err.(*usageError); !ok {
					t.Errorf("runCleanup() = %v (%T), want *usageError", err, err)
				}
			} else if err != nil {
				t.Errorf("runCleanup() = %v, want nil", err)
			}
		})
	}
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
