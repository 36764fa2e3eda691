package main

import (
	"context"
	"testing"
)

func TestRunMigrateRejectsWriteAndCheckTogether(t *testing.T) {
	cmd := newMigrateCmd()
	cmd.SetContext(context.Background())
	cmd.Flags().Set("write", "true")
	cmd.Flags().Set("check", "true")

	err := runMigrate(cmd, nil)
	if _, ok := err.(*usageError); !ok {
		t.Errorf("runMigrate() = %v (%T), want *usageError", err, err)
	}
}

func TestRunMigrateRejectsUnknownTypeMethod(t *testing.T) {
	cmd := newMigrateCmd()
	cmd.SetContext(context.Background())
	cmd.Flags().Set("type-method", "bogus")

	err := runMigrate(cmd, nil)
	if _, ok := err.(*usageError); !ok {
		t.Errorf("runMigrate() = %v (%T), want *usageError", err, err)
	}
}

func TestRunMigrateAcceptsValidFlags(t *testing.T) {
	cmd := newMigrateCmd()
	cmd.SetContext(context.Background())
	if err := runMigrate(cmd, nil); err != nil {
		t.Errorf("runMigrate() = %v, want nil", err)
	}
}
