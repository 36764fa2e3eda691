package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"dissolve.dev/dissolve/internal/driver"
)

// newInfoCmd builds the info subcommand. See newMigrateCmd for why this is
// a constructor instead of a package-level var.
func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [flags] <path>...",
		Short: "Enumerate @replace_me markers",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInfo,
	}
	cmd.Flags().String("format", "text", "report format (text|json)")
	return cmd
}

func runInfo(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	paths, err := driver.Discover(args)
	if err != nil {
		return err
	}

	d := driver.New(driver.Config{Logger: newLogger(cmd)})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	results := d.RunInfo(ctx, paths)

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := driver.WriteJSONReport(out, results); err != nil {
			return err
		}
	} else {
		any := false
		for _, r := range results {
			if len(r.Replacements) > 0 || len(r.Unreplaceable) > 0 {
				any = true
			}
		}
		if !any {
			fmt.Fprintln(out, "no @replace_me markers found")
		} else {
			driver.WriteInfoReport(out, results)
		}
	}

	exitCode = 0
	return nil
}
