package main

import (
	"context"

	"github.com/spf13/cobra"

	"dissolve.dev/dissolve/internal/driver"
)

// newCheckCmd builds the check subcommand. See newMigrateCmd for why this
// is a constructor instead of a package-level var.
func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] <path>...",
		Short: "Validate that every marker can be processed",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}
	cmd.Flags().String("format", "text", "report format (text|json)")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	paths, err := driver.Discover(args)
	if err != nil {
		return err
	}

	d := driver.New(driver.Config{Logger: newLogger(cmd)})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	results := d.RunCheck(ctx, paths)

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := driver.WriteJSONReport(out, results); err != nil {
			return err
		}
	} else {
		driver.WriteInfoReport(out, results)
	}

	exitCode = driver.ExitCode(results, true)
	return nil
}
