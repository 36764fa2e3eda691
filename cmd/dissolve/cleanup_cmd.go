package main

import (
	"context"

	"github.com/spf13/cobra"

	"dissolve.dev/dissolve/internal/cleanup"
	"dissolve.dev/dissolve/internal/driver"
)

// newCleanupCmd builds the cleanup subcommand. See newMigrateCmd for why
// this is a constructor instead of a package-level var.
func newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup [flags] <path>...",
		Short: "Delete deprecated definitions once a version boundary is reached",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCleanup,
	}
	cmd.Flags().BoolP("write", "w", false, "overwrite the source file instead of printing a diff")
	cmd.Flags().Bool("check", false, "report which files would change; exit 1 if any")
	cmd.Flags().Bool("all", false, "remove every deprecated construct")
	cmd.Flags().String("before", "", "remove constructs whose since < VERSION")
	cmd.Flags().String("current-version", "", "remove constructs whose remove_in <= VERSION")
	return cmd
}

func runCleanup(cmd *cobra.Command, args []string) error {
	write, _ := cmd.Flags().GetBool("write")
	check, _ := cmd.Flags().GetBool("check")
	all, _ := cmd.Flags().GetBool("all")
	before, _ := cmd.Flags().GetString("before")
	currentVersion, _ := cmd.Flags().GetString("current-version")

	set := 0
	for _, on := range []bool{all, before != "", currentVersion != ""} {
		if on {
			set++
		}
	}
	if set != 1 {
		return &usageError{"cleanup: exactly one of --all, --before, --current-version is required"}
	}

	paths, err := driver.Discover(args)
	if err != nil {
		return err
	}

	d := driver.New(driver.Config{
		Write:  write,
		Check:  check,
		Color:  resolveColor(cmd),
		Logger: newLogger(cmd),
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mode := cleanup.Mode{All: all, Before: before, CurrentVersion: currentVersion}
	results := d.RunCleanup(ctx, paths, mode)

	driver.WriteReport(cmd.OutOrStdout(), results, !write, resolveColor(cmd))
	exitCode = driver.ExitCode(results, check)
	return nil
}
