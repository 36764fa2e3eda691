package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"dissolve.dev/dissolve/internal/driver"
)

// newMigrateCmd builds the migrate subcommand. It is a constructor rather
// than a package-level var so each invocation (production or test) gets
// its own flag set instead of leaking state across runs.
func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [flags] <path>...",
		Short: "Rewrite call sites of deprecated constructs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMigrate,
	}
	cmd.Flags().BoolP("write", "w", false, "overwrite the source file instead of printing a diff")
	cmd.Flags().Bool("check", false, "report which files would change; exit 1 if any")
	cmd.Flags().Bool("interactive", false, "prompt before applying each replacement")
	cmd.Flags().Bool("strip-markers", false, "remove the @replace_me decorator of a construct defined in a file once any of its call sites in that file is rewritten")
	cmd.Flags().String("type-method", "none", "type resolver backend (pyright|mypy|none)")
	cmd.Flags().Int("timeout", 10, "per-query type resolver timeout in seconds")
	cmd.Flags().String("format", "text", "report format (text|json)")
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	write, _ := cmd.Flags().GetBool("write")
	check, _ := cmd.Flags().GetBool("check")
	interactive, _ := cmd.Flags().GetBool("interactive")
	stripMarkers, _ := cmd.Flags().GetBool("strip-markers")
	typeMethod, _ := cmd.Flags().GetString("type-method")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	format, _ := cmd.Flags().GetString("format")

	if write && check {
		return &usageError{"migrate: --write and --check are mutually exclusive"}
	}
	switch typeMethod {
	case "pyright", "mypy", "none":
	default:
		return &usageError{"migrate: --type-method must be pyright, mypy, or none"}
	}

	paths, err := driver.Discover(args)
	if err != nil {
		return err
	}

	d := driver.New(driver.Config{
		Write:        write,
		Check:        check,
		Interactive:  interactive,
		StripMarkers: stripMarkers,
		TypeMethod:   typeMethod,
		Timeout:      time.Duration(timeoutSecs) * time.Second,
		Color:        resolveColor(cmd),
		Logger:       newLogger(cmd),
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	results := d.RunMigrate(ctx, paths)

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := driver.WriteJSONReport(out, results); err != nil {
			return err
		}
	} else {
		driver.WriteReport(out, results, !write, resolveColor(cmd))
	}

	exitCode = driver.ExitCode(results, check)
	return nil
}
