// Command dissolve rewrites call sites of deprecated functions, methods,
// classes, and attributes to the replacement expression their author
// supplied inline, and can delete the deprecated definitions themselves
// once a version boundary is reached.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// exitCode is set by a subcommand's RunE before returning nil, so main can
// report the 0/1 distinction (success vs. --check found changes or a file
// failed) without cobra treating a nonzero-but-clean run as an error.
var exitCode int

// newRootCmd assembles the dissolve command tree from scratch. Building it
// fresh (rather than sharing package-level *cobra.Command vars) lets a
// test drive many CLI invocations in one process without one run's flag
// values leaking into the next.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dissolve",
		Short:         "Deprecation migration engine",
		Long:          "dissolve rewrites call sites of @replace_me-marked constructs to their replacement expression.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("color", "auto", "colorize diff output (auto|on|off)")
	root.PersistentFlags().String("log-format", "text", "log output format (text|json)")

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newCleanupCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newInfoCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(exitCodeFor(err))
	}
	os.Exit(exitCode)
}

// exitCodeFor maps a top-level command error to the CLI's exit codes.
// A *usageError signals bad CLI arguments (exit 2); anything else is a
// run that could not even start (an IOError reading a path, etc.) and is
// scored the same as a failed file, exit 1.
func exitCodeFor(err error) int {
	var uerr *usageError
	if errors.As(err, &uerr) {
		return 2
	}
	return 1
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

// newLogger builds the process-wide slog.Logger honoring --log-format,
// prefixing every text-mode record the way rf.go's `log.SetPrefix("rf: ")`
// keeps its own output quiet and identifiable.
func newLogger(cmd *cobra.Command) *slog.Logger {
	format, _ := cmd.Root().PersistentFlags().GetString("log-format")
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(&prefixHandler{slog.NewTextHandler(os.Stderr, opts)})
}

// prefixHandler wraps a slog.Handler to prefix every message with
// "dissolve: ", for a quiet single-line log style.
type prefixHandler struct {
	slog.Handler
}

func (h *prefixHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Message = "dissolve: " + r.Message
	return h.Handler.Handle(ctx, r)
}

// resolveColor turns the --color flag and NO_COLOR into a single bool;
// NO_COLOR is the standard variable to disable color in terminal output.
func resolveColor(cmd *cobra.Command) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return true
	}
}
