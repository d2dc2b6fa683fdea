package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:          "gdlint [paths...]",
		Short:        "gdlint",
		SilenceUsage: true,
		Long:         `Linter for GDScript 4.x. Walks the given files and directories, applies the rule catalog, and prints position-accurate diagnostics.`,
		Args:         cobra.ArbitraryArgs,
		RunE:         runLint,
	}

	outputFormat     string
	warningsAsErrors bool
	configPath       string
)

// errDiagnostics signals exit code 1: findings were emitted but the run
// itself succeeded.
var errDiagnostics = errors.New("diagnostics emitted")

// Execute runs the root command and maps its outcome to the process exit
// code: 0 clean, 1 diagnostics emitted, 2 invalid invocation or unreadable
// input.
func Execute() int {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "diagnostic output format: text or json")
	rootCmd.PersistentFlags().BoolVar(&warningsAsErrors, "warnings-as-errors", false, "report every warning as an error")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to gdtools.toml (default: walk upward from the first input)")

	// an interrupt aborts the worker pool at file-boundary granularity
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errDiagnostics):
		return 1
	default:
		return 2
	}
}

func init() {
}
