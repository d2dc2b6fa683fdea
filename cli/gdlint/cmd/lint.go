package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Gurvan/gdtools"
	"github.com/Gurvan/gdtools/config"
)

var (
	lintCmd = &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Lint GDScript files (the default when no sub-command is given)",
		Args:  cobra.ArbitraryArgs,
		RunE:  runLint,
	}
)

func runLint(cmd *cobra.Command, args []string) error {
	logger := logrus.StandardLogger()

	if len(args) == 0 {
		args = []string{"."}
	}
	cfg, err := config.Resolve(args[0], configPath, logger)
	if err != nil {
		return err
	}
	cfg.WarningsAsErrors = warningsAsErrors

	files, err := gdtools.Discover(args, cfg)
	if err != nil {
		return err
	}

	diags, ioErrors, err := gdtools.LintFiles(cmd.Context(), files, cfg, logger)
	if err != nil {
		return err
	}

	switch outputFormat {
	case "text":
		gdtools.WriteText(os.Stdout, diags)
	case "json":
		if err := gdtools.WriteJSON(os.Stdout, diags); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	if ioErrors > 0 {
		return fmt.Errorf("%d files could not be read", ioErrors)
	}
	if len(diags) > 0 {
		return errDiagnostics
	}
	return nil
}

func init() {
	rootCmd.AddCommand(lintCmd)
}
