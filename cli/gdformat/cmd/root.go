package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Gurvan/gdtools"
	"github.com/Gurvan/gdtools/config"
)

var (
	rootCmd = &cobra.Command{
		Use:          "gdformat [paths...]",
		Short:        "gdformat",
		SilenceUsage: true,
		Long:         `Formatter for GDScript 4.x. Rewrites files into a canonical, whitespace-normalized form; idempotent and comment-preserving.`,
		Args:         cobra.ArbitraryArgs,
		RunE:         runFormat,
	}

	checkMode  bool
	diffMode   bool
	stdinMode  bool
	lineLength int
	useSpaces  int
	configPath string
	stdinName  string
)

// errChanged signals exit code 1: files would change, or files with
// structural errors were refused.
var errChanged = errors.New("changes needed")

// Execute runs the root command and maps its outcome to the process exit
// code: 0 clean, 1 changes needed, 2 invalid invocation or unreadable
// input.
func Execute() int {
	flags := rootCmd.Flags()
	flags.BoolVar(&checkMode, "check", false, "exit 1 if any file would change; write nothing")
	flags.BoolVar(&diffMode, "diff", false, "print a unified diff to stdout; write nothing")
	flags.BoolVar(&stdinMode, "stdin", false, "read source from stdin and write the result to stdout")
	flags.IntVar(&lineLength, "line-length", 100, "maximum rendered line width before wrapping")
	flags.IntVar(&useSpaces, "use-spaces", 0, "indent with this many spaces instead of tabs")
	flags.StringVar(&configPath, "config", "", "path to gdtools.toml (default: walk upward from the first input)")
	flags.StringVar(&stdinName, "filename", "<stdin>", "file name used in reports when reading stdin")

	// an interrupt aborts the worker pool at file-boundary granularity
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errChanged):
		return 1
	default:
		return 2
	}
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("line-length") {
		cfg.LineLength = lineLength
	}
	if cmd.Flags().Changed("use-spaces") {
		cfg.IndentStyle = config.IndentSpaces
		cfg.IndentSize = useSpaces
	}
}

func runFormat(cmd *cobra.Command, args []string) error {
	logger := logrus.StandardLogger()

	if stdinMode {
		return formatStdin(cmd, logger)
	}
	if len(args) == 0 {
		_ = cmd.Help()
		return errors.New("no input files")
	}

	cfg, err := config.Resolve(args[0], configPath, logger)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	files, err := gdtools.Discover(args, cfg)
	if err != nil {
		return err
	}

	mode := gdtools.ModeWrite
	switch {
	case checkMode:
		mode = gdtools.ModeCheck
	case diffMode:
		mode = gdtools.ModeDiff
	}

	results, err := gdtools.FormatFiles(cmd.Context(), files, cfg, mode, logger)
	if err != nil {
		return err
	}

	changed, structural, unreadable := 0, 0, 0
	for _, r := range results {
		switch {
		case r.IsStructural():
			structural++
		case r.Err != nil:
			unreadable++
		case r.Changed:
			changed++
			switch mode {
			case gdtools.ModeCheck:
				fmt.Printf("would reformat %s\n", r.Path)
			case gdtools.ModeDiff:
				fmt.Print(r.Diff)
			}
		}
	}

	if unreadable > 0 {
		return fmt.Errorf("%d files could not be processed", unreadable)
	}
	if structural > 0 {
		return errChanged
	}
	if changed > 0 && mode != gdtools.ModeWrite {
		return errChanged
	}
	return nil
}

// formatStdin reads one script from stdin and writes the formatted bytes
// to stdout; --check and --diff are ignored in this mode. The config
// lookup starts at the working directory.
func formatStdin(cmd *cobra.Command, logger logrus.FieldLogger) error {
	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(".", configPath, logger)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	out, err := gdtools.FormatSource(stdinName, src, cfg)
	if err != nil {
		logger.Errorf("%s: %v", stdinName, err)
		return errChanged
	}
	_, err = os.Stdout.Write(out)
	return err
}

func init() {
}
