// xliffbook — collects Symfony bundle XLIFF translations into zip archives,
// per-bundle CSV tables and one combined spreadsheet.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/minios-linux/xliffbook/config"
	"github.com/minios-linux/xliffbook/pipeline"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// Exit codes
const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

// errPartial is returned when the run completed but some bundles failed.
var errPartial = errors.New("some bundles failed")

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xliffbook <root>",
		Short: "Export bundle XLIFF translations to zip, CSV and one XLSX workbook",
		Long: `xliffbook — collect bundle translations into a spreadsheet.

Walks <root> for directories ending in Bundle/Resources/translations that
contain messages.*.xliff files. For every such bundle it writes:

  zips/<Bundle>.zip   the bundle's translation files
  csv/<Bundle>.csv    one row per source string, one column per language

and finally traductions.xlsx with one sheet per bundle.

Output locations and matching rules can be changed in .xliffbook.yaml
(working directory) or XLIFFBOOK_* environment variables.`,
		Args:          cobra.ExactArgs(1),
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), args[0])
		},
	}

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status, logging it.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errPartial):
		logError("%v", err)
		return exitPartial
	default:
		logError("%v", err)
		return exitFatal
	}
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func runExport(ctx context.Context, rootDir string) error {
	info, err := os.Stat(rootDir)
	if err != nil {
		return fmt.Errorf("search path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("search path %s is not a directory", rootDir)
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	logInfo("Searching %s for *%s directories", rootDir, cfg.BundleSuffix)

	report, err := pipeline.Run(ctx, cfg, rootDir, pipeline.Options{
		OnLog:     logInfo,
		OnSuccess: logSuccess,
		OnWarning: logWarning,
		OnError:   logError,
	})
	if err != nil {
		return err
	}

	logInfo("%d bundles exported, %d failed", len(report.Bundles), len(report.Failed))
	if !report.OK() {
		return fmt.Errorf("%w: %d of %d", errPartial, len(report.Failed), len(report.Failed)+len(report.Bundles))
	}
	return nil
}
