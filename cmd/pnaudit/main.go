// Package main provides the pnaudit CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ojs-tools/pnaudit/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	logLevel    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pnaudit",
	Short: "Audit PKP Preservation Network coverage of OJS journals",
	Long: `pnaudit checks which issues of OJS-hosted journals have been deposited
in the PKP Preservation Network (PN).

Commands:
  audit            Reconcile every issue of a list of journals against the PN manifest
  export-articles  Trigger the Native XML export for each article of one issue
  list-urls        List the journal URLs known to the PN manifest
  history          Inspect previous audit runs recorded with --history
  config           Show the effective configuration

Credentials come from PNAUDIT_USERNAME / PNAUDIT_PASSWORD (environment or .env)
or are prompted for. Summaries are printed as JSON unless --human is given.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initRuntime,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); default from config")
	rootCmd.Version = Version
}

// initRuntime loads .env and the global config, then configures logging.
func initRuntime(cmd *cobra.Command, _ []string) error {
	config.LoadDotEnv()

	if _, err := config.LoadGlobalConfig(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	level := logLevel
	if level == "" {
		level = config.GetLogLevel()
	}
	if err := setupLogger(level); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return nil
}
