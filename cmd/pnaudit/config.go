package main

import (
	"github.com/ojs-tools/pnaudit/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration pnaudit will use, after applying defaults.

Settings are read from ~/.config/pnaudit/config.yml (or $XDG_CONFIG_HOME):

  manifest_url: http://pkp.sfu.ca/files/pkppn/onix.csv
  journal_delay: 5s
  requests_per_second: 2
  history_db: ~/.config/pnaudit/history.db
  username: editor
  log_level: warn

The password is never read from the config file; set PNAUDIT_PASSWORD in the
environment or a .env file, or enter it when prompted.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	resp := ConfigResponse{
		ConfigPath:        config.GlobalConfigPath(),
		ManifestURL:       config.GetManifestURL(),
		JournalDelay:      config.GetJournalDelay().String(),
		RequestsPerSecond: config.GetRequestsPerSecond(),
		HistoryDB:         config.GetHistoryDBPath(),
		Username:          cfg.Username,
		LogLevel:          config.GetLogLevel(),
	}

	if !humanOutput {
		return outputJSON(resp)
	}
	outputHuman("config:              %s\n", resp.ConfigPath)
	outputHuman("manifest_url:        %s\n", resp.ManifestURL)
	outputHuman("journal_delay:       %s\n", resp.JournalDelay)
	outputHuman("requests_per_second: %g\n", resp.RequestsPerSecond)
	outputHuman("history_db:          %s\n", resp.HistoryDB)
	outputHuman("username:            %s\n", resp.Username)
	outputHuman("log_level:           %s\n", resp.LogLevel)
	return nil
}
