// Package config handles global pnaudit configuration and credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/pnaudit/config.yml.
type GlobalConfig struct {
	ManifestURL       string  `yaml:"manifest_url,omitempty"`
	JournalDelay      string  `yaml:"journal_delay,omitempty"` // Go duration, e.g. "5s"
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	HistoryDB         string  `yaml:"history_db,omitempty"`
	Username          string  `yaml:"username,omitempty"`
	LogLevel          string  `yaml:"log_level,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "pnaudit"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// HistoryDBFile is the default SQLite history file name.
	HistoryDBFile = "history.db"

	// DefaultManifestURL is the PKP PN journal list status file.
	// https://docs.pkp.sfu.ca/pkp-pn/en/#checking-status-on-pkp-pn-journal-list
	DefaultManifestURL = "http://pkp.sfu.ca/files/pkppn/onix.csv"

	// DefaultJournalDelay is the pause after each journal to reduce server load.
	DefaultJournalDelay = 5 * time.Second

	// DefaultRequestsPerSecond paces requests against a single OJS host.
	DefaultRequestsPerSecond = 2.0

	// DefaultLogLevel is used when neither the flag nor the config set one.
	DefaultLogLevel = "warn"
)

// Environment variables consulted for credentials.
const (
	EnvUsername = "PNAUDIT_USERNAME"
	EnvPassword = "PNAUDIT_PASSWORD"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigDirPath returns the directory holding the global config.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/pnaudit.
func GlobalConfigDirPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir)
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	dir := GlobalConfigDirPath()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.HistoryDB != "" {
		cfg.HistoryDB = ExpandTilde(cfg.HistoryDB)
	}
	if cfg.JournalDelay != "" {
		if _, err := time.ParseDuration(cfg.JournalDelay); err != nil {
			return nil, fmt.Errorf("parsing global config: journal_delay %q: %w", cfg.JournalDelay, err)
		}
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetManifestURL returns the PN manifest URL, falling back to the PKP default.
func GetManifestURL() string {
	cfg, err := LoadGlobalConfig()
	if err != nil || cfg.ManifestURL == "" {
		return DefaultManifestURL
	}
	return cfg.ManifestURL
}

// GetJournalDelay returns the inter-journal delay.
func GetJournalDelay() time.Duration {
	cfg, err := LoadGlobalConfig()
	if err != nil || cfg.JournalDelay == "" {
		return DefaultJournalDelay
	}
	d, err := time.ParseDuration(cfg.JournalDelay)
	if err != nil || d < 0 {
		return DefaultJournalDelay
	}
	return d
}

// GetRequestsPerSecond returns the per-host request rate.
func GetRequestsPerSecond() float64 {
	cfg, err := LoadGlobalConfig()
	if err != nil || cfg.RequestsPerSecond <= 0 {
		return DefaultRequestsPerSecond
	}
	return cfg.RequestsPerSecond
}

// GetHistoryDBPath returns the audit history database path.
func GetHistoryDBPath() string {
	cfg, err := LoadGlobalConfig()
	if err == nil && cfg.HistoryDB != "" {
		return cfg.HistoryDB
	}
	dir := GlobalConfigDirPath()
	if dir == "" {
		return HistoryDBFile
	}
	return filepath.Join(dir, HistoryDBFile)
}

// GetLogLevel returns the configured log level.
func GetLogLevel() string {
	cfg, err := LoadGlobalConfig()
	if err != nil || cfg.LogLevel == "" {
		return DefaultLogLevel
	}
	return cfg.LogLevel
}

// ExpandTilde expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
