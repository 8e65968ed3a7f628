package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// ErrMissingCredentials is returned when no username or password is available
// from the environment, .env or config file.
var ErrMissingCredentials = errors.New("OJS credentials not configured")

// Credentials holds the OJS account used to sign in to every journal.
type Credentials struct {
	Username string
	Password string
}

// LoadDotEnv loads a .env file from the working directory if present.
// Values already in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// CredentialsFromEnv returns credentials from PNAUDIT_USERNAME/PNAUDIT_PASSWORD,
// falling back to the username in the global config. Password is never read
// from the config file.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		Username: os.Getenv(EnvUsername),
		Password: os.Getenv(EnvPassword),
	}
	if creds.Username == "" {
		if cfg, err := LoadGlobalConfig(); err == nil {
			creds.Username = cfg.Username
		}
	}
	if creds.Username == "" || creds.Password == "" {
		return creds, ErrMissingCredentials
	}
	return creds, nil
}
