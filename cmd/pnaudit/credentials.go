package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ojs-tools/pnaudit/internal/config"
	"github.com/ojs-tools/pnaudit/internal/ojs"
	"golang.org/x/term"
)

// mustGetCredentials returns OJS credentials from the environment, .env or
// config, prompting on the terminal for whatever is missing.
func mustGetCredentials() ojs.Credentials {
	creds, err := config.CredentialsFromEnv()
	if err == nil {
		return ojs.Credentials{Username: creds.Username, Password: creds.Password}
	}
	if !errors.Is(err, config.ErrMissingCredentials) {
		exitWithError(ExitConfigError, "%v", err)
	}

	reader := bufio.NewReader(os.Stdin)
	if creds.Username == "" {
		fmt.Fprint(os.Stderr, "Username: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			exitWithError(ExitConfigError, "%v: reading username: %v", config.ErrMissingCredentials, err)
		}
		creds.Username = strings.TrimSpace(line)
	}
	if creds.Password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		password, err := readPassword(reader)
		if err != nil {
			exitWithError(ExitConfigError, "%v: reading password: %v", config.ErrMissingCredentials, err)
		}
		creds.Password = password
	}

	if creds.Username == "" || creds.Password == "" {
		exitWithError(ExitConfigError, "%v\n\nSet %s and %s or enter them when prompted.",
			config.ErrMissingCredentials, config.EnvUsername, config.EnvPassword)
	}
	return ojs.Credentials{Username: creds.Username, Password: creds.Password}
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
