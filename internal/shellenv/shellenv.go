// Package shellenv centralizes the environment variables betterhist
// reads and sets, grounded on the original betterhist/cli.py's use of
// SHELL and its own BETTERHIST_* discovery variables.
package shellenv

import "os"

const (
	// Shell is the login shell to spawn under the PTY when none is given
	// explicitly.
	Shell = "SHELL"
	// Server carries "host:port" for a running history HTTP server, set
	// by a subshell session so the `get` subcommand can find it.
	Server = "BETTERHIST_SERVER"
	// Auth carries the bearer token a subshell session generated, set
	// alongside Server.
	Auth = "BETTERHIST_AUTH"
)

// DefaultShell returns $SHELL, or "/bin/bash" if it is unset or empty.
func DefaultShell() string {
	if sh := os.Getenv(Shell); sh != "" {
		return sh
	}
	return "/bin/bash"
}

// ServerAddr returns $BETTERHIST_SERVER and whether it was set.
func ServerAddr() (string, bool) {
	v := os.Getenv(Server)
	return v, v != ""
}

// AuthToken returns $BETTERHIST_AUTH and whether it was set.
func AuthToken() (string, bool) {
	v := os.Getenv(Auth)
	return v, v != ""
}
