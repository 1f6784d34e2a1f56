// Command betterhist wraps an interactive shell in a pseudo-terminal and
// makes its history searchable over a local HTTP API.
package main

import (
	"errors"
	"fmt"
	"os"

	"betterhist/internal/cli"
)

func main() {
	err := cli.NewRootCmd().Execute()
	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}

	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
