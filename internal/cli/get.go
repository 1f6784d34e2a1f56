package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"betterhist/internal/bhconfig"
	"betterhist/internal/shellenv"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <index>",
		Short: "Print one captured command as a Markdown-fenced block",
		Long: "get retrieves entry <index> (negative indices count from the most " +
			"recent) from the running session's history and prints it as a " +
			"fenced shell block, combining the user's typed input with the " +
			"command's rendered output.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index must be an integer: %w", err)
			}
			return runGet(cmd, index)
		},
	}
	// Negative indices (e.g. "-1" for the most recent entry) look like
	// flags to pflag; this subcommand takes no flags of its own, so
	// disabling flag parsing lets them through as plain positional args.
	cmd.DisableFlagParsing = true
	return cmd
}

func runGet(cmd *cobra.Command, index int) error {
	server, ok := shellenv.ServerAddr()
	if !ok {
		return fmt.Errorf("not inside a betterhist session (%s is not set)", shellenv.Server)
	}
	token, ok := shellenv.AuthToken()
	if !ok {
		return fmt.Errorf("not inside a betterhist session (%s is not set)", shellenv.Auth)
	}

	cfg, err := bhconfig.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	snap, err := fetchSnapshot(server, token, historyName(cfg), index)
	if err != nil {
		return fmt.Errorf("get entry %d: %w", index, err)
	}

	cmd.Println(renderMarkdown(snap.UserView, snap.CommandView))
	return nil
}
