// Package cli wires betterhist's cobra commands, grounded on the
// teacher's internal/cmd package: one file per subcommand, newXxxCmd()
// constructors, RunE closures, and fmt.Errorf("...: %w", err) wrapping.
package cli

import (
	"github.com/spf13/cobra"

	"betterhist/internal/version"
)

// NewRootCmd creates the root cobra command with all subcommands. With no
// subcommand given it either starts a new wrapped-shell session, or, if
// already running inside one (BETTERHIST_SERVER is set), prints the most
// recent captured command the way the original CLI's nested-shell
// shortcut did.
func NewRootCmd() *cobra.Command {
	opts := &sessionOptions{}

	rootCmd := &cobra.Command{
		Use:   "betterhist",
		Short: "Wrap an interactive shell and make its history searchable",
		Long: "betterhist wraps your login shell in a pseudo-terminal, splits the " +
			"resulting byte stream into user-input and command-output epochs, and " +
			"stores a rendered snapshot of each over a local HTTP API.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDefault(cmd, opts)
		},
		// main.go prints errors itself so it can distinguish a wrapped
		// shell's propagated exit status from an ordinary CLI failure.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.Flags().BoolVar(&opts.dumpOnExit, "dump-on-exit", false,
		"print a Markdown dump of every captured command when the shell exits")

	rootCmd.AddCommand(
		newGetCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the betterhist version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(version.DisplayVersion())
			return nil
		},
	}
}
