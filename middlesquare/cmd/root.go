// Package cmd provides the command-line interface of middlesquare.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// NewRootCommand creates the base command with all its subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "middlesquare",
		Short: "Middle-square pseudo-random bit streams.",
		Long: `middlesquare squares a seed, keeps the middle digits as the ` +
			`next seed, and prints every kept value in binary as one ` +
			`continuous stream.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newGenerateCommand())

	return rootCmd
}

// Execute runs the root command. Registered exit handlers run before the
// process exits on failure.
func Execute(ctx context.Context) {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		atexit.Exit(1)
	}
}
