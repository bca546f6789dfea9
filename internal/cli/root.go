// Package cli implements the gradectl command line tool.
package cli

import (
	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the gradectl command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gradectl",
		Short:         "Grade statistics, curve previews and the grading API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newCurveCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}
