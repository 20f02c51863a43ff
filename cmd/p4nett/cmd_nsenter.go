package main

import (
	"github.com/spf13/cobra"

	"p4nett/internal/runner"
)

// newNsenter is the helper the netns runner re-executes the binary with. It
// joins the namespace and replaces itself with the command after "--".
func newNsenter() *cobra.Command {
	return &cobra.Command{
		Use:    runner.NsenterCommand + " <netns path> -- <command> [args...]",
		Hidden: true,
		Args:   cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runner.Enter(args[0], args[1:])
		},
	}
}
