package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newCompile(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Print the commands every switch would receive",
		Long: `'compile' builds the topology of the selected target and prints the ordered
command stream of every switch without contacting any switch. Multicast node
handles are assumed to equal the requested node ids.`,
		Example: `  p4nett compile -m p4app.json
  p4nett compile -m p4app.json -t multiswitch --log.level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			if _, err := e.dryRun(cmd.OutOrStdout()).Install(context.Background()); err != nil {
				return fmt.Errorf("compile: %w", err)
			}
			return nil
		},
	}
}
