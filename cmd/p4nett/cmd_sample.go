package main

import (
	"github.com/spf13/cobra"

	"p4nett/internal/config"
)

func newSampleConfig() *cobra.Command {
	return &cobra.Command{
		Use:   "sample-config",
		Short: "Print a sample TOML config",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			var cfg config.Config
			cfg.Sample(cmd.OutOrStdout())
		},
	}
}
