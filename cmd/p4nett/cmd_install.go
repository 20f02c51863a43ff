package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newInstall(flags *globalFlags) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Program every switch through its runtime CLI",
		Long: `'install' compiles the selected target and sends each switch its commands,
one switch at a time in name order. Every command and response is printed
unless --quiet is set. The run stops at the first failing switch; switches
programmed before it are left as they are.`,
		Example: `  p4nett install -c p4nett.toml
  p4nett install -m p4app.json --quiet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			out := cmd.OutOrStdout()
			audit := out
			if quiet {
				audit = nil
			}
			c, err := e.controller(audit)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(out, "Installing target '%s'...\n", e.provider.Name())
			recs, err := c.Install(ctx)
			for _, rec := range recs {
				if rec.Error != "" {
					fmt.Fprintf(out, "  ✗ %s (thrift port %d): %s\n", rec.Switch, rec.ThriftPort, rec.Error)
					continue
				}
				fmt.Fprintf(out, "  ✓ %s (thrift port %d): %d commands, %d groups\n",
					rec.Switch, rec.ThriftPort, len(rec.Exchanges), len(rec.Groups))
			}
			if err != nil {
				return fmt.Errorf("install: %w", err)
			}
			if len(recs) > 0 {
				fmt.Fprintf(out, "\n✓ Installed (run %s)\n", recs[0].Run)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the command transcript")
	return cmd
}
