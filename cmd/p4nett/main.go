package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func main() {
	var flags globalFlags
	cmd := &cobra.Command{
		Use:   filepath.Base(os.Args[0]),
		Short: "p4nett - P4 switch control-plane generator",
		Long: `p4nett compiles a p4app network declaration into forwarding and multicast
commands for every switch and programs them through the runtime CLI.`,
		Args: cobra.NoArgs,
		// Errors are printed below. Commands turn off usage once their
		// arguments are known to be well-formed.
		SilenceErrors: true,
	}
	flags.register(cmd.PersistentFlags())

	cmd.AddCommand(
		newCompile(&flags),
		newInstall(&flags),
		newPaths(&flags),
		newMcast(&flags),
		newRecords(&flags),
		newSampleConfig(),
		newNsenter(),
	)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
