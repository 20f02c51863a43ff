package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"p4nett/internal/serrors"
	"p4nett/internal/transcript"
)

func newMcast(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcast",
		Short: "Change multicast groups installed by an earlier run",
		Long: `'mcast' updates or deletes a multicast group on one switch. The group state
is taken from the newest install record of the switch, so a transcript
directory must be configured.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:     "update <switch> <mgid> <port>...",
			Short:   "Replace the ports of a group",
			Example: `  p4nett mcast update s1 1 1 2 3`,
			Args:    cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				nums, err := atoiAll(args[1:])
				if err != nil {
					return err
				}
				return changeGroup(cmd, flags, args[0], nums[0], nums[1:])
			},
		},
		&cobra.Command{
			Use:     "delete <switch> <mgid>",
			Short:   "Destroy a group and its replication nodes",
			Example: `  p4nett mcast delete s1 1`,
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				nums, err := atoiAll(args[1:])
				if err != nil {
					return err
				}
				return changeGroup(cmd, flags, args[0], nums[0], nil)
			},
		},
	)
	return cmd
}

// changeGroup deletes group mgid on sw when ports is nil and updates it
// otherwise.
func changeGroup(cmd *cobra.Command, flags *globalFlags, sw string, mgid int,
	ports []int) error {

	e, err := flags.load()
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	c, err := e.controller(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	var rec *transcript.Record
	if ports == nil {
		rec, err = c.DeleteGroup(context.Background(), sw, mgid)
	} else {
		rec, err = c.UpdateGroup(context.Background(), sw, mgid, ports)
	}
	if err != nil {
		return fmt.Errorf("mcast: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d groups installed (record %s)\n",
		sw, len(rec.Groups), rec.ID)
	return nil
}

func atoiAll(args []string) ([]int, error) {
	res := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 0 {
			return nil, serrors.Join(serrors.ErrConfig, err, "value", a,
				"reason", "expected a non-negative number")
		}
		res = append(res, n)
	}
	return res, nil
}
