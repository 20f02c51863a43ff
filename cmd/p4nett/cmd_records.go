package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"p4nett/internal/serrors"
	"p4nett/internal/transcript"
)

func newRecords(flags *globalFlags) *cobra.Command {
	var show string
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"ls"},
		Short:   "List install records",
		Example: `  p4nett records -c p4nett.toml
  p4nett records -c p4nett.toml --show 3f9a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			repo, err := e.records()
			if err != nil {
				return err
			}
			if repo == nil {
				return serrors.Join(serrors.ErrConfig, nil, "field", "transcript.dir",
					"reason", "no transcript directory configured")
			}
			recs, err := repo.List()
			if err != nil {
				return fmt.Errorf("list records: %w", err)
			}
			if show != "" {
				return showRecord(cmd, recs, show)
			}
			listRecords(cmd, recs)
			return nil
		},
	}
	cmd.Flags().StringVar(&show, "show", "", "print the exchanges of the record with this id prefix")
	return cmd
}

func listRecords(cmd *cobra.Command, recs []*transcript.Record) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-12s  %-12s  %-10s  %-8s  %-8s  %-6s  %s\n",
		"RECORD ID", "RUN", "SWITCH", "COMMANDS", "GROUPS", "STATUS", "CREATED")

	for _, r := range recs {
		status := "ok"
		if r.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(out, "%-12s  %-12s  %-10s  %-8d  %-8d  %-6s  %s\n",
			r.ID,
			r.Run,
			r.Switch,
			len(r.Exchanges),
			len(r.Groups),
			status,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
}

func showRecord(cmd *cobra.Command, recs []*transcript.Record, prefix string) error {
	var rec *transcript.Record
	for _, r := range recs {
		if strings.HasPrefix(r.ID, prefix) {
			rec = r
			break
		}
	}
	if rec == nil {
		return serrors.Join(serrors.ErrLookup, nil, "record", prefix)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s run %s target %s\n", rec.Switch, rec.Run, rec.Target)
	for _, x := range rec.Exchanges {
		fmt.Fprintln(out, x.Command)
		if x.Response != "" {
			for _, line := range strings.Split(x.Response, "\n") {
				fmt.Fprintf(out, "  %s\n", line)
			}
		}
		if x.Error != "" {
			fmt.Fprintf(out, "  error: %s\n", x.Error)
		}
	}
	if rec.Error != "" {
		fmt.Fprintf(out, "# failed: %s\n", rec.Error)
	}
	return nil
}
