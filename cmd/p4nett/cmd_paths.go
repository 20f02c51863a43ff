package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"p4nett/internal/controller"
	"p4nett/internal/shortestpath"
	"p4nett/internal/topology"
)

func newPaths(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "paths",
		Short:   "Show the route of every switch to every host",
		Example: `  p4nett paths -m p4app.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			topo, err := e.provider.Topology()
			if err != nil {
				return fmt.Errorf("build topology: %w", err)
			}
			routes, err := controller.Routes(topo)
			if err != nil {
				return err
			}
			renderRoutes(cmd.OutOrStdout(), routes)
			renderPartitions(cmd.OutOrStdout(), topo)
			return nil
		},
	}
}

func renderRoutes(w io.Writer, routes []controller.Route) {
	rows := make([][]string, 0, len(routes))
	for _, r := range routes {
		kind, port, next := "transit", strconv.Itoa(r.Port), r.NextHop()
		switch {
		case r.Local:
			kind = "local"
		case len(r.Path) == 0:
			kind, port, next = "unreachable", "-", "-"
		}
		rows = append(rows, []string{
			r.Switch, r.Host, kind, port, next, strings.Join(r.Path, " > "),
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"SWITCH", "HOST", "ROUTE", "PORT", "NEXT HOP", "PATH"})
	table.AppendBulk(rows)
	table.Render()
}

func renderPartitions(w io.Writer, topo *topology.Topology) {
	parts := shortestpath.Partitions(topo)
	if len(parts) < 2 {
		return
	}
	fmt.Fprintf(w, "\nNetwork is split into %d partitions:\n", len(parts))
	for i, p := range parts {
		fmt.Fprintf(w, "  %d: %s\n", i+1, strings.Join(p, " "))
	}
}
