package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aidenappl/tracequery/tables"
	"github.com/spf13/cobra"
)

func newTablesCmd() *cobra.Command {
	var internal bool

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the logical tables and their columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := tables.ForDialect(flagDialect)
			if err != nil {
				return err
			}
			return printTables(cmd.OutOrStdout(), registry, internal)
		},
	}
	cmd.Flags().BoolVar(&internal, "internal", false, "also print each column's SQL expression")
	return cmd
}

func printTables(out io.Writer, registry *tables.Registry, internal bool) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, def := range registry.Tables() {
		for _, c := range def.Columns {
			if internal {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", def.Name, c.Name, c.Type, c.Internal)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Name, c.Name, c.Type)
		}
	}
	return tw.Flush()
}
