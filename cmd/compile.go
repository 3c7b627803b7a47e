package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aidenappl/tracequery/structs"
	"github.com/spf13/cobra"
)

func newCompileCmd() *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Print the SQL a query request compiles to",
		Long:  "Reads a JSON query request from file, or stdin when file is omitted or \"-\", and prints the compiled SQL.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return compile(in, cmd.OutOrStdout(), projectID)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id to scope the query to (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func compile(in io.Reader, out io.Writer, projectID string) error {
	var req structs.QueryRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("invalid query request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	builder, err := newBuilder(flagDialect)
	if err != nil {
		return err
	}

	sql, err := builder.Assemble(&req, projectID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, sql)
	return err
}
