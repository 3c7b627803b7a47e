// Package cmd is the tracequery command line.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/aidenappl/tracequery/env"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagDialect   string
	flagLogLevel  string
	flagLogFormat string
)

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tracequery",
		Short:         "Compile and serve dashboard analytics queries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(flagLogLevel, flagLogFormat)
		},
	}

	root.PersistentFlags().StringVar(&flagDialect, "dialect", env.Dialect, "SQL dialect: postgres or clickhouse")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", env.LogLevel, "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", env.LogFormat, "log format: text or json")

	root.AddCommand(newServeCmd(), newCompileCmd(), newTablesCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func configureLogging(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}
