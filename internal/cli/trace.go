package cli

import (
	"github.com/spf13/cobra"

	"github.com/corewing/bp/internal/store"
)

// NewTraceCommand creates the trace command: lists every run header
// recorded in a trace database.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List runs recorded in a trace database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return NewExitError(ExitCommandError, "--trace-db is required")
			}
			db, err := store.Open(dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open trace db", err)
			}
			defer db.Close()

			runs, err := db.ListRuns(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list runs", err)
			}

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			return formatter.Success(runs)
		},
	}

	cmd.Flags().StringVar(&dbPath, "trace-db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("trace-db")

	return cmd
}
