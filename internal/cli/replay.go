package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corewing/bp/internal/store"
)

// NewReplayCommand creates the replay command: reads a run's persisted
// cycle trace back out of the trace database and prints it, giving a
// concrete artifact to diff a rerun against (SPEC_FULL.md §6).
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Print a run's persisted cycle trace",
		Args:          cobra.ExactArgs(1),
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

			cycles, err := db.ReadCycles(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read cycles", err)
			}
			if len(cycles) == 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("no trace found for run %q", args[0]))
			}

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			return formatter.Success(cycles)
		},
	}

	cmd.Flags().StringVar(&dbPath, "trace-db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("trace-db")

	return cmd
}
