package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command: compiles a scenario
// fixture without running it, surfacing compile/parse errors with their
// source position.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario-file>",
		Short: "Validate a scenario fixture without running it",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadScenarioFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "scenario is invalid", err)
			}
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			return formatter.Success(fmt.Sprintf("%s: valid (%d bthreads, %d external events)",
				spec.Name, len(spec.BThreads), len(spec.ExternalEvents)))
		},
	}
	return cmd
}
