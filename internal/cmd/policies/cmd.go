package policies

import (
	"github.com/spf13/cobra"
)

// Command creates the `policies` command.
func Command(preRun func(cmd *cobra.Command, args []string)) *cobra.Command {
	cmd := &cobra.Command{
		Use:              "policies",
		Short:            "Work with storage policy configurations",
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if preRun != nil {
				preRun(cmd, args)
			}
		},
	}

	cmd.AddCommand(
		ValidateCommand(),
	)

	return cmd
}
