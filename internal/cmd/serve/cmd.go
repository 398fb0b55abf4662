package serve

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/chenhe/lskyctl/internal/server"
)

// Command creates the `serve` command.
func Command(preRun func(cmd *cobra.Command, args []string)) *cobra.Command {
	var addr string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve the storage backend HTTP API, including policy validation.",
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			if preRun != nil {
				preRun(cmd, args)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return server.New(addr, timeout).Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", ":8090", "The address to listen on.")
	flags.DurationVar(&timeout, "timeout", 2*time.Minute, "Timeout of a validation round trip.")

	return cmd
}
