package policies

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chenhe/lskyctl/internal/credentials"
	"github.com/chenhe/lskyctl/internal/lsky"
	"github.com/chenhe/lskyctl/internal/server"
)

// ValidateCommand creates the `policies validate` command. It performs a throwaway upload and
// delete against the configured server, proving the settings end to end.
func ValidateCommand() *cobra.Command {
	var settingsFile string

	cmd := &cobra.Command{
		Use:          "validate",
		Short:        "Validate a storage policy configuration against the live server.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var props lsky.Properties
			if settingsFile != "" {
				b, err := os.ReadFile(settingsFile)
				if err != nil {
					return fmt.Errorf("failed to read settings file: %w", err)
				}
				props, err = lsky.ParseProperties(string(b))
				if err != nil {
					return err
				}
			} else {
				creds := credentials.Get()
				props = lsky.Properties{URL: creds.URL, Token: creds.Token}
			}

			if err := server.Validate(cmd.Context(), props, 2*time.Minute); err != nil {
				return err
			}

			color.Green("Configuration is valid, the server accepted an upload and a delete.")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&settingsFile, "file", "f", "",
		"Path to a policy settings JSON file. Defaults to the configured binding.",
	)

	return cmd
}
