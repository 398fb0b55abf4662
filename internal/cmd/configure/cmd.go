package configure

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chenhe/lskyctl/internal/credentials"
	"github.com/chenhe/lskyctl/internal/msg"
)

// Command creates the `configure` command.
func Command() *cobra.Command {
	var serverURL string
	var token string

	cmd := &cobra.Command{
		Use:          "configure",
		Short:        "Persist your Lsky Pro server binding locally",
		Example:      "lskyctl configure --server https://img.example.com --token <token>",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			if serverURL == "" {
				return errors.New(msg.EmptyServerURL)
			}

			creds := credentials.Credentials{URL: serverURL, Token: token}
			if err := credentials.ToFile(creds); err != nil {
				return err
			}

			color.Green("Server binding saved.")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&serverURL, "server", "", "The Lsky Pro server URL.")
	flags.StringVar(&token, "token", "", "The Lsky Pro API token. Leave empty for anonymous access.")

	return cmd
}
