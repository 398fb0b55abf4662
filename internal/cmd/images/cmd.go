package images

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/chenhe/lskyctl/internal/credentials"
	"github.com/chenhe/lskyctl/internal/lsky"
	"github.com/chenhe/lskyctl/internal/msg"
)

var lskyClient *lsky.Client

// Command creates the `images` command.
func Command(preRun func(cmd *cobra.Command, args []string)) *cobra.Command {
	var serverURL string
	var token string

	cmd := &cobra.Command{
		Use:              "images",
		Short:            "Interact with images on a Lsky Pro server",
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if preRun != nil {
				preRun(cmd, args)
			}

			creds := credentials.Get()
			if serverURL != "" {
				creds = credentials.Credentials{URL: serverURL, Token: token, Source: "flags"}
			}
			if !creds.IsSet() {
				return errors.New(msg.MissingServerURL)
			}

			lskyClient = lsky.NewClient(creds.URL, creds.Token, 15*time.Minute)

			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&serverURL, "server", "", "The Lsky Pro server URL. Defaults to the configured binding.")
	flags.StringVar(&token, "token", "", "The Lsky Pro API token.")

	cmd.AddCommand(
		UploadCommand(),
		DeleteCommand(),
	)

	return cmd
}
