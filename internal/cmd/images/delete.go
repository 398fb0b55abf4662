package images

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chenhe/lskyctl/internal/msg"
)

// DeleteCommand creates the `images delete` command.
func DeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "delete <key>",
		Short:        "Delete an image from the Lsky Pro server.",
		SilenceUsage: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == "" {
				return errors.New(msg.MissingImageKey)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := lskyClient.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete image: %v", err)
			}

			fmt.Println("Image deleted successfully!")

			return nil
		},
	}

	return cmd
}
