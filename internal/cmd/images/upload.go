package images

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chenhe/lskyctl/internal/lsky"
	"github.com/chenhe/lskyctl/internal/msg"
)

// UploadCommand creates the `images upload` command.
func UploadCommand() *cobra.Command {
	var out string
	var strategyID int
	var albumID int

	cmd := &cobra.Command{
		Use:   "upload filename",
		Short: "Uploads an image file to the Lsky Pro server and returns its key and public URL.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == "" {
				return errors.New(msg.MissingFilename)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer file.Close()
			finfo, err := file.Stat()
			if err != nil {
				return fmt.Errorf("failed to inspect file: %w", err)
			}

			opts := lsky.UploadOptions{}
			if cmd.Flags().Changed("strategy") {
				opts.StrategyID = &strategyID
			}
			if cmd.Flags().Changed("album") {
				opts.AlbumID = &albumID
			}

			bar := newProgressBar(out, finfo.Size(), "Uploading")
			reader := progressbar.NewReader(file, bar)

			resp, err := lskyClient.Upload(cmd.Context(), &reader, finfo.Name(), opts)
			if err != nil {
				return fmt.Errorf("failed to upload file: %w", err)
			}

			switch out {
			case "text":
				println("Success! The key of your image is " + resp.Key)
				println("URL: " + resp.Links.URL)
			case "json":
				if err := renderJSON(resp); err != nil {
					return fmt.Errorf("failed to render output: %w", err)
				}
			default:
				return errors.New(msg.UnknownOutputFormat)
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out, "out", "o", "text",
		"Output format to the console. Options: text, json.",
	)
	flags.IntVar(&strategyID, "strategy", 0, "The server-side storage strategy to use.")
	flags.IntVar(&albumID, "album", 0, "The server-side album to place the image into.")

	return cmd
}

func newProgressBar(outputFormat string, size int64, description ...string) *progressbar.ProgressBar {
	switch outputFormat {
	case "text":
		return progressbar.DefaultBytes(size, description...)
	default:
		return progressbar.DefaultBytesSilent(size, description...)
	}
}

func renderJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
