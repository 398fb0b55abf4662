package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/chenhe/lskyctl/internal/cmd/configure"
	"github.com/chenhe/lskyctl/internal/cmd/images"
	"github.com/chenhe/lskyctl/internal/cmd/policies"
	"github.com/chenhe/lskyctl/internal/cmd/serve"
	"github.com/chenhe/lskyctl/internal/version"
)

var (
	cmdUse   = "lskyctl [OPTIONS] COMMAND [ARG...]"
	cmdShort = "lskyctl"
	cmdLong  = `lskyctl manages images on a Lsky Pro server and serves the storage backend API
for content-management hosts that delegate attachment storage to it.`
)

func main() {
	cmd := &cobra.Command{
		Use:              cmdUse,
		Short:            cmdShort,
		Long:             cmdLong,
		SilenceUsage:     true,
		TraverseChildren: true,
		Version:          fmt.Sprintf("%s\n(build %s)", version.Version, version.GitCommit),
	}

	cmd.SetVersionTemplate("lskyctl version {{.Version}}\n")
	cmd.Flags().BoolP("version", "v", false, "print version")

	verbosity := cmd.PersistentFlags().Bool("verbose", false, "turn on verbose logging")
	noColor := cmd.PersistentFlags().Bool("no-color", false, "disable colorized output")

	cmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		setupLogging(*verbosity, *noColor)
	}

	cmd.AddCommand(
		images.Command(cmd.PersistentPreRun),
		policies.Command(cmd.PersistentPreRun),
		serve.Command(cmd.PersistentPreRun),
		configure.Command(),
	)

	if err := cmd.ExecuteContext(newContext()); err != nil {
		os.Exit(1)
	}
}

func setupLogging(verbose bool, noColor bool) {
	color.NoColor = noColor
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.DurationFieldInteger = true
	timeFormat := "15:04:05"
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		zerolog.TimeFieldFormat = time.RFC3339Nano
		timeFormat = "15:04:05.000"
	}

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().In(time.Local)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: timeFormat, NoColor: noColor})
}

// newContext returns a new context that is canceled when a SIGINT is received.
func newContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	go func() {
		for range signals {
			if ctx.Err() != nil {
				os.Exit(1)
			}

			println("\nWaiting for any in-progress actions to stop... (press Ctrl-c again to exit without waiting)\n")
			cancel()
		}
	}()

	return ctx
}
