package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stitchkit/stitch/internal"
	cmdutil "github.com/stitchkit/stitch/internal/cmd"
	"github.com/stitchkit/stitch/internal/daemon"
	"github.com/stitchkit/stitch/internal/logr"
)

func main() {
	// Configure ^C to terminate program
	ctx, cancel := context.WithCancel(context.Background())
	cmdutil.CatchCtrlC(cancel)

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		cmdutil.PrintError(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cmd := &cobra.Command{
		Use:           "stitchd",
		Short:         "stitch daemon",
		Long:          "stitchd is the server component of the stitch customer data platform.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       internal.Version,
	}
	cmd.SetOut(out)

	cfg := daemon.LoadConfigFromFlags(cmd.Flags())
	loggerCfg := logr.LoadConfigFromFlags(cmd.Flags())

	// Each flag can also be set with an env variable whose name starts with
	// `STITCH_`.
	cmdutil.SetFlagsFromEnvVariables(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		logger, err := logr.New(loggerCfg)
		if err != nil {
			return err
		}

		d, err := daemon.New(ctx, logger, *cfg)
		if err != nil {
			return err
		}
		// block until ^C received
		return d.Start(ctx, make(chan struct{}))
	}

	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("stitchd: %w", err)
	}
	return nil
}
