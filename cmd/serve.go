package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"workq/internal/api"
	"workq/internal/worker"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	var (
		port  int
		flags workerFlags
	)

	var command = &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API and the sweep worker in one process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()
			kinds, err := parseKinds(flags.kind)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			sweepers, err := a.SweepersFor(kinds)
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.API.Port
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return api.NewServer(a).Run(ctx, port)
			})
			g.Go(func() error {
				return worker.Run(ctx, sweepers, flags.config(worker.Config{
					Interval:    cfg.Sweep.Interval,
					BaseBackoff: cfg.Sweep.BaseBackoff,
					MaxBackoff:  cfg.Sweep.MaxBackoff,
				}))
			})
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	command.Flags().IntVarP(&port, "port", "p", 0, "Port to run the server on (default API_PORT)")
	flags.bind(command)
	return command
}
