package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"workq/internal/worker"

	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	var kind string
	var command = &cobra.Command{
		Use:   "sweep",
		Short: "Run one sweep pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()
			kinds, err := parseKinds(kind)
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
			return worker.RunOnce(ctx, sweepers)
		},
	}

	command.Flags().StringVarP(&kind, "kind", "k", "all", "Queue to sweep: job, task or all")
	return command
}
