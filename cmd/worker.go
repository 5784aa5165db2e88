package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"
	"workq/internal/worker"

	"github.com/spf13/cobra"
)

type workerFlags struct {
	kind        string
	interval    time.Duration
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func (f *workerFlags) bind(command *cobra.Command) {
	command.Flags().StringVarP(&f.kind, "kind", "k", "all", "Queue to sweep: job, task or all")
	command.Flags().DurationVar(&f.interval, "interval", 0, "Time between passes (default SWEEP_INTERVAL)")
	command.Flags().DurationVar(&f.baseBackoff, "base-backoff", 0, "Base backoff after a failed pass (default SWEEP_BASE_BACKOFF)")
	command.Flags().DurationVar(&f.maxBackoff, "max-backoff", 0, "Max backoff after failed passes (default SWEEP_MAX_BACKOFF)")
}

func (f *workerFlags) config(base worker.Config) worker.Config {
	if f.interval > 0 {
		base.Interval = f.interval
	}
	if f.baseBackoff > 0 {
		base.BaseBackoff = f.baseBackoff
	}
	if f.maxBackoff > 0 {
		base.MaxBackoff = f.maxBackoff
	}
	return base
}

func workerCmd() *cobra.Command {
	var flags workerFlags

	var command = &cobra.Command{
		Use:   "worker",
		Short: "Start the periodic sweep worker",
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
			return worker.Run(ctx, sweepers, flags.config(worker.Config{
				Interval:    cfg.Sweep.Interval,
				BaseBackoff: cfg.Sweep.BaseBackoff,
				MaxBackoff:  cfg.Sweep.MaxBackoff,
			}))
		},
	}

	flags.bind(command)
	return command
}
