package cmd

import (
	"context"
	"fmt"
	"workq/internal/app"
	"workq/internal/config"
	"workq/internal/domain"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func Run() {
	var command = &cobra.Command{
		Use:   "workq",
		Short: "Polling job and task engine",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	command.AddCommand(sweepCmd())
	command.AddCommand(workerCmd())
	command.AddCommand(apiCmd())
	command.AddCommand(serveCmd())
	command.AddCommand(migrateCmd())

	if err := command.Execute(); err != nil {
		log.Fatal().Msgf("failed to execute command, err: %v", err.Error())
	}
}

// setup loads configuration and applies its log level. Handlers log through
// log.Ctx, which falls back to the global logger.
func setup() *config.Config {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DefaultContextLogger = &log.Logger
	return cfg
}

func openApp(ctx context.Context, cfg *config.Config) (*app.App, error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	log.Info().Str("backend", cfg.Backend).Msg("store ready")
	return a, nil
}

// parseKinds maps the --kind flag to queue kinds. "all" means both.
func parseKinds(s string) ([]domain.Kind, error) {
	if s == "" || s == "all" {
		return nil, nil
	}
	k, err := domain.ParseKind(s)
	if err != nil {
		return nil, err
	}
	return []domain.Kind{k}, nil
}
