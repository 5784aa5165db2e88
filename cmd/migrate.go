package cmd

import (
	"errors"
	"workq/internal/infra/postgres"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()
			if cfg.Postgres.URL == "" {
				return errors.New("migrate needs DATABASE_URL")
			}
			version, err := postgres.Migrate(cfg.Postgres.URL)
			if err != nil {
				return err
			}
			log.Info().Uint("version", version).Msg("schema up to date")
			return nil
		},
	}
}
