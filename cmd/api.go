package cmd

import (
	"workq/internal/api"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func apiCmd() *cobra.Command {
	var port int
	var command = &cobra.Command{
		Use:   "api",
		Short: "Start the admin API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if port == 0 {
				port = cfg.API.Port
			}
			log.Info().Msgf("API server using %s store", cfg.Backend)
			return api.NewServer(a).Run(cmd.Context(), port)
		},
	}

	command.Flags().IntVarP(&port, "port", "p", 0, "Port to run the server on (default API_PORT)")
	return command
}
