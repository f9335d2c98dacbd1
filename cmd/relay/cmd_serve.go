package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ochairo/cloudbuild-relay/internal/domain/interfaces"
	"github.com/ochairo/cloudbuild-relay/internal/external-adapters/httpserver"
	"github.com/ochairo/cloudbuild-relay/internal/external-adapters/metrics"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Listen for build notifications over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			logger, closer, err := newLogger(cfg, os.Stdout)
			if err != nil {
				return err
			}
			//nolint:errcheck // Defer close on log file
			defer closer.Close()

			recorder := metrics.NewRecorder()
			processor, err := newProcessor(cfg, logger, recorder)
			if err != nil {
				return err
			}

			logger.Info("Relay configured",
				interfaces.F("project_guid", cfg.ProjectGUID),
				interfaces.F("build_targets", len(cfg.BuildTargets)),
				interfaces.F("signature_verification", cfg.WebhookSecret != ""),
				interfaces.F("temp_dir", cfg.TempDir))

			handler := httpserver.NewWebhookHandler(processor, logger)
			server := httpserver.NewServer(cfg, handler, recorder)
			return httpserver.Run(cmd.Context(), server, logger)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Override the configured listen address")
	return cmd
}
