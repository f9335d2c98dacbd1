package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ochairo/cloudbuild-relay/internal/domain/services"
)

func newSignCommand(opts *globalOptions) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "sign <body-file|->",
		Short: "Print the signature the relay expects for a webhook body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			if secret == "" {
				cfg, err := loadConfig(cmd.Context(), opts)
				if err != nil {
					return err
				}
				secret = cfg.WebhookSecret
			}
			if secret == "" {
				return fmt.Errorf("no webhook secret configured")
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), services.ComputeSignature(body, secret))
			return err
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Webhook secret (defaults to the configured one)")
	return cmd
}
