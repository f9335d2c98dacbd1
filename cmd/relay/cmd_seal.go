package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/cloudbuild-relay/internal/external-adapters/gpg"
)

// maxSecretSize bounds what seal-secret reads from stdin
const maxSecretSize = 64 * 1024

func newSealSecretCommand() *cobra.Command {
	var publicKey string

	cmd := &cobra.Command{
		Use:   "seal-secret",
		Short: "Encrypt a secret read from stdin for use in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if publicKey == "" {
				return fmt.Errorf("--public-key is required")
			}

			secret, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxSecretSize))
			if err != nil {
				return fmt.Errorf("failed to read secret: %w", err)
			}
			plaintext := strings.TrimSpace(string(secret))
			if plaintext == "" {
				return fmt.Errorf("empty secret")
			}

			//nolint:gosec // G304: path is an operator-supplied CLI flag
			f, err := os.Open(publicKey)
			if err != nil {
				return fmt.Errorf("failed to open public key: %w", err)
			}
			//nolint:errcheck // Defer close on read-only file
			defer f.Close()

			sealed, err := gpg.Seal(f, plaintext)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), sealed)
			return err
		},
	}

	cmd.Flags().StringVar(&publicKey, "public-key", "", "Armored public key file of the relay's secrets keyring")
	return cmd
}
