// Package main provides the relay CLI that republishes cloud builds to the
// distribution service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ochairo/cloudbuild-relay/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/cloudbuild-relay/internal/domain-orchestrators"
	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
	"github.com/ochairo/cloudbuild-relay/internal/domain/interfaces"
	"github.com/ochairo/cloudbuild-relay/internal/domain/interfaces/repositories"
	"github.com/ochairo/cloudbuild-relay/internal/external-adapters/gpg"
	"github.com/ochairo/cloudbuild-relay/internal/external-adapters/logging"
	"github.com/ochairo/cloudbuild-relay/internal/external-adapters/yaml"
)

const (
	defaultConfigPath = "relay.yaml"

	// keyringPassphraseEnv unlocks a passphrase-protected secrets keyring
	keyringPassphraseEnv = "RELAY_KEYRING_PASSPHRASE"
)

// globalOptions are shared by every subcommand
type globalOptions struct {
	configPath string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "relay",
		Short:         "Relay finished cloud builds to the distribution service",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to the relay configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCommand(opts),
		newProcessCommand(opts),
		newSignCommand(opts),
		newSealSecretCommand(),
	)
	return root
}

// loadConfig reads the config file, unsealing secrets with the configured keyring
func loadConfig(ctx context.Context, opts *globalOptions) (*entities.RelayConfig, error) {
	var repo repositories.ConfigRepository = yaml.NewConfigRepository(opts.configPath, gpg.IsSealed, loadKeyring)
	cfg, err := repo.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, nil
}

func loadKeyring(path string) (yaml.SecretDecrypter, error) {
	decrypter := gpg.NewDecrypter()
	if err := decrypter.ImportKeyFromFile(path, []byte(os.Getenv(keyringPassphraseEnv))); err != nil {
		return nil, err
	}
	return decrypter, nil
}

// newLogger builds the process logger; the closer must be closed on exit
func newLogger(cfg *entities.RelayConfig, fallback io.Writer) (*logging.Logger, io.Closer, error) {
	logger, closer, err := logging.FromConfig(cfg.Log, fallback)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	return logger, closer, nil
}

// newProcessor wires the production gateways into a webhook processor
func newProcessor(cfg *entities.RelayConfig, logger interfaces.Logger, recorder orchestrators.Recorder) (*orchestrators.WebhookProcessor, error) {
	return orchestrators.NewWebhookProcessor(
		*cfg,
		gateways.NewBuildStatusClient(cfg.Timeouts, logger),
		gateways.NewDownloaders(cfg.Timeouts, logger),
		gateways.NewDistributionUploader(cfg.Distribution, cfg.Timeouts, logger),
		logger,
		recorder,
	)
}
