package yaml

import (
	"context"
	"fmt"
	"os"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
)

// KeyringLoader opens the secrets keyring named in the config
type KeyringLoader func(keyringPath string) (SecretDecrypter, error)

// ConfigRepository implements repositories.ConfigRepository using a YAML file
type ConfigRepository struct {
	configPath    string
	parser        *ConfigParser
	isSealed      IsSealedFunc
	keyringLoader KeyringLoader
}

// NewConfigRepository creates a new YAML-based config repository. isSealed
// and keyringLoader may be nil when encrypted secrets are not used.
func NewConfigRepository(configPath string, isSealed IsSealedFunc, keyringLoader KeyringLoader) *ConfigRepository {
	return &ConfigRepository{
		configPath:    configPath,
		parser:        NewConfigParser(),
		isSealed:      isSealed,
		keyringLoader: keyringLoader,
	}
}

// LoadConfig reads, decrypts and validates the relay configuration
func (r *ConfigRepository) LoadConfig(_ context.Context) (*entities.RelayConfig, error) {
	if _, err := os.Stat(r.configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config not found: %s", r.configPath)
	}

	raw, err := r.parser.ParseFile(r.configPath)
	if err != nil {
		return nil, err
	}

	var decrypter SecretDecrypter
	if raw.Sealed(r.isSealed) && raw.SecretsKeyring != "" && r.keyringLoader != nil {
		decrypter, err = r.keyringLoader(raw.SecretsKeyring)
		if err != nil {
			return nil, fmt.Errorf("failed to load secrets keyring: %w", err)
		}
	}

	return raw.Convert(decrypter, r.isSealed)
}
