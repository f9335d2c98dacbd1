// Package yaml provides YAML-based configuration parsing and repository implementations.
package yaml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// Defaults applied when a key is absent
const (
	DefaultListen      = ":8080"
	DefaultWebhookPath = "/webhook"
	DefaultStrategy    = "add"
	DefaultMandatory   = "0"
	DefaultUploadBase  = "https://rink.hockeyapp.net/api/2"

	DefaultConnectTimeout  = 10 * time.Second
	DefaultStatusTimeout   = 30 * time.Second
	DefaultDownloadTimeout = 10 * time.Minute
	DefaultUploadTimeout   = 10 * time.Minute
)

// SecretDecrypter unseals encrypted config values
type SecretDecrypter interface {
	Decrypt(sealed string) (string, error)
}

// IsSealedFunc reports whether a value must be decrypted
type IsSealedFunc func(value string) bool

// yamlConfig represents the raw YAML structure
type yamlConfig struct {
	Listen         string            `yaml:"listen"`
	WebhookPath    string            `yaml:"webhook_path"`
	APIBaseURL     string            `yaml:"api_base_url"`
	APIKey         string            `yaml:"api_key"`
	ProjectGUID    string            `yaml:"project_guid"`
	WebhookSecret  string            `yaml:"webhook_secret"`
	BuildTargets   map[string]string `yaml:"build_targets"`
	Distribution   yamlDistribution  `yaml:"distribution"`
	TempDir        string            `yaml:"temp_dir"`
	Log            yamlLog           `yaml:"log"`
	Timeouts       yamlTimeouts      `yaml:"timeouts"`
	SecretsKeyring string            `yaml:"secrets_keyring"`
}

type yamlDistribution struct {
	UploadBaseURL      string `yaml:"upload_base_url"`
	Token              string `yaml:"token"`
	Strategy           string `yaml:"strategy"`
	Mandatory          string `yaml:"mandatory"`
	ReleaseNotes       string `yaml:"release_notes"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

type yamlLog struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type yamlTimeouts struct {
	Connect  time.Duration `yaml:"connect"`
	Status   time.Duration `yaml:"status"`
	Download time.Duration `yaml:"download"`
	Upload   time.Duration `yaml:"upload"`
}

// ConfigParser parses YAML relay configuration files
type ConfigParser struct{}

// NewConfigParser creates a new YAML parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// ParseFile reads and parses a config file
//
//nolint:revive // unexported-return: raw config is only consumed through Convert
func (p *ConfigParser) ParseFile(filePath string) (*yamlConfig, error) {
	//nolint:gosec // G304: filePath is the operator-supplied config path
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into the raw config structure
//
//nolint:revive // unexported-return: raw config is only consumed through Convert
func (p *ConfigParser) Parse(data []byte) (*yamlConfig, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &raw, nil
}

// Sealed reports whether any secret field needs decryption
func (c *yamlConfig) Sealed(isSealed IsSealedFunc) bool {
	if isSealed == nil {
		return false
	}
	return isSealed(c.APIKey) || isSealed(c.WebhookSecret) || isSealed(c.Distribution.Token)
}

// Convert decrypts sealed secrets, applies defaults and validates. decrypter
// may be nil when no value is sealed.
func (c *yamlConfig) Convert(decrypter SecretDecrypter, isSealed IsSealedFunc) (*entities.RelayConfig, error) {
	apiKey, err := unseal("api_key", c.APIKey, decrypter, isSealed)
	if err != nil {
		return nil, err
	}
	webhookSecret, err := unseal("webhook_secret", c.WebhookSecret, decrypter, isSealed)
	if err != nil {
		return nil, err
	}
	token, err := unseal("distribution.token", c.Distribution.Token, decrypter, isSealed)
	if err != nil {
		return nil, err
	}

	targets := make(entities.TargetMapping, len(c.BuildTargets))
	for name, appID := range c.BuildTargets {
		targets[name] = strings.TrimSpace(appID)
	}

	cfg := &entities.RelayConfig{
		Listen:        orDefault(c.Listen, DefaultListen),
		WebhookPath:   orDefault(c.WebhookPath, DefaultWebhookPath),
		APIBaseURL:    strings.TrimSuffix(strings.TrimSpace(c.APIBaseURL), "/"),
		APIKey:        apiKey,
		ProjectGUID:   strings.TrimSpace(c.ProjectGUID),
		WebhookSecret: webhookSecret,
		BuildTargets:  targets,
		Distribution: entities.DistributionConfig{
			UploadBaseURL:      strings.TrimSuffix(orDefault(c.Distribution.UploadBaseURL, DefaultUploadBase), "/"),
			Token:              token,
			Strategy:           orDefault(c.Distribution.Strategy, DefaultStrategy),
			Mandatory:          orDefault(c.Distribution.Mandatory, DefaultMandatory),
			ReleaseNotes:       c.Distribution.ReleaseNotes,
			InsecureSkipVerify: c.Distribution.InsecureSkipVerify,
		},
		TempDir: orDefault(c.TempDir, filepath.Join(os.TempDir(), "cloudbuild-relay")),
		Log: entities.LogConfig{
			Level:  orDefault(c.Log.Level, "info"),
			Format: orDefault(c.Log.Format, "text"),
			File:   c.Log.File,
		},
		Timeouts: entities.TimeoutConfig{
			Connect:  durationOrDefault(c.Timeouts.Connect, DefaultConnectTimeout),
			Status:   durationOrDefault(c.Timeouts.Status, DefaultStatusTimeout),
			Download: durationOrDefault(c.Timeouts.Download, DefaultDownloadTimeout),
			Upload:   durationOrDefault(c.Timeouts.Upload, DefaultUploadTimeout),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unseal(field, value string, decrypter SecretDecrypter, isSealed IsSealedFunc) (string, error) {
	if isSealed == nil || !isSealed(value) {
		return strings.TrimSpace(value), nil
	}
	if decrypter == nil {
		return "", fmt.Errorf("%s is encrypted but no secrets keyring is configured", field)
	}
	plain, err := decrypter.Decrypt(value)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt %s: %w", field, err)
	}
	return plain, nil
}

func validate(cfg *entities.RelayConfig) error {
	var errs []error
	if cfg.APIBaseURL == "" {
		errs = append(errs, errors.New("api_base_url is required"))
	}
	if cfg.APIKey == "" {
		errs = append(errs, errors.New("api_key is required"))
	}
	if cfg.ProjectGUID == "" {
		errs = append(errs, errors.New("project_guid is required"))
	}
	if len(cfg.BuildTargets) == 0 {
		errs = append(errs, errors.New("build_targets must map at least one build target"))
	}
	for name, appID := range cfg.BuildTargets {
		if appID == "" {
			errs = append(errs, fmt.Errorf("build_targets.%s has no app id", name))
		}
	}
	if cfg.Distribution.Token == "" {
		errs = append(errs, errors.New("distribution.token is required"))
	}
	if !strings.HasPrefix(cfg.WebhookPath, "/") {
		errs = append(errs, errors.New("webhook_path must start with /"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func durationOrDefault(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
