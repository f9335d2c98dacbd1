package yaml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigRepository_LoadConfig(t *testing.T) {
	repo := NewConfigRepository(writeConfig(t, validConfig), nil, nil)

	cfg, err := repo.LoadConfig(context.Background())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ProjectGUID != "0f1e2d3c" {
		t.Errorf("ProjectGUID = %v, want 0f1e2d3c", cfg.ProjectGUID)
	}
	if len(cfg.BuildTargets) != 2 {
		t.Errorf("BuildTargets count = %d, want 2", len(cfg.BuildTargets))
	}
}

func TestConfigRepository_NotFound(t *testing.T) {
	repo := NewConfigRepository("/nonexistent/relay.yml", nil, nil)

	_, err := repo.LoadConfig(context.Background())
	if err == nil || !strings.Contains(err.Error(), "config not found") {
		t.Errorf("LoadConfig() error = %v, want not found", err)
	}
}

func TestConfigRepository_UsesKeyringLoader(t *testing.T) {
	path := writeConfig(t, `api_base_url: https://example.com
api_key: "sealed:abc"
project_guid: p
build_targets: {t: "1"}
distribution: {token: plain}
secrets_keyring: /etc/relay/keys.asc
`)

	var loadedPath string
	loader := func(p string) (SecretDecrypter, error) {
		loadedPath = p
		return &fakeDecrypter{plain: "key"}, nil
	}

	cfg, err := NewConfigRepository(path, sealedPrefix, loader).LoadConfig(context.Background())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loadedPath != "/etc/relay/keys.asc" {
		t.Errorf("keyring loaded from %q", loadedPath)
	}
	if cfg.APIKey != "key" {
		t.Errorf("APIKey = %q, want key", cfg.APIKey)
	}
}

func TestConfigRepository_KeyringLoadFailure(t *testing.T) {
	path := writeConfig(t, `api_key: "sealed:abc"
secrets_keyring: /missing.asc
`)
	loader := func(string) (SecretDecrypter, error) {
		return nil, errors.New("no such file")
	}

	_, err := NewConfigRepository(path, sealedPrefix, loader).LoadConfig(context.Background())
	if err == nil || !strings.Contains(err.Error(), "secrets keyring") {
		t.Errorf("LoadConfig() error = %v, want keyring failure", err)
	}
}
