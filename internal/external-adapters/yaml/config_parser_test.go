package yaml

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const validConfig = `listen: ":9090"
api_base_url: https://build-api.cloud.unity3d.com/
api_key: YWJjOmRlZg==
project_guid: 0f1e2d3c
webhook_secret: hush
build_targets:
  ios-adhoc: "1111"
  android-adhoc: "2222"
distribution:
  token: dist-token
  strategy: replace
  mandatory: "1"
  release_notes: "{{.ProjectName}} #{{.BuildNumber}}"
temp_dir: /var/tmp/relay
log:
  level: debug
  format: json
timeouts:
  status: 5s
  download: 2m
`

func TestConfigParser_Parse_Valid(t *testing.T) {
	raw, err := NewConfigParser().Parse([]byte(validConfig))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := raw.Convert(nil, nil)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("Listen = %v, want :9090", cfg.Listen)
	}
	if cfg.WebhookPath != DefaultWebhookPath {
		t.Errorf("WebhookPath = %v, want %v", cfg.WebhookPath, DefaultWebhookPath)
	}
	if cfg.APIBaseURL != "https://build-api.cloud.unity3d.com" {
		t.Errorf("APIBaseURL = %v, trailing slash should be trimmed", cfg.APIBaseURL)
	}
	if cfg.WebhookSecret != "hush" {
		t.Errorf("WebhookSecret = %v, want hush", cfg.WebhookSecret)
	}
	if appID, ok := cfg.BuildTargets.AppID("android-adhoc"); !ok || appID != "2222" {
		t.Errorf("BuildTargets[android-adhoc] = %v, %v", appID, ok)
	}
	if cfg.Distribution.Strategy != "replace" || cfg.Distribution.Mandatory != "1" {
		t.Errorf("Distribution = %+v", cfg.Distribution)
	}
	if cfg.Distribution.UploadBaseURL != DefaultUploadBase {
		t.Errorf("UploadBaseURL = %v, want default", cfg.Distribution.UploadBaseURL)
	}
	if cfg.Distribution.InsecureSkipVerify {
		t.Error("InsecureSkipVerify should default to false")
	}
	if cfg.Timeouts.Status != 5*time.Second {
		t.Errorf("Timeouts.Status = %v, want 5s", cfg.Timeouts.Status)
	}
	if cfg.Timeouts.Download != 2*time.Minute {
		t.Errorf("Timeouts.Download = %v, want 2m", cfg.Timeouts.Download)
	}
	if cfg.Timeouts.Upload != DefaultUploadTimeout || cfg.Timeouts.Connect != DefaultConnectTimeout {
		t.Errorf("Timeouts defaults not applied: %+v", cfg.Timeouts)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestConfigParser_Parse_MissingRequired(t *testing.T) {
	raw, err := NewConfigParser().Parse([]byte(`api_base_url: https://example.com
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	_, err = raw.Convert(nil, nil)
	if err == nil {
		t.Fatal("Convert() should fail without required fields")
	}
	for _, want := range []string{"api_key", "project_guid", "build_targets", "distribution.token"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestConfigParser_Parse_InvalidYAML(t *testing.T) {
	if _, err := NewConfigParser().Parse([]byte("build_targets: [unclosed")); err == nil {
		t.Fatal("Parse() should fail for invalid YAML")
	}
}

type fakeDecrypter struct {
	plain string
	err   error
	calls int
}

func (f *fakeDecrypter) Decrypt(_ string) (string, error) {
	f.calls++
	return f.plain, f.err
}

func sealedPrefix(value string) bool {
	return strings.HasPrefix(value, "sealed:")
}

func TestConfig_Convert_DecryptsSealedSecrets(t *testing.T) {
	raw, err := NewConfigParser().Parse([]byte(`api_base_url: https://example.com
api_key: "sealed:abc"
project_guid: p
build_targets: {t: "1"}
distribution:
  token: "sealed:def"
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !raw.Sealed(sealedPrefix) {
		t.Fatal("Sealed() = false, want true")
	}

	d := &fakeDecrypter{plain: "opened"}
	cfg, err := raw.Convert(d, sealedPrefix)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if cfg.APIKey != "opened" || cfg.Distribution.Token != "opened" {
		t.Errorf("secrets not decrypted: key=%q token=%q", cfg.APIKey, cfg.Distribution.Token)
	}
	if d.calls != 2 {
		t.Errorf("Decrypt called %d times, want 2", d.calls)
	}
}

func TestConfig_Convert_SealedWithoutKeyring(t *testing.T) {
	raw, err := NewConfigParser().Parse([]byte(`api_key: "sealed:abc"`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	_, err = raw.Convert(nil, sealedPrefix)
	if err == nil || !strings.Contains(err.Error(), "no secrets keyring") {
		t.Errorf("Convert() error = %v, want keyring error", err)
	}
}

func TestConfig_Convert_DecryptFailure(t *testing.T) {
	raw, err := NewConfigParser().Parse([]byte(`webhook_secret: "sealed:abc"`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	boom := errors.New("bad key")
	_, err = raw.Convert(&fakeDecrypter{err: boom}, sealedPrefix)
	if !errors.Is(err, boom) {
		t.Errorf("Convert() error = %v, want wrapped %v", err, boom)
	}
}
