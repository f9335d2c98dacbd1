package entities

import "time"

// TargetMapping maps build target names to distribution app identifiers
type TargetMapping map[string]string

// AppID returns the destination app for a build target
func (m TargetMapping) AppID(buildTarget string) (string, bool) {
	id, ok := m[buildTarget]
	return id, ok
}

// RelayConfig is the immutable configuration handed to the relay at startup
type RelayConfig struct {
	Listen      string
	WebhookPath string

	APIBaseURL    string
	APIKey        string
	ProjectGUID   string
	WebhookSecret string // empty disables signature verification
	BuildTargets  TargetMapping

	Distribution DistributionConfig
	TempDir      string
	Log          LogConfig
	Timeouts     TimeoutConfig
}

// DistributionConfig configures uploads to the distribution service
type DistributionConfig struct {
	UploadBaseURL      string
	Token              string
	Strategy           string
	Mandatory          string
	ReleaseNotes       string // text/template over ReleaseNote
	InsecureSkipVerify bool
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// TimeoutConfig bounds every outbound call
type TimeoutConfig struct {
	Connect  time.Duration
	Status   time.Duration
	Download time.Duration
	Upload   time.Duration
}
