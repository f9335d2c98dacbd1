package services

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
)

// DefaultReleaseNotes is used when no template is configured
const DefaultReleaseNotes = "{{.ProjectName}} ({{.Platform}}) build #{{.BuildNumber}}"

// ReleaseNotes renders the message attached to every upload
type ReleaseNotes struct {
	tmpl *template.Template
}

// NewReleaseNotes compiles the release-notes template
func NewReleaseNotes(text string) (*ReleaseNotes, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultReleaseNotes
	}
	tmpl, err := template.New("release-notes").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid release notes template: %w", err)
	}
	return &ReleaseNotes{tmpl: tmpl}, nil
}

// Render formats the release note for a notification
func (r *ReleaseNotes) Render(n *entities.BuildNotification) (string, error) {
	var sb strings.Builder
	note := entities.ReleaseNote{
		ProjectName:     n.ProjectName,
		Platform:        n.Platform,
		BuildNumber:     n.BuildNumber,
		BuildTargetName: n.BuildTargetName,
	}
	if err := r.tmpl.Execute(&sb, note); err != nil {
		return "", fmt.Errorf("failed to render release notes: %w", err)
	}
	return sb.String(), nil
}
