package services

import (
	"testing"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
)

func TestReleaseNotes_Render(t *testing.T) {
	n := &entities.BuildNotification{
		ProjectName:     "Space Game",
		Platform:        entities.PlatformAndroid,
		BuildNumber:     7,
		BuildTargetName: "android-adhoc",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"default template", "", "Space Game (android) build #7"},
		{"custom template", "{{.BuildTargetName}}: {{.ProjectName}} v{{.BuildNumber}}", "android-adhoc: Space Game v7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes, err := NewReleaseNotes(tt.template)
			if err != nil {
				t.Fatalf("NewReleaseNotes() error = %v", err)
			}
			got, err := notes.Render(n)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewReleaseNotes_InvalidTemplate(t *testing.T) {
	if _, err := NewReleaseNotes("{{.ProjectName"); err == nil {
		t.Fatal("NewReleaseNotes() should fail for an unterminated action")
	}
}

func TestReleaseNotes_UnknownField(t *testing.T) {
	notes, err := NewReleaseNotes("{{.Branch}}")
	if err != nil {
		t.Fatalf("NewReleaseNotes() error = %v", err)
	}
	if _, err := notes.Render(&entities.BuildNotification{}); err == nil {
		t.Fatal("Render() should fail for a field ReleaseNote does not have")
	}
}

func TestRunID(t *testing.T) {
	id := NewRunID()
	if len(id) != 36 {
		t.Errorf("NewRunID() = %q, want a UUID", id)
	}
	if ShortRunID(id) != id[:8] {
		t.Errorf("ShortRunID() = %q", ShortRunID(id))
	}
	if ShortRunID("abc") != "abc" {
		t.Errorf("ShortRunID() should keep short ids")
	}
}
