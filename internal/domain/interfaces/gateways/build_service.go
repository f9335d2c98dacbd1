// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
)

// BuildStatusClient fetches build metadata from the build service API
type BuildStatusClient interface {
	// FetchStatus returns the raw status body for the notification's self link
	FetchStatus(ctx context.Context, apiKey, apiBaseURL string, notification *entities.BuildNotification) ([]byte, error)
}

// ArtifactDownloader fetches the artifacts of one platform into a directory.
// On error the returned set holds whatever was written before the failure.
type ArtifactDownloader interface {
	Download(ctx context.Context, targetDir string, status *entities.BuildStatus) (entities.ArtifactSet, error)
}

// ArtifactUploader republishes artifacts to the distribution service
type ArtifactUploader interface {
	Upload(ctx context.Context, platform entities.Platform, appID string, artifacts entities.ArtifactSet, message string) error
}
