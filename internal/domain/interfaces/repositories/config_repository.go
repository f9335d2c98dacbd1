// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
)

// ConfigRepository provides the relay configuration
type ConfigRepository interface {
	// LoadConfig reads, decrypts and validates the relay configuration
	LoadConfig(ctx context.Context) (*entities.RelayConfig, error)
}
