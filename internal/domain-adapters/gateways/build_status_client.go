package gateways

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
	"github.com/ochairo/cloudbuild-relay/internal/domain/interfaces"
)

// maxStatusBodySize bounds the build status response
const maxStatusBodySize = 4 * 1024 * 1024

// BuildStatusClient implements gateways.BuildStatusClient over HTTP
type BuildStatusClient struct {
	client *http.Client
	logger interfaces.Logger
}

// NewBuildStatusClient creates a build status client with the configured timeouts
func NewBuildStatusClient(timeouts entities.TimeoutConfig, logger interfaces.Logger) *BuildStatusClient {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &BuildStatusClient{
		client: newHTTPClient(timeouts.Connect, timeouts.Status, false),
		logger: logger,
	}
}

// FetchStatus retrieves the build status resource the notification links to.
// apiKey is sent as-is; it is expected to be the encoded Basic credential.
func (c *BuildStatusClient) FetchStatus(ctx context.Context, apiKey, apiBaseURL string, notification *entities.BuildNotification) ([]byte, error) {
	url := apiBaseURL + notification.APISelfLink
	c.logger.Info("Get build status", interfaces.F("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", entities.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: build status request failed: %v", entities.ErrTransport, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read build status: %v", entities.ErrTransport, err)
	}

	c.logger.Debug("Build status retrieval result",
		interfaces.F("status", resp.StatusCode),
		interfaces.F("body", string(body)))

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: build status HTTP %d: %s", entities.ErrUnexpectedResponse, resp.StatusCode, string(body))
	}

	return body, nil
}
