// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
	"github.com/ochairo/cloudbuild-relay/internal/domain/interfaces"
	"github.com/ochairo/cloudbuild-relay/internal/domain/interfaces/gateways"
	"github.com/ochairo/cloudbuild-relay/internal/domain/services"
)

// Run outcomes reported to the Recorder
const (
	OutcomeIgnored  = "ignored"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeRelayed  = "relayed"
)

// Recorder receives one observation per processed event
type Recorder interface {
	ObserveRun(outcome string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveRun(string, time.Duration) {}

// WebhookProcessor runs the relay pipeline for one inbound webhook at a time
type WebhookProcessor struct {
	config       entities.RelayConfig
	verifier     *services.SignatureVerifier
	statusClient gateways.BuildStatusClient
	downloaders  map[entities.Platform]gateways.ArtifactDownloader
	uploader     gateways.ArtifactUploader
	notes        *services.ReleaseNotes
	recorder     Recorder
	logger       interfaces.Logger
}

// NewWebhookProcessor creates a new webhook processor. recorder may be nil.
func NewWebhookProcessor(
	config entities.RelayConfig,
	statusClient gateways.BuildStatusClient,
	downloaders map[entities.Platform]gateways.ArtifactDownloader,
	uploader gateways.ArtifactUploader,
	logger interfaces.Logger,
	recorder Recorder,
) (*WebhookProcessor, error) {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}

	notes, err := services.NewReleaseNotes(config.Distribution.ReleaseNotes)
	if err != nil {
		return nil, err
	}

	return &WebhookProcessor{
		config:       config,
		verifier:     services.NewSignatureVerifier(logger),
		statusClient: statusClient,
		downloaders:  downloaders,
		uploader:     uploader,
		notes:        notes,
		recorder:     recorder,
		logger:       logger,
	}, nil
}

// Process handles one inbound webhook. It never returns an error and never
// panics; every failure ends up in the log.
func (p *WebhookProcessor) Process(ctx context.Context, headers entities.Headers, body []byte) {
	start := time.Now()
	runID := services.NewRunID()
	ctx = services.WithRunID(ctx, runID)
	logger := interfaces.With(p.logger, interfaces.F("run_id", services.ShortRunID(runID)))

	outcome := OutcomeFailed
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Relay aborted by panic", interfaces.F("panic", fmt.Sprint(r)))
			outcome = OutcomeFailed
		}
		p.recorder.ObserveRun(outcome, time.Since(start))
	}()

	outcome = p.process(ctx, logger, headers, body)
}

func (p *WebhookProcessor) process(ctx context.Context, logger interfaces.Logger, headers entities.Headers, body []byte) string {
	if headers == nil || len(body) == 0 {
		logger.Debug("Ignoring request without headers or content")
		return OutcomeIgnored
	}

	logger.Debug("Headers", interfaces.F("headers", map[string]string(headers)))
	logger.Debug("Content", interfaces.F("content", string(body)))

	event, _ := headers.Get(entities.HeaderEvent)
	if event != entities.EventBuildSuccess {
		logger.Info("Unsupported cloud build event", interfaces.F("event", event))
		return OutcomeIgnored
	}

	notification, err := services.ParseBuildNotification(event, body)
	if err != nil {
		logger.Error("Rejected build notification", interfaces.Err(err))
		return OutcomeRejected
	}

	if notification.ProjectGUID != p.config.ProjectGUID {
		logger.Error("An attempt has been made to use the webhook for another project",
			interfaces.F("project_guid", notification.ProjectGUID))
		return OutcomeRejected
	}

	appID, tracked := p.config.BuildTargets.AppID(notification.BuildTargetName)
	if !tracked {
		logger.Info("Build target is not configured for uploading",
			interfaces.F("build_target", notification.BuildTargetName))
		return OutcomeIgnored
	}

	logger = interfaces.With(logger,
		interfaces.F("build_target", notification.BuildTargetName),
		interfaces.F("platform", string(notification.Platform)),
		interfaces.F("build", notification.BuildNumber))

	if err := p.relay(ctx, logger, headers, body, notification, appID); err != nil {
		logger.Error(err.Error())
		return OutcomeFailed
	}

	logger.Info("Build relayed", interfaces.F("app_id", appID))
	return OutcomeRelayed
}

// relay runs every step after the soft checks; the first error aborts it
func (p *WebhookProcessor) relay(
	ctx context.Context,
	logger interfaces.Logger,
	headers entities.Headers,
	body []byte,
	notification *entities.BuildNotification,
	appID string,
) error {
	if p.config.WebhookSecret != "" {
		if err := p.verifier.Verify(headers, body, p.config.WebhookSecret); err != nil {
			return err
		}
	}

	rawStatus, err := p.statusClient.FetchStatus(ctx, p.config.APIKey, p.config.APIBaseURL, notification)
	if err != nil {
		return err
	}

	status, err := services.ParseBuildStatus(rawStatus)
	if err != nil {
		return err
	}

	downloader, ok := p.downloaders[notification.Platform]
	if !ok {
		return fmt.Errorf("%w '%s' for downloading", entities.ErrUnsupportedPlatform, notification.Platform)
	}

	message, err := p.notes.Render(notification)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(p.config.TempDir, 0750); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	artifacts, err := downloader.Download(ctx, p.config.TempDir, status)
	defer p.cleanup(logger, artifacts)
	if err != nil {
		return err
	}

	return p.uploader.Upload(ctx, notification.Platform, appID, artifacts, message)
}

// cleanup removes every downloaded file, continuing past failures
func (p *WebhookProcessor) cleanup(logger interfaces.Logger, artifacts entities.ArtifactSet) {
	for kind, path := range artifacts {
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			logger.Warn("Failed to remove artifact",
				interfaces.F("kind", string(kind)),
				interfaces.F("path", path),
				interfaces.Err(err))
			continue
		}
		logger.Debug("Removed artifact", interfaces.F("path", path))
	}
}
