package gateways

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
	"github.com/ochairo/cloudbuild-relay/internal/domain/interfaces"
)

// DefaultUploadBaseURL is the distribution service API root
const DefaultUploadBaseURL = "https://rink.hockeyapp.net/api/2"

// Fixed upload form values: status 2 makes the version downloadable,
// notify 1 notifies testers that can install it
const (
	uploadStatus = "2"
	uploadNotify = "1"
)

// maxUploadResponseSize bounds how much of the upload response is logged
const maxUploadResponseSize = 64 * 1024

// DistributionUploader implements gateways.ArtifactUploader with a multipart
// upload to the distribution service
type DistributionUploader struct {
	client    *http.Client
	baseURL   string
	token     string
	strategy  string
	mandatory string
	logger    interfaces.Logger
}

// NewDistributionUploader creates a new uploader from the distribution config
func NewDistributionUploader(cfg entities.DistributionConfig, timeouts entities.TimeoutConfig, logger interfaces.Logger) *DistributionUploader {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	baseURL := strings.TrimSuffix(cfg.UploadBaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultUploadBaseURL
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("TLS certificate verification disabled for uploads", interfaces.F("base_url", baseURL))
	}
	return &DistributionUploader{
		client:    newHTTPClient(timeouts.Connect, timeouts.Upload, cfg.InsecureSkipVerify),
		baseURL:   baseURL,
		token:     cfg.Token,
		strategy:  cfg.Strategy,
		mandatory: cfg.Mandatory,
		logger:    logger,
	}
}

// UploadURL returns the upload endpoint for an app
func (u *DistributionUploader) UploadURL(appID string) string {
	return fmt.Sprintf("%s/apps/%s/app_versions/upload", u.baseURL, url.PathEscape(appID))
}

// Upload posts the binary (and the required dSYM for iOS) with the release
// message. An empty artifact set is a no-op.
func (u *DistributionUploader) Upload(ctx context.Context, platform entities.Platform, appID string, artifacts entities.ArtifactSet, message string) error {
	if len(artifacts) == 0 {
		return nil
	}

	var binary, dsym string
	switch platform {
	case entities.PlatformIOS:
		binary = artifacts[entities.ArtifactBinary]
		dsym = artifacts[entities.ArtifactDebugSymbols]
		if dsym == "" {
			return fmt.Errorf("%w: no dSYM artifact to upload for ios", entities.ErrMalformedInput)
		}
	case entities.PlatformAndroid:
		binary = artifacts[entities.ArtifactBinary]
	default:
		return fmt.Errorf("%w '%s' for uploading", entities.ErrUnsupportedPlatform, platform)
	}
	if binary == "" {
		return fmt.Errorf("%w: no binary artifact to upload", entities.ErrMalformedInput)
	}

	uploadURL := u.UploadURL(appID)
	u.logger.Info("Upload artifacts",
		interfaces.F("url", uploadURL),
		interfaces.F("binary", binary),
		interfaces.F("with_dsym", dsym != ""))

	fields := []formField{
		{name: "status", value: uploadStatus},
		{name: "notify", value: uploadNotify},
		{name: "strategy", value: u.strategy},
		{name: "mandatory", value: u.mandatory},
		{name: "notes", value: message},
		{name: "ipa", file: binary},
	}
	if dsym != "" {
		fields = append(fields, formField{name: "dsym", file: dsym})
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(form, fields))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, pr)
	if err != nil {
		_ = pr.Close()
		return fmt.Errorf("%w: failed to create request: %v", entities.ErrTransport, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("X-HockeyAppToken", u.token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: upload failed: %v", entities.ErrTransport, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxUploadResponseSize))
	u.logger.Debug("Upload result", interfaces.F("status", resp.StatusCode), interfaces.F("body", string(body)))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: upload HTTP %d: %s", entities.ErrUnexpectedResponse, resp.StatusCode, string(body))
	}

	u.logger.Info("Upload of artifacts completed", interfaces.F("app_id", appID))
	return nil
}

// formField is either a plain value or a file part
type formField struct {
	name  string
	value string
	file  string
}

func writeForm(form *multipart.Writer, fields []formField) error {
	for _, field := range fields {
		if field.file == "" {
			if err := form.WriteField(field.name, field.value); err != nil {
				return err
			}
			continue
		}
		if err := writeFilePart(form, field.name, field.file); err != nil {
			return err
		}
	}
	return form.Close()
}

func writeFilePart(form *multipart.Writer, name, path string) error {
	//nolint:gosec // G304: path comes from the downloader's artifact set
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	part, err := form.CreateFormFile(name, filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to stream artifact: %w", err)
	}
	return nil
}
