package gateways

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
	"github.com/ochairo/cloudbuild-relay/internal/domain/interfaces"
	"github.com/ochairo/cloudbuild-relay/internal/domain/interfaces/gateways"
	"github.com/ochairo/cloudbuild-relay/internal/domain/services"
)

// timestampLayout is day-month-year and hour-minute-second, 24h
const timestampLayout = "020106-150405"

// Artifact file extensions per platform
const (
	extIPA  = ".ipa"
	extDSYM = ".dSYM.zip"
	extAPK  = ".apk"
)

// fetcher holds the behavior shared by every platform downloader
type fetcher struct {
	httpClient *http.Client
	logger     interfaces.Logger
	now        func() time.Time
}

func newFetcher(timeouts entities.TimeoutConfig, logger interfaces.Logger) fetcher {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return fetcher{
		httpClient: newHTTPClient(timeouts.Connect, timeouts.Download, false),
		logger:     logger,
		now:        time.Now,
	}
}

// prepare creates the target directory if it doesn't exist yet
func (f *fetcher) prepare(targetDir string) error {
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}
	return nil
}

// artifactPath builds <dir>/<name>-<timestamp>-<run><ext> from the build's
// declared filename, stripping the declared extension
func (f *fetcher) artifactPath(ctx context.Context, targetDir, filename, ext string) string {
	base := path.Base(filename)
	base = strings.TrimSuffix(base, path.Ext(base))

	runID := services.RunIDFrom(ctx)
	if runID == "" {
		runID = services.NewRunID()
	}

	name := fmt.Sprintf("%s-%s-%s%s", base, f.now().Format(timestampLayout), services.ShortRunID(runID), ext)
	return filepath.Join(targetDir, name)
}

// fetch streams a GET response body into dest
func (f *fetcher) fetch(ctx context.Context, url, dest string) error {
	f.logger.Info("Download artifact", interfaces.F("url", url), interfaces.F("file", dest))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", entities.ErrTransport, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: download request failed: %v", entities.ErrTransport, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: download HTTP %d: %s", entities.ErrUnexpectedResponse, resp.StatusCode, resp.Status)
	}

	//nolint:gosec // G304: dest is built by artifactPath inside the configured temp dir
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", entities.ErrTransport, filepath.Base(dest), err)
	}

	f.logger.Debug("Downloaded artifact", interfaces.F("file", filepath.Base(dest)), interfaces.F("bytes", written))
	return nil
}

// IOSDownloader downloads the ipa and its dSYM archive
type IOSDownloader struct {
	fetcher
}

// NewIOSDownloader creates a new iOS downloader
func NewIOSDownloader(timeouts entities.TimeoutConfig, logger interfaces.Logger) *IOSDownloader {
	return &IOSDownloader{fetcher: newFetcher(timeouts, logger)}
}

// Download fetches both iOS artifacts; both are required
func (d *IOSDownloader) Download(ctx context.Context, targetDir string, status *entities.BuildStatus) (entities.ArtifactSet, error) {
	artifacts := entities.ArtifactSet{}
	if err := d.prepare(targetDir); err != nil {
		return artifacts, err
	}

	d.logger.Info("Download iOS artifacts")

	ipaPath := d.artifactPath(ctx, targetDir, status.Filename, extIPA)
	dsymPath := d.artifactPath(ctx, targetDir, status.Filename, extDSYM)

	// Record before fetching so a partial file is still cleaned up
	artifacts[entities.ArtifactBinary] = ipaPath
	if err := d.fetch(ctx, status.PrimaryURL, ipaPath); err != nil {
		return artifacts, fmt.Errorf("ipa download failed: %w", err)
	}

	if status.DebugSymbolsURL == "" {
		return artifacts, fmt.Errorf("%w: build status has no dSYM download link", entities.ErrUnexpectedResponse)
	}
	artifacts[entities.ArtifactDebugSymbols] = dsymPath
	if err := d.fetch(ctx, status.DebugSymbolsURL, dsymPath); err != nil {
		return artifacts, fmt.Errorf("dSYM download failed: %w", err)
	}

	return artifacts, nil
}

// AndroidDownloader downloads the apk
type AndroidDownloader struct {
	fetcher
}

// NewAndroidDownloader creates a new Android downloader
func NewAndroidDownloader(timeouts entities.TimeoutConfig, logger interfaces.Logger) *AndroidDownloader {
	return &AndroidDownloader{fetcher: newFetcher(timeouts, logger)}
}

// Download fetches the apk
func (d *AndroidDownloader) Download(ctx context.Context, targetDir string, status *entities.BuildStatus) (entities.ArtifactSet, error) {
	artifacts := entities.ArtifactSet{}
	if err := d.prepare(targetDir); err != nil {
		return artifacts, err
	}

	d.logger.Info("Download Android artifacts")

	apkPath := d.artifactPath(ctx, targetDir, status.Filename, extAPK)
	artifacts[entities.ArtifactBinary] = apkPath
	if err := d.fetch(ctx, status.PrimaryURL, apkPath); err != nil {
		return artifacts, fmt.Errorf("apk download failed: %w", err)
	}

	return artifacts, nil
}

// NewDownloaders returns the downloader for every supported platform
func NewDownloaders(timeouts entities.TimeoutConfig, logger interfaces.Logger) map[entities.Platform]gateways.ArtifactDownloader {
	return map[entities.Platform]gateways.ArtifactDownloader{
		entities.PlatformIOS:     NewIOSDownloader(timeouts, logger),
		entities.PlatformAndroid: NewAndroidDownloader(timeouts, logger),
	}
}
