// Package httpserver exposes the relay over HTTP.
package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
	"github.com/ochairo/cloudbuild-relay/internal/domain/interfaces"
)

// maxWebhookBodySize bounds an inbound webhook payload
const maxWebhookBodySize = 10 * 1024 * 1024

// minShutdownTimeout is the shutdown grace for servers without a write timeout
const minShutdownTimeout = 30 * time.Second

// EventProcessor handles one inbound webhook
type EventProcessor interface {
	Process(ctx context.Context, headers entities.Headers, body []byte)
}

// Instrumenter wraps handlers with request metrics
type Instrumenter interface {
	Instrument(name string, next http.Handler) http.Handler
	Handler() http.Handler
}

// WebhookHandler feeds POSTed webhooks to the processor one at a time.
// The build service does not read the response, so every POST gets 200.
type WebhookHandler struct {
	processor EventProcessor
	logger    interfaces.Logger

	mu sync.Mutex
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(processor EventProcessor, logger interfaces.Logger) *WebhookHandler {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &WebhookHandler{processor: processor, logger: logger}
}

// ServeHTTP handles a single webhook request
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		h.logger.Error("Failed to read webhook body", interfaces.Err(err), interfaces.F("remote_addr", r.RemoteAddr))
		w.WriteHeader(http.StatusOK)
		return
	}

	headers := entities.HeadersFromHTTP(r.Header)

	// The run outlives a client that hangs up mid-upload
	ctx := context.WithoutCancel(r.Context())

	h.mu.Lock()
	h.processor.Process(ctx, headers, body)
	h.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

// NewServer builds the HTTP server: the webhook endpoint, /healthz and,
// when instrumenter is set, /metrics
func NewServer(cfg *entities.RelayConfig, webhook http.Handler, instrumenter Instrumenter) *http.Server {
	mux := http.NewServeMux()

	health := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})

	if instrumenter != nil {
		mux.Handle(cfg.WebhookPath, instrumenter.Instrument("webhook", webhook))
		mux.Handle("/healthz", instrumenter.Instrument("health", health))
		mux.Handle("/metrics", instrumenter.Handler())
	} else {
		mux.Handle(cfg.WebhookPath, webhook)
		mux.Handle("/healthz", health)
	}

	// A webhook response is only written after the whole relay run
	writeTimeout := cfg.Timeouts.Status + cfg.Timeouts.Download + cfg.Timeouts.Upload + time.Minute

	return &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, server *http.Server, logger interfaces.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", interfaces.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(server))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server shutdown complete")
	return nil
}

// shutdownTimeout lets an in-flight relay run finish, and with it the
// removal of its artifacts. WriteTimeout already covers one full run.
func shutdownTimeout(server *http.Server) time.Duration {
	if server.WriteTimeout > minShutdownTimeout {
		return server.WriteTimeout
	}
	return minShutdownTimeout
}
