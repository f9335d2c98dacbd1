package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
	"github.com/ochairo/cloudbuild-relay/internal/domain/interfaces"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARNING", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "text", slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("shown", interfaces.F("build", 7))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message should be filtered: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "build=7") {
		t.Errorf("info message missing: %s", out)
	}
}

func TestLogger_JSONErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json", slog.LevelDebug)

	logger.Error("relay failed", interfaces.Err(errors.New("boom")))

	out := buf.String()
	if !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("error field not rendered as string: %s", out)
	}
	if !strings.Contains(out, `"level":"ERROR"`) {
		t.Errorf("level missing: %s", out)
	}
}

func TestFromConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "relay.log")

	logger, closer, err := FromConfig(entities.LogConfig{Level: "info", File: path}, os.Stderr)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	logger.Info("written to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file content = %q", string(data))
	}
}

func TestFromConfig_InvalidLevel(t *testing.T) {
	if _, _, err := FromConfig(entities.LogConfig{Level: "loud"}, os.Stderr); err == nil {
		t.Fatal("expected error for invalid level")
	}
}
