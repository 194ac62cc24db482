package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wildlens/internal/logging"
)

func TestNewConsoleWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "pipeline")
	logger.Info("provider responded", logging.String("provider", "plantid"), logging.Int("hits", 3))
	logger.Debug("suppressed at info level")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(content)
	if !strings.Contains(out, "[pipeline]") {
		t.Fatalf("expected component tag in output, got %q", out)
	}
	if !strings.Contains(out, "provider=plantid") {
		t.Fatalf("expected attr rendering in output, got %q", out)
	}
	if strings.Contains(out, "suppressed") {
		t.Fatalf("debug line should be filtered at info level, got %q", out)
	}
}

func TestNewJSONFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("startup", logging.Bool("cache", true))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"cache":true`) {
		t.Fatalf("expected json attr in output, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithRecognitionIDNilSafe(t *testing.T) {
	if logging.WithRecognitionID(nil, "abc") == nil {
		t.Fatal("expected fallback logger")
	}
	base := logging.NewNop()
	if logging.WithRecognitionID(base, "") != base {
		t.Fatal("empty id should return the logger unchanged")
	}
}
