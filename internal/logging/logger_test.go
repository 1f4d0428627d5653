package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"songaday/internal/config"
	"songaday/internal/logging"
	"songaday/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (func(), string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{
		Format:           format,
		Level:            level,
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	emit := func() {
		ctx := services.WithRunID(context.Background(), "0123456789abcdef")
		ctx = services.WithStage(ctx, "merging")
		logging.WithContext(ctx, logging.NewComponentLogger(logger, "pipeline")).Info("run completed", logging.Int("songs", 3))
	}
	return emit, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")

	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "songaday.log")); err != nil {
		t.Fatalf("expected log file to be created: %v", err)
	}
}

func TestConsoleLoggerHoistsComponentAndRunID(t *testing.T) {
	emit, logPath := newFileLogger(t, "console", "info")
	emit()

	line := readLog(t, logPath)
	if !strings.Contains(line, "INFO pipeline: run completed [run=01234567]") {
		t.Fatalf("unexpected console line %q", line)
	}
	if !strings.Contains(line, "stage=merging") || !strings.Contains(line, "songs=3") {
		t.Fatalf("expected attributes in console line %q", line)
	}
	if strings.Contains(line, "component=") || strings.Contains(line, "run_id=") {
		t.Fatalf("expected hoisted fields to be omitted from attrs, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	emit, logPath := newFileLogger(t, "console", "debug")
	emit()

	if !strings.Contains(readLog(t, logPath), ".go:") {
		t.Fatal("expected caller information in debug logs")
	}
}

func TestJSONLoggerCarriesContextFields(t *testing.T) {
	emit, logPath := newFileLogger(t, "json", "info")
	emit()

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for key, want := range map[string]any{
		"msg":                  "run completed",
		"level":                "info",
		logging.FieldRunID:     "0123456789abcdef",
		logging.FieldStage:     "merging",
		logging.FieldComponent: "pipeline",
	} {
		if record[key] != want {
			t.Fatalf("field %s = %v, want %v", key, record[key], want)
		}
	}
	if _, ok := record["ts"]; !ok {
		t.Fatal("expected ts field")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "link skipped", "unrecognized_link")

	line := readLog(t, logPath)
	for _, fragment := range []string{"event_type=unrecognized_link", "error_hint=", "impact="} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
}
