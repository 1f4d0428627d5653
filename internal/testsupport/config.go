package testsupport

import (
	"path/filepath"
	"testing"

	"songaday/internal/config"
)

// NewConfig returns a valid config rooted in a per-test temp directory. Rate
// limiting and file logging are off.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.YouTube.APIKey = "test"
	cfg.YouTube.RequestsPerSecond = 0
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Logging.LogToFile = false
	return &cfg
}
