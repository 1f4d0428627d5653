package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Feed contains configuration for the spreadsheet cell feed.
type Feed struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// YouTube contains configuration for the YouTube Data API.
type YouTube struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	// ChunkSize is the number of video IDs sent per query. The API rejects
	// more than 50.
	ChunkSize int `toml:"chunk_size"`
}

// Workflow contains configuration for scheduler timing.
type Workflow struct {
	RunIntervalMinutes int `toml:"run_interval_minutes"`
	StaleAfterMinutes  int `toml:"stale_after_minutes"`
}

// Search contains configuration for the catalog similarity index.
type Search struct {
	Enabled  bool    `toml:"enabled"`
	MinScore float64 `toml:"min_score"`
	Limit    int     `toml:"limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format    string `toml:"format"`
	Level     string `toml:"level"`
	LogToFile bool   `toml:"log_to_file"`
}

// Config encapsulates all configuration values for songaday.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Feed: spreadsheet cell feed location
//   - YouTube: metadata API credentials and pacing
//   - Workflow: scheduler cadence and stale-run threshold
//   - Search: similarity index settings
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Feed     Feed     `toml:"feed"`
	YouTube  YouTube  `toml:"youtube"`
	Workflow Workflow `toml:"workflow"`
	Search   Search   `toml:"search"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/songaday/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("songaday.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogPath returns the SQLite catalog database location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.DataDir, defaultCatalogDatabaseName)
}

// LockPath returns the lock file that serializes pipeline runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, defaultLockFileName)
}

// SearchIndexPath returns the on-disk Bleve index directory.
func (c *Config) SearchIndexPath() string {
	return filepath.Join(c.Paths.DataDir, defaultSearchIndexDirectory)
}

// RunInterval returns the scheduler cadence.
func (c *Config) RunInterval() time.Duration {
	return time.Duration(c.Workflow.RunIntervalMinutes) * time.Minute
}

// StaleAfter returns the age after which an unfinished run token counts as failed.
func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Workflow.StaleAfterMinutes) * time.Minute
}

// FeedTimeout returns the HTTP timeout for feed retrieval.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.Feed.TimeoutSeconds) * time.Second
}

// YouTubeTimeout returns the HTTP timeout for metadata queries.
func (c *Config) YouTubeTimeout() time.Duration {
	return time.Duration(c.YouTube.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
