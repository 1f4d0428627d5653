package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFeed() error {
	parsed, err := url.Parse(c.Feed.URL)
	if err != nil {
		return fmt.Errorf("feed.url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("feed.url must be an http(s) URL, got %q", c.Feed.URL)
	}
	if c.Feed.TimeoutSeconds < 0 {
		return errors.New("feed.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	if c.YouTube.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/songaday/config.toml"
		}
		return fmt.Errorf("youtube.api_key is required. Set YOUTUBE_API_KEY env var or edit %s (create with 'songaday config init')", defaultPath)
	}
	if c.YouTube.ChunkSize < 1 || c.YouTube.ChunkSize > maxYouTubeIDsPerQuery {
		return fmt.Errorf("youtube.chunk_size must be between 1 and %d", maxYouTubeIDsPerQuery)
	}
	if c.YouTube.RequestsPerSecond < 0 {
		return errors.New("youtube.requests_per_second must be >= 0")
	}
	if c.YouTube.Burst < 1 {
		return errors.New("youtube.burst must be >= 1")
	}
	if c.YouTube.TimeoutSeconds < 0 {
		return errors.New("youtube.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.RunIntervalMinutes < minimumRunIntervalMinutes {
		return fmt.Errorf("workflow.run_interval_minutes must be >= %d", minimumRunIntervalMinutes)
	}
	if c.Workflow.StaleAfterMinutes < c.Workflow.RunIntervalMinutes {
		return errors.New("workflow.stale_after_minutes must be >= workflow.run_interval_minutes")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.MinScore < 0 {
		return errors.New("search.min_score must be >= 0")
	}
	if c.Search.Limit < 1 {
		return errors.New("search.limit must be >= 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
