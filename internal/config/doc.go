// Package config loads, normalizes, and validates songaday configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// YOUTUBE_API_KEY and SONGADAY_FEED_URL. The Config type centralizes every knob
// the scheduler and CLI need, so the data directory, feed location, and YouTube
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
