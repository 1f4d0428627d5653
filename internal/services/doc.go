// Package services defines shared helpers consumed by the pipeline stages and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (validation vs external service vs transient) for run logs.
//
// Use these helpers when wiring new stage logic so failure reporting stays
// uniform across the pipeline.
package services
