// Package services defines shared utilities consumed by the stage runners and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp video IDs, stage names, and run correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so runners can tell
//     transient collaborator failures from fatal environment problems.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
