// Package services defines shared utilities consumed by the recognition
// pipeline and the external provider integrations beneath it.
//
// Key responsibilities:
//   - Context helpers that stamp recognition IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that classify provider
//     failures so the pipeline can tell degradable branch errors from ones
//     that must abort a request.
//
// Use these helpers when wiring new provider clients so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
