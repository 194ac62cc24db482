// Package pipeline orchestrates organism recognition end to end.
//
// Three entry points share the same dependencies:
//   - Run drives the traditional path: vision labeling, the plant gate,
//     concurrent provider branches, candidate fusion, and the decision
//     engine.
//   - LLMOnly identifies through the model router alone, degrading from the
//     full structured prompt to a cheap quick prompt, and from structured
//     parsing to loose phrase extraction, as each step fails.
//   - Hybrid runs both paths concurrently and prefers the LLM answer,
//     keeping the traditional result as corroboration.
//
// Vision is the only mandatory dependency; every other branch degrades to
// absence when its provider is unconfigured, capped, or failing.
package pipeline
