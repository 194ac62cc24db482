// Package airouter selects and invokes LLM models for identification
// requests. Selection filters a static catalog by required capabilities and
// a per-request dollar budget, then orders the survivors by the caller's
// priority. Cost accounting prefers provider-reported token usage and falls
// back to a prompt-length estimate.
package airouter
