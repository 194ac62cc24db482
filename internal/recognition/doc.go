// Package recognition holds the shared domain model for organism
// identification: vision label bundles, normalized provider hits, merged
// candidates, and the scoring engine that turns candidates into a
// pick/disambiguate/no-match decision.
//
// Everything in this package is per-request state. Nothing is persisted and
// the only shared data are the read-only vocabulary and weight tables.
package recognition
