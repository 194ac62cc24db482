// Package config loads, validates, and normalizes Wildlens configuration.
//
// Configuration lives in a TOML file (default ~/.config/wildlens/config.toml)
// and is merged over repository defaults. Secrets may also arrive through
// environment variables so the file can stay free of keys.
package config
