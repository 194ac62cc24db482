package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Vision contains configuration for the Google Vision labeling API.
type Vision struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	MaxResults     int    `toml:"max_results"`
	DailyCap       int    `toml:"daily_cap"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PlantID contains configuration for the plant classifier API.
type PlantID struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	DailyCap       int    `toml:"daily_cap"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Wildlife contains configuration for the wildlife taxon search API.
type Wildlife struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// KnowledgeGraph contains configuration for canonical entity lookups.
type KnowledgeGraph struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Encyclopedia contains configuration for species summary cards.
type Encyclopedia struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LookupCache contains configuration for the on-disk canonical lookup cache.
type LookupCache struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"`
	TTLHours int    `toml:"ttl_hours"`
}

// LLM contains provider keys and routing defaults for AI identification.
type LLM struct {
	OpenAIAPIKey    string  `toml:"openai_api_key"`
	GoogleAPIKey    string  `toml:"google_api_key"`
	AnthropicAPIKey string  `toml:"anthropic_api_key"`
	Budget          float64 `toml:"budget"`
	Priority        string  `toml:"priority"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
}

// Pipeline contains orchestration tuning.
type Pipeline struct {
	Margin               float64 `toml:"margin"`
	BranchTimeoutSeconds int     `toml:"branch_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Wildlens.
//
// Configuration sections by subsystem:
//   - Paths: cache and log directories
//   - Vision: Google Vision image labeling (the mandatory signal source)
//   - PlantID: plant classifier used when the plant gate opens
//   - Wildlife: taxon search used when the plant gate stays closed
//   - KnowledgeGraph: canonical entity resolution for label phrases
//   - Encyclopedia: species summary cards attached to confident picks
//   - LookupCache: on-disk cache for canonical lookups
//   - LLM: provider keys plus budget and priority routing defaults
//   - Pipeline: decision margin and per-branch timeouts
//   - Logging: log format and level
type Config struct {
	Paths          Paths          `toml:"paths"`
	Vision         Vision         `toml:"vision"`
	PlantID        PlantID        `toml:"plantid"`
	Wildlife       Wildlife       `toml:"wildlife"`
	KnowledgeGraph KnowledgeGraph `toml:"knowledge_graph"`
	Encyclopedia   Encyclopedia   `toml:"encyclopedia"`
	LookupCache    LookupCache    `toml:"lookup_cache"`
	LLM            LLM            `toml:"llm"`
	Pipeline       Pipeline       `toml:"pipeline"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/wildlens/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
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

	projectPath, err := filepath.Abs("wildlens.toml")
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

// EnsureDirectories creates the directories runtime components write into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.CacheDir, c.Paths.LogDir}
	if c.LookupCache.Enabled && strings.TrimSpace(c.LookupCache.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.LookupCache.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
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

func defaultLookupCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "wildlens", "lookups.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/wildlens/lookups.db"
	}
	return filepath.Join(home, ".cache", "wildlens", "lookups.db")
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

// HasLLMKey reports whether at least one AI provider key is configured.
func (c *Config) HasLLMKey() bool {
	return strings.TrimSpace(c.LLM.OpenAIAPIKey) != "" ||
		strings.TrimSpace(c.LLM.GoogleAPIKey) != "" ||
		strings.TrimSpace(c.LLM.AnthropicAPIKey) != ""
}
