package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVision(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVision() error {
	if c.Vision.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/wildlens/config.toml"
		}
		return fmt.Errorf("vision.api_key is required. Set GOOGLE_VISION_API_KEY env var or edit %s (create with 'wildlens config init')", defaultPath)
	}
	if c.Vision.MaxResults > 50 {
		return errors.New("vision.max_results must be 50 or fewer")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"vision.timeout_seconds":          c.Vision.TimeoutSeconds,
		"plantid.timeout_seconds":         c.PlantID.TimeoutSeconds,
		"wildlife.timeout_seconds":        c.Wildlife.TimeoutSeconds,
		"knowledge_graph.timeout_seconds": c.KnowledgeGraph.TimeoutSeconds,
		"encyclopedia.timeout_seconds":    c.Encyclopedia.TimeoutSeconds,
		"llm.timeout_seconds":             c.LLM.TimeoutSeconds,
		"pipeline.branch_timeout_seconds": c.Pipeline.BranchTimeoutSeconds,
	})
}

func (c *Config) validateLLM() error {
	switch c.LLM.Priority {
	case "speed", "accuracy", "cost":
	default:
		return fmt.Errorf("llm.priority must be one of speed, accuracy, cost (got %q)", c.LLM.Priority)
	}
	if c.LLM.Budget <= 0 {
		return errors.New("llm.budget must be positive (dollars per request)")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Margin <= 0 || c.Pipeline.Margin > 1 {
		return errors.New("pipeline.margin must be between 0 and 1")
	}
	if c.LookupCache.Enabled && strings.TrimSpace(c.LookupCache.Path) == "" {
		return errors.New("lookup_cache.path must be set when lookup_cache.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
