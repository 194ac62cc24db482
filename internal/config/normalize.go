package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVision()
	c.normalizePlantID()
	c.normalizeWildlife()
	c.normalizeKnowledgeGraph()
	c.normalizeEncyclopedia()
	if err := c.normalizeLookupCache(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeVision() {
	c.Vision.APIKey = strings.TrimSpace(c.Vision.APIKey)
	if c.Vision.APIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_VISION_API_KEY"); ok {
			c.Vision.APIKey = strings.TrimSpace(value)
		}
	}
	c.Vision.BaseURL = strings.TrimSpace(c.Vision.BaseURL)
	if c.Vision.BaseURL == "" {
		c.Vision.BaseURL = defaultVisionBaseURL
	}
	if c.Vision.MaxResults <= 0 {
		c.Vision.MaxResults = defaultVisionMaxResults
	}
	if c.Vision.DailyCap <= 0 {
		c.Vision.DailyCap = defaultVisionDailyCap
	}
	if c.Vision.TimeoutSeconds <= 0 {
		c.Vision.TimeoutSeconds = defaultVisionTimeout
	}
}

func (c *Config) normalizePlantID() {
	c.PlantID.APIKey = strings.TrimSpace(c.PlantID.APIKey)
	if c.PlantID.APIKey == "" {
		if value, ok := os.LookupEnv("PLANT_ID_API_KEY"); ok {
			c.PlantID.APIKey = strings.TrimSpace(value)
		}
	}
	c.PlantID.BaseURL = strings.TrimSpace(c.PlantID.BaseURL)
	if c.PlantID.BaseURL == "" {
		c.PlantID.BaseURL = defaultPlantIDBaseURL
	}
	if c.PlantID.DailyCap <= 0 {
		c.PlantID.DailyCap = defaultPlantIDDailyCap
	}
	if c.PlantID.TimeoutSeconds <= 0 {
		c.PlantID.TimeoutSeconds = defaultPlantIDTimeout
	}
}

func (c *Config) normalizeWildlife() {
	c.Wildlife.BaseURL = strings.TrimSpace(c.Wildlife.BaseURL)
	if c.Wildlife.BaseURL == "" {
		c.Wildlife.BaseURL = defaultWildlifeBaseURL
	}
	if c.Wildlife.TimeoutSeconds <= 0 {
		c.Wildlife.TimeoutSeconds = defaultWildlifeTimeout
	}
}

func (c *Config) normalizeKnowledgeGraph() {
	c.KnowledgeGraph.APIKey = strings.TrimSpace(c.KnowledgeGraph.APIKey)
	if c.KnowledgeGraph.APIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_KG_API_KEY"); ok {
			c.KnowledgeGraph.APIKey = strings.TrimSpace(value)
		}
	}
	c.KnowledgeGraph.BaseURL = strings.TrimSpace(c.KnowledgeGraph.BaseURL)
	if c.KnowledgeGraph.BaseURL == "" {
		c.KnowledgeGraph.BaseURL = defaultKGBaseURL
	}
	if c.KnowledgeGraph.TimeoutSeconds <= 0 {
		c.KnowledgeGraph.TimeoutSeconds = defaultKGTimeout
	}
}

func (c *Config) normalizeEncyclopedia() {
	c.Encyclopedia.BaseURL = strings.TrimSpace(c.Encyclopedia.BaseURL)
	if c.Encyclopedia.BaseURL == "" {
		c.Encyclopedia.BaseURL = defaultEncyclopediaBaseURL
	}
	if c.Encyclopedia.TimeoutSeconds <= 0 {
		c.Encyclopedia.TimeoutSeconds = defaultEncyclopediaTimeout
	}
}

func (c *Config) normalizeLookupCache() error {
	var err error
	if strings.TrimSpace(c.LookupCache.Path) == "" {
		c.LookupCache.Path = defaultLookupCachePath()
	}
	if c.LookupCache.Path, err = expandPath(c.LookupCache.Path); err != nil {
		return fmt.Errorf("lookup_cache.path: %w", err)
	}
	if c.LookupCache.TTLHours <= 0 {
		c.LookupCache.TTLHours = defaultLookupCacheTTLHours
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.OpenAIAPIKey = strings.TrimSpace(c.LLM.OpenAIAPIKey)
	if c.LLM.OpenAIAPIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.OpenAIAPIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.GoogleAPIKey = strings.TrimSpace(c.LLM.GoogleAPIKey)
	if c.LLM.GoogleAPIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.LLM.GoogleAPIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("GOOGLE_API_KEY"); ok {
			c.LLM.GoogleAPIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.AnthropicAPIKey = strings.TrimSpace(c.LLM.AnthropicAPIKey)
	if c.LLM.AnthropicAPIKey == "" {
		if value, ok := os.LookupEnv("ANTHROPIC_API_KEY"); ok {
			c.LLM.AnthropicAPIKey = strings.TrimSpace(value)
		}
	}
	if c.LLM.Budget <= 0 {
		c.LLM.Budget = defaultLLMBudget
	}
	c.LLM.Priority = strings.ToLower(strings.TrimSpace(c.LLM.Priority))
	if c.LLM.Priority == "" {
		c.LLM.Priority = defaultLLMPriority
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Margin <= 0 {
		c.Pipeline.Margin = defaultPipelineMargin
	}
	if c.Pipeline.BranchTimeoutSeconds <= 0 {
		c.Pipeline.BranchTimeoutSeconds = defaultBranchTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
