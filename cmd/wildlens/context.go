package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"wildlens/internal/airouter"
	"wildlens/internal/config"
	"wildlens/internal/logging"
	"wildlens/internal/lookupcache"
	"wildlens/internal/pipeline"
	"wildlens/internal/ratelimit"
	"wildlens/internal/services/kg"
	"wildlens/internal/services/plantid"
	"wildlens/internal/services/vision"
	"wildlens/internal/services/wiki"
	"wildlens/internal/services/wildlife"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
}

func (c *commandContext) newRouter(cfg *config.Config, logger *slog.Logger) *airouter.Router {
	if !cfg.HasLLMKey() {
		return nil
	}
	return airouter.New(airouter.Config{
		OpenAIAPIKey:    cfg.LLM.OpenAIAPIKey,
		GoogleAPIKey:    cfg.LLM.GoogleAPIKey,
		AnthropicAPIKey: cfg.LLM.AnthropicAPIKey,
		Timeout:         secondsDuration(cfg.LLM.TimeoutSeconds),
	}, airouter.WithLogger(logger))
}

// buildPipeline wires the configured providers into a pipeline. Optional
// providers without configuration are left nil and their branches degrade.
// The returned closer releases the lookup cache, when one was opened.
func (c *commandContext) buildPipeline(cfg *config.Config, logger *slog.Logger, router *airouter.Router) (*pipeline.Pipeline, func(), error) {
	visionClient, err := vision.New(cfg.Vision.APIKey, cfg.Vision.BaseURL, cfg.Vision.MaxResults,
		vision.WithHTTPClient(httpClient(cfg.Vision.TimeoutSeconds)))
	if err != nil {
		return nil, nil, fmt.Errorf("create vision client: %w", err)
	}

	deps := pipeline.Deps{
		Vision:      visionClient,
		VisionLimit: ratelimit.New(cfg.Vision.DailyCap),
		Logger:      logger,
	}

	if cfg.PlantID.APIKey != "" {
		plantClient, err := plantid.New(cfg.PlantID.APIKey, cfg.PlantID.BaseURL,
			plantid.WithHTTPClient(httpClient(cfg.PlantID.TimeoutSeconds)))
		if err != nil {
			return nil, nil, fmt.Errorf("create plant classifier client: %w", err)
		}
		deps.Plants = plantClient
		deps.PlantIDLimit = ratelimit.New(cfg.PlantID.DailyCap)
	}

	wildlifeClient, err := wildlife.New(cfg.Wildlife.BaseURL,
		wildlife.WithHTTPClient(httpClient(cfg.Wildlife.TimeoutSeconds)))
	if err != nil {
		return nil, nil, fmt.Errorf("create wildlife client: %w", err)
	}
	deps.Wildlife = wildlifeClient

	if cfg.KnowledgeGraph.APIKey != "" {
		kgClient, err := kg.New(cfg.KnowledgeGraph.APIKey, cfg.KnowledgeGraph.BaseURL,
			kg.WithHTTPClient(httpClient(cfg.KnowledgeGraph.TimeoutSeconds)))
		if err != nil {
			return nil, nil, fmt.Errorf("create knowledge graph client: %w", err)
		}
		deps.KG = kgClient
	}

	if cfg.Encyclopedia.Enabled {
		wikiClient, err := wiki.New(cfg.Encyclopedia.BaseURL,
			wiki.WithHTTPClient(httpClient(cfg.Encyclopedia.TimeoutSeconds)))
		if err != nil {
			return nil, nil, fmt.Errorf("create encyclopedia client: %w", err)
		}
		deps.Wiki = wikiClient
	}

	closer := func() {}
	if cfg.LookupCache.Enabled {
		cache, err := lookupcache.Open(cfg.LookupCache.Path, time.Duration(cfg.LookupCache.TTLHours)*time.Hour)
		if err != nil {
			logger.Warn("lookup cache unavailable", logging.Error(err))
		} else {
			deps.Cache = cache
			closer = func() { _ = cache.Close() }
		}
	}

	if router != nil {
		deps.LLM = router
	}

	p, err := pipeline.New(pipeline.Config{
		Margin:        cfg.Pipeline.Margin,
		BranchTimeout: secondsDuration(cfg.Pipeline.BranchTimeoutSeconds),
		Budget:        cfg.LLM.Budget,
		Priority:      cfg.LLM.Priority,
		WikiEnabled:   cfg.Encyclopedia.Enabled,
	}, deps)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return p, closer, nil
}

func httpClient(timeoutSeconds int) *http.Client {
	return &http.Client{Timeout: secondsDuration(timeoutSeconds)}
}

func secondsDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
