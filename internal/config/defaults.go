package config

const (
	defaultCacheDir             = "~/.cache/wildlens"
	defaultLogDir               = "~/.local/share/wildlens/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultVisionBaseURL        = "https://vision.googleapis.com/v1"
	defaultVisionMaxResults     = 10
	defaultVisionDailyCap       = 1000
	defaultVisionTimeout        = 20
	defaultPlantIDBaseURL       = "https://api.plant.id/v2"
	defaultPlantIDDailyCap      = 100
	defaultPlantIDTimeout       = 30
	defaultWildlifeBaseURL      = "https://api.inaturalist.org/v1"
	defaultWildlifeTimeout      = 15
	defaultKGBaseURL            = "https://kgsearch.googleapis.com/v1"
	defaultKGTimeout            = 10
	defaultEncyclopediaBaseURL  = "https://en.wikipedia.org/api/rest_v1"
	defaultEncyclopediaTimeout  = 10
	defaultLookupCacheTTLHours  = 24 * 14
	defaultLLMBudget            = 0.05
	defaultLLMPriority          = "accuracy"
	defaultLLMTimeout           = 60
	defaultPipelineMargin       = 0.15
	defaultBranchTimeoutSeconds = 25
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Vision: Vision{
			BaseURL:        defaultVisionBaseURL,
			MaxResults:     defaultVisionMaxResults,
			DailyCap:       defaultVisionDailyCap,
			TimeoutSeconds: defaultVisionTimeout,
		},
		PlantID: PlantID{
			BaseURL:        defaultPlantIDBaseURL,
			DailyCap:       defaultPlantIDDailyCap,
			TimeoutSeconds: defaultPlantIDTimeout,
		},
		Wildlife: Wildlife{
			BaseURL:        defaultWildlifeBaseURL,
			TimeoutSeconds: defaultWildlifeTimeout,
		},
		KnowledgeGraph: KnowledgeGraph{
			BaseURL:        defaultKGBaseURL,
			TimeoutSeconds: defaultKGTimeout,
		},
		Encyclopedia: Encyclopedia{
			Enabled:        true,
			BaseURL:        defaultEncyclopediaBaseURL,
			TimeoutSeconds: defaultEncyclopediaTimeout,
		},
		LookupCache: LookupCache{
			Enabled:  true,
			Path:     defaultLookupCachePath(),
			TTLHours: defaultLookupCacheTTLHours,
		},
		LLM: LLM{
			Budget:         defaultLLMBudget,
			Priority:       defaultLLMPriority,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Pipeline: Pipeline{
			Margin:               defaultPipelineMargin,
			BranchTimeoutSeconds: defaultBranchTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
