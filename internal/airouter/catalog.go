package airouter

import (
	"math"
	"sort"
	"strings"
)

// Capabilities a request can demand from a model.
const (
	CapabilityVision      = "vision"
	CapabilityJSON        = "json"
	CapabilityLongContext = "long-context"
)

// Providers known to the router.
const (
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderAnthropic = "anthropic"
)

// Priorities accepted by selection.
const (
	PrioritySpeed    = "speed"
	PriorityAccuracy = "accuracy"
	PriorityCost     = "cost"
)

// tagAccurate marks models the accuracy priority prefers.
const tagAccurate = "accurate"

// Model is one catalog entry.
type Model struct {
	ID                string
	Provider          string
	Capabilities      []string
	Tags              []string
	CostPer1K         float64
	AvgResponseMillis int
	MaxOutputTokens   int
}

// HasCapability reports whether the model advertises the capability.
func (m Model) HasCapability(capability string) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

func (m Model) hasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DefaultCatalog returns the built-in model catalog. Costs are blended
// per-1K-token dollar figures used for budget filtering, not exact provider
// price sheets.
func DefaultCatalog() []Model {
	return []Model{
		{
			ID:                "gpt-4o",
			Provider:          ProviderOpenAI,
			Capabilities:      []string{CapabilityVision, CapabilityJSON},
			Tags:              []string{tagAccurate},
			CostPer1K:         0.0075,
			AvgResponseMillis: 2600,
			MaxOutputTokens:   4096,
		},
		{
			ID:                "gpt-4o-mini",
			Provider:          ProviderOpenAI,
			Capabilities:      []string{CapabilityVision, CapabilityJSON},
			CostPer1K:         0.0004,
			AvgResponseMillis: 1400,
			MaxOutputTokens:   4096,
		},
		{
			ID:                "gemini-1.5-pro",
			Provider:          ProviderGoogle,
			Capabilities:      []string{CapabilityVision, CapabilityJSON, CapabilityLongContext},
			Tags:              []string{tagAccurate},
			CostPer1K:         0.0044,
			AvgResponseMillis: 3100,
			MaxOutputTokens:   8192,
		},
		{
			ID:                "gemini-1.5-flash",
			Provider:          ProviderGoogle,
			Capabilities:      []string{CapabilityVision, CapabilityJSON, CapabilityLongContext},
			CostPer1K:         0.0002,
			AvgResponseMillis: 900,
			MaxOutputTokens:   8192,
		},
		{
			ID:                "claude-sonnet-4-20250514",
			Provider:          ProviderAnthropic,
			Capabilities:      []string{CapabilityVision, CapabilityJSON},
			Tags:              []string{tagAccurate},
			CostPer1K:         0.009,
			AvgResponseMillis: 2900,
			MaxOutputTokens:   8192,
		},
		{
			ID:                "claude-3-5-haiku-20241022",
			Provider:          ProviderAnthropic,
			Capabilities:      []string{CapabilityVision, CapabilityJSON},
			CostPer1K:         0.0024,
			AvgResponseMillis: 1600,
			MaxOutputTokens:   8192,
		},
	}
}

// EstimateCost predicts the dollar cost of running the prompt against the
// model, assuming roughly four characters per prompt token and a 1000-token
// completion allowance.
func EstimateCost(model Model, prompt string) float64 {
	promptTokens := math.Ceil(float64(len(prompt)) / 4)
	return (promptTokens + 1000) / 1000 * model.CostPer1K
}

// reportedCost converts provider token usage into dollars.
func reportedCost(model Model, promptTokens, completionTokens int) float64 {
	total := promptTokens + completionTokens
	if total <= 0 {
		return 0
	}
	return float64(total) / 1000 * model.CostPer1K
}

// selectModels filters the catalog to models that cover every required
// capability and fit the budget for the prompt, ordered by priority.
func selectModels(catalog []Model, capabilities []string, budget float64, priority, prompt string) []Model {
	eligible := make([]Model, 0, len(catalog))
	for _, model := range catalog {
		if !coversAll(model, capabilities) {
			continue
		}
		if budget > 0 && EstimateCost(model, prompt) > budget {
			continue
		}
		eligible = append(eligible, model)
	}
	orderByPriority(eligible, priority)
	return eligible
}

func coversAll(model Model, capabilities []string) bool {
	for _, capability := range capabilities {
		if !model.HasCapability(capability) {
			return false
		}
	}
	return true
}

func orderByPriority(models []Model, priority string) {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case PrioritySpeed:
		sort.SliceStable(models, func(i, j int) bool {
			return models[i].AvgResponseMillis < models[j].AvgResponseMillis
		})
	case PriorityCost:
		sort.SliceStable(models, func(i, j int) bool {
			return models[i].CostPer1K < models[j].CostPer1K
		})
	default:
		// Accuracy: accurate-tagged models first, cheapest within each group.
		sort.SliceStable(models, func(i, j int) bool {
			iAccurate, jAccurate := models[i].hasTag(tagAccurate), models[j].hasTag(tagAccurate)
			if iAccurate != jAccurate {
				return iAccurate
			}
			return models[i].CostPer1K < models[j].CostPer1K
		})
	}
}
