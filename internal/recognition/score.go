package recognition

import "strings"

// Weights is the linear signal weighting used by the scoring engine. The
// values are hand-tuned; the only property relied on is that generic vision
// labels end up ranked below specific taxon names.
type Weights struct {
	Vision      float64
	WebGuess    float64
	KGMatch     float64
	Provider    float64
	CropAgree   float64
	HabitatTime float64
}

// DefaultWeights returns the stock signal weighting.
func DefaultWeights() Weights {
	return Weights{
		Vision:      0.28,
		WebGuess:    0.18,
		KGMatch:     0.14,
		Provider:    0.25,
		CropAgree:   0.10,
		HabitatTime: 0.05,
	}
}

// DefaultMargin is the minimum score gap between the top two candidates
// required to auto-accept a single pick.
const DefaultMargin = 0.15

const (
	genericPenalty = 0.6
	specificBoost  = 1.3
)

// genericTerms are names too vague to be a useful identification: raw vision
// labels frequently surface these ("yellow", "plant", "close-up") with high
// raw scores, so they are suppressed relative to real taxon names.
var genericTerms = []string{
	"flower", "petal", "leaf", "plant", "color", "yellow", "white", "red",
	"blue", "green", "brown", "black", "orange", "pink", "purple",
	"close-up", "image", "photo", "picture", "object", "thing", "item",
	"tree", "grass", "weed",
}

// Engine scores candidates and turns a candidate list into a decision.
// It is stateless apart from its read-only configuration and safe for
// concurrent use.
type Engine struct {
	weights Weights
	margin  float64
}

// NewEngine builds a scoring engine. A non-positive margin falls back to
// DefaultMargin.
func NewEngine(weights Weights, margin float64) *Engine {
	if margin <= 0 {
		margin = DefaultMargin
	}
	return &Engine{weights: weights, margin: margin}
}

// Margin returns the pick/disambiguate margin the engine decides with.
func (e *Engine) Margin() float64 { return e.margin }

// Score computes the weighted multi-signal score for a candidate, applies
// the generic-term penalty or specific-name boost, and clamps to [0,1].
func (e *Engine) Score(c Candidate) float64 {
	s := c.Scores
	w := e.weights
	total := s.Vision*w.Vision +
		s.WebGuess*w.WebGuess +
		s.KGMatch*w.KGMatch +
		s.Provider*w.Provider +
		s.CropAgree*w.CropAgree +
		s.HabitatTime*w.HabitatTime

	switch {
	case isGenericName(c):
		total *= genericPenalty
	case isSpecificName(c):
		total *= specificBoost
	}

	return clamp01(total)
}

func isGenericName(c Candidate) bool {
	common := strings.ToLower(c.CommonName)
	scientific := strings.ToLower(c.ScientificName)
	for _, term := range genericTerms {
		if common == term || scientific == term {
			return true
		}
		if common != "" && strings.Contains(common, term) && len(strings.Fields(common)) == 1 {
			return true
		}
	}
	return false
}

// isSpecificName recognizes candidates that look like genuine taxon
// identifications: binomial scientific names, multi-word common names that
// avoid the generic vocabulary, or hits a specialized provider was confident
// about.
func isSpecificName(c Candidate) bool {
	if strings.Contains(strings.TrimSpace(c.ScientificName), " ") {
		return true
	}
	common := strings.ToLower(strings.TrimSpace(c.CommonName))
	if strings.Contains(common, " ") && !containsGenericTerm(common) {
		return true
	}
	return c.Scores.Provider > 0.5
}

func containsGenericTerm(name string) bool {
	for _, term := range genericTerms {
		if strings.Contains(name, term) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NormalizeConfidence maps a provider's native confidence scale onto [0,1].
// The wildlife-ID provider reports 0-100 scores; everything else is already
// unit-scaled and only gets clamped.
func NormalizeConfidence(confidence float64, source HitSource) float64 {
	if source == SourceWildlife && confidence > 1 {
		confidence = confidence / 100
	}
	return clamp01(confidence)
}

// CropAgreement measures whether the most prominent main label and crop
// label describe the same thing. Identical top labels score 1.0; sharing
// words longer than two characters scores 0.5 plus 0.1 per shared word.
func CropAgreement(labels, cropLabels []Label) float64 {
	if len(labels) == 0 || len(cropLabels) == 0 {
		return 0
	}
	visionTop := strings.ToLower(labels[0].Desc)
	cropTop := strings.ToLower(cropLabels[0].Desc)
	if visionTop == cropTop {
		return 1.0
	}

	cropWords := strings.Fields(cropTop)
	common := 0
	for _, word := range strings.Fields(visionTop) {
		if len(word) <= 2 {
			continue
		}
		for _, cw := range cropWords {
			if word == cw {
				common++
				break
			}
		}
	}
	if common == 0 {
		return 0
	}
	return clamp01(0.5 + float64(common)*0.1)
}
