package recognition

import "time"

// Label is a single description/score pair from the vision labeler.
type Label struct {
	Desc  string  `json:"desc"`
	Score float64 `json:"score"`
}

// SafeFlags carries the vision provider's moderation verdicts. The core
// forwards them untouched; enforcement belongs to the caller.
type SafeFlags struct {
	Adult    string `json:"adult"`
	Violence string `json:"violence"`
	Racy     string `json:"racy"`
	Medical  string `json:"medical"`
}

// VisionBundle is the normalized output of one vision-labeling pass over an
// image. It is produced once per request and treated as immutable afterwards.
type VisionBundle struct {
	Labels        []Label   `json:"labels"`
	CropLabels    []Label   `json:"crop_labels"`
	WebBestGuess  []string  `json:"web_best_guess"`
	WebPageTitles []string  `json:"web_page_titles"`
	Safe          SafeFlags `json:"safe"`
}

// CanonicalSource tags where a canonical name record originated.
type CanonicalSource string

const (
	SourceVision CanonicalSource = "vision"
	SourceWeb    CanonicalSource = "web"
	SourceManual CanonicalSource = "manual"
)

// Canonical is a normalized name record produced by knowledge-graph lookup.
// A lookup that fails degrades to a bare common-name-only record.
type Canonical struct {
	CommonName     string          `json:"common_name"`
	ScientificName string          `json:"scientific_name,omitempty"`
	KGID           string          `json:"kg_id,omitempty"`
	WikipediaTitle string          `json:"wikipedia_title,omitempty"`
	Source         CanonicalSource `json:"source"`
}

// HitSource identifies the recognition provider behind a hit.
type HitSource string

const (
	SourceWildlife HitSource = "inat"
	SourcePlant    HitSource = "plantid"
)

// ProviderHit is one normalized suggestion from a recognition provider.
type ProviderHit struct {
	ScientificName string         `json:"scientific_name"`
	CommonName     string         `json:"common_name,omitempty"`
	Source         HitSource      `json:"source"`
	Confidence     float64        `json:"confidence"`
	Meta           map[string]any `json:"meta,omitempty"`
}

// Scores is the sparse per-signal score set for a candidate. A zero value
// means the signal is absent and contributes nothing to the total.
type Scores struct {
	Vision      float64 `json:"vision,omitempty"`
	WebGuess    float64 `json:"web_guess,omitempty"`
	KGMatch     float64 `json:"kg_match,omitempty"`
	Provider    float64 `json:"provider,omitempty"`
	CropAgree   float64 `json:"crop_agree,omitempty"`
	HabitatTime float64 `json:"habitat_time,omitempty"`
}

// Candidate is a unified, scored guess at the organism's identity. Identity
// is the scientific name, compared case-insensitively.
type Candidate struct {
	ScientificName string  `json:"scientific_name"`
	CommonName     string  `json:"common_name,omitempty"`
	KGID           string  `json:"kg_id,omitempty"`
	WikipediaTitle string  `json:"wikipedia_title,omitempty"`
	Scores         Scores  `json:"scores"`
	TotalScore     float64 `json:"total_score"`
}

// DisplayName returns the candidate's common name when present, falling back
// to the scientific name.
func (c Candidate) DisplayName() string {
	if c.CommonName != "" {
		return c.CommonName
	}
	return c.ScientificName
}

// WikiCard is an encyclopedia summary attached to a pick on a best-effort
// basis.
type WikiCard struct {
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	Thumbnail string `json:"thumbnail,omitempty"`
	URL       string `json:"url"`
}

// Mode classifies the outcome of a recognition decision.
type Mode string

const (
	ModePick         Mode = "pick"
	ModeDisambiguate Mode = "disambiguate"
	ModeNoMatch      Mode = "no_match"
)

// StageTiming records wall-clock time spent in one pipeline stage.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Costs itemizes spend across the traditional and LLM recognition paths.
type Costs struct {
	Traditional float64 `json:"traditional"`
	AI          float64 `json:"ai"`
	Total       float64 `json:"total"`
}

// Debug carries the full provenance of a decision for audit and telemetry.
// Partial debug data survives stage failures.
type Debug struct {
	RecognitionID string        `json:"recognition_id,omitempty"`
	VisionBundle  *VisionBundle `json:"vision_bundle,omitempty"`
	Candidates    []Candidate   `json:"candidates,omitempty"`
	StageTimings  []StageTiming `json:"stage_timings,omitempty"`
	Elapsed       time.Duration `json:"elapsed,omitempty"`
	Costs         *Costs        `json:"costs,omitempty"`
}

// Decision is the sole output contract of the recognition core. It is
// terminal and never mutated after construction. A no_match decision is a
// valid value, not an error.
type Decision struct {
	Mode  Mode        `json:"mode"`
	Pick  *Candidate  `json:"pick,omitempty"`
	Top3  []Candidate `json:"top3,omitempty"`
	Wiki  *WikiCard   `json:"wiki,omitempty"`
	Debug *Debug      `json:"debug,omitempty"`
}
