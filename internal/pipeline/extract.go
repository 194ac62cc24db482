package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"wildlens/internal/airouter"
)

// Organism categories an identification may carry.
const (
	CategoryPlant   = "plant"
	CategoryAnimal  = "animal"
	CategoryBug     = "bug"
	CategoryUnknown = "unknown"
)

// Identification is the parsed payload of a model identification answer.
type Identification struct {
	Category       string  `json:"category"`
	CommonName     string  `json:"common_name"`
	ScientificName string  `json:"scientific_name"`
	Confidence     float64 `json:"confidence"`
	Details        string  `json:"details"`
}

// Named reports whether the identification carries at least one usable name.
func (i Identification) Named() bool {
	return i.CommonName != "" || i.ScientificName != ""
}

// ParseIdentification decodes and validates a structured model answer. The
// raw text is consulted for a confidence heuristic when the payload omits
// one.
func ParseIdentification(raw string) (Identification, error) {
	var ident Identification
	if err := DecodeModelJSON(raw, &ident); err != nil {
		return Identification{}, err
	}

	ident.Category = normalizeCategory(ident.Category)
	ident.CommonName = strings.TrimSpace(ident.CommonName)
	ident.ScientificName = strings.TrimSpace(ident.ScientificName)
	ident.Details = strings.TrimSpace(ident.Details)

	if ident.Category != CategoryUnknown && !ident.Named() {
		return Identification{}, errors.New("identification names no organism")
	}
	if ident.Confidence <= 0 {
		ident.Confidence = airouter.ExtractConfidence(raw)
	}
	if ident.Confidence > 1 {
		ident.Confidence = 1
	}
	return ident, nil
}

func normalizeCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case CategoryPlant:
		return CategoryPlant
	case CategoryAnimal:
		return CategoryAnimal
	case CategoryBug, "insect", "arthropod":
		return CategoryBug
	default:
		return CategoryUnknown
	}
}

// DecodeModelJSON decodes JSON from a model response, handling common
// formatting quirks: code fences and prose wrapped around the object.
func DecodeModelJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("decode model payload: %w", directErr)
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("decode sanitized model payload: %w", err)
	}
	return nil
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
