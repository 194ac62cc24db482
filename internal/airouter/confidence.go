package airouter

import (
	"regexp"
	"strconv"
	"strings"
)

var confidencePattern = regexp.MustCompile(`"confidence"\s*:\s*([0-9.]+)`)

// ExtractConfidence pulls a confidence figure out of raw model output. A
// declared "confidence" field wins; otherwise length and quoting serve as a
// rough proxy for how committed the answer is.
func ExtractConfidence(text string) float64 {
	if match := confidencePattern.FindStringSubmatch(text); len(match) == 2 {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			if value < 0 {
				return 0
			}
			if value > 1 {
				return 1
			}
			return value
		}
	}
	trimmed := strings.TrimSpace(text)
	switch {
	case len(trimmed) > 100 && strings.Contains(trimmed, `"`):
		return 0.8
	case len(trimmed) > 50:
		return 0.6
	default:
		return 0.3
	}
}
