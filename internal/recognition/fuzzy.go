package recognition

import "strings"

// MergeThreshold is the minimum fuzzy-match score at which two name records
// are treated as the same organism during candidate merging.
const MergeThreshold = 0.5

// FuzzyMatch scores the similarity of two names in [0,1]. Exact matches
// (case-insensitive) score 1.0, substring containment either way scores 0.8,
// and anything else falls back to token overlap capped at 0.6.
func FuzzyMatch(a, b string) float64 {
	s1 := strings.ToLower(strings.TrimSpace(a))
	s2 := strings.ToLower(strings.TrimSpace(b))
	if s1 == "" || s2 == "" {
		return 0
	}
	if s1 == s2 {
		return 1.0
	}
	if strings.Contains(s1, s2) || strings.Contains(s2, s1) {
		return 0.8
	}

	words1 := strings.Fields(s1)
	words2 := strings.Fields(s2)
	common := 0
	for _, w1 := range words1 {
		for _, w2 := range words2 {
			if strings.Contains(w1, w2) || strings.Contains(w2, w1) {
				common++
				break
			}
		}
	}
	if common == 0 {
		return 0
	}
	overlap := float64(common) * 0.2
	if overlap > 0.6 {
		return 0.6
	}
	return overlap
}

// SameCandidate reports whether a provider hit or canonical record matches an
// existing candidate closely enough to merge, comparing scientific names
// first and common names second.
func SameCandidate(scientificA, commonA, scientificB, commonB string) bool {
	if FuzzyMatch(scientificA, scientificB) > MergeThreshold {
		return true
	}
	if commonA != "" && commonB != "" && FuzzyMatch(commonA, commonB) > MergeThreshold {
		return true
	}
	return false
}
