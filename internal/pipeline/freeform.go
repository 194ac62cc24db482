package pipeline

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// looseConfidence is assigned to identifications recovered from freeform
// prose. The phrasing tells us almost nothing about how sure the model was.
const looseConfidence = 0.3

var phrasePattern = regexp.MustCompile(`(?i)\b(?:a|an|the)\s+([a-z][a-z' -]{2,40})`)

// phraseStopwords end a phrase once organism words have been collected, and
// are skipped as leading filler otherwise.
var phraseStopwords = map[string]struct{}{
	"photo": {}, "picture": {}, "image": {}, "closeup": {}, "close-up": {},
	"kind": {}, "type": {}, "sort": {}, "species": {}, "specimen": {},
	"photograph": {}, "shot": {}, "view": {},
	"in": {}, "on": {}, "at": {}, "with": {}, "by": {}, "from": {},
	"near": {}, "under": {}, "over": {}, "that": {}, "this": {}, "it": {},
	"is": {}, "was": {}, "and": {}, "or": {}, "sitting": {}, "standing": {},
	"resting": {}, "perched": {},
}

var plantKeywords = []string{
	"plant", "tree", "flower", "shrub", "fern", "moss", "grass", "succulent",
	"cactus", "vine", "herb", "leaf", "blossom", "fungus", "mushroom",
}

var bugKeywords = []string{
	"insect", "bug", "beetle", "butterfly", "moth", "spider", "bee", "wasp",
	"ant", "dragonfly", "grasshopper", "cricket", "caterpillar", "fly",
	"ladybug", "arachnid", "centipede",
}

var animalKeywords = []string{
	"bird", "mammal", "fish", "reptile", "amphibian", "frog", "snake",
	"lizard", "turtle", "fox", "deer", "squirrel", "rabbit", "cat", "dog",
	"bear", "wolf", "mouse", "rat", "hawk", "owl", "duck", "animal",
}

var titleCaser = cases.Title(language.English)

// LooseExtract mines an identification out of freeform prose. It looks for
// the first "a/an/the <phrase>" construction, trims filler, and categorizes
// by keyword. Returns false when no organism phrase is found or the model
// declared the photo unidentifiable.
func LooseExtract(text string) (Identification, bool) {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "unknown") || strings.Contains(lower, "cannot tell") || strings.Contains(lower, "can't tell") {
		return Identification{}, false
	}

	phrase := extractPhrase(text)
	if phrase == "" {
		return Identification{}, false
	}

	return Identification{
		Category:   categorize(lower),
		CommonName: titleCaser.String(phrase),
		Confidence: looseConfidence,
		Details:    strings.TrimSpace(text),
	}, true
}

func extractPhrase(text string) string {
	for _, match := range phrasePattern.FindAllStringSubmatch(text, 4) {
		phrase := cleanPhrase(match[1])
		if phrase != "" {
			return phrase
		}
	}
	return ""
}

// cleanPhrase trims the match to the organism words: leading filler like
// "photo of" is dropped, and the phrase ends at the first stopword.
func cleanPhrase(raw string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	kept := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.Trim(word, "'-")
		switch word {
		case "", "of", "a", "an", "the":
			continue
		}
		if _, stop := phraseStopwords[word]; stop {
			if len(kept) > 0 {
				break
			}
			continue
		}
		kept = append(kept, word)
		if len(kept) == 4 {
			break
		}
	}
	return strings.Join(kept, " ")
}

func categorize(lower string) string {
	for _, keyword := range bugKeywords {
		if strings.Contains(lower, keyword) {
			return CategoryBug
		}
	}
	for _, keyword := range plantKeywords {
		if strings.Contains(lower, keyword) {
			return CategoryPlant
		}
	}
	for _, keyword := range animalKeywords {
		if strings.Contains(lower, keyword) {
			return CategoryAnimal
		}
	}
	return CategoryUnknown
}
