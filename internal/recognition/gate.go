package recognition

import "strings"

// plantTerms is the fixed vocabulary the gate scans vision labels for. The
// list is hand-tuned, not derived; treat entries as tunable.
var plantTerms = []string{
	"leaf", "leaves", "flower", "flowers", "petal", "petals",
	"bark", "stem", "stems", "branch", "branches", "bud", "buds",
	"bloom", "blooms", "foliage", "plant", "plants", "tree", "trees",
	"shrub", "shrubbery", "grass", "vine", "vines",
	"seed", "seeds", "fruit", "fruits", "berry", "berries",
	"garden", "flora", "vegetation", "greenery",
}

const plantGateThreshold = 0.6

// IsPlant reports whether the vision bundle looks like a plant and the
// plant-specific classifier is worth invoking. It combines the strongest
// plant-term label score from the main and crop label sets with a boolean
// scan of the web guesses. Empty label sets contribute a zero score rather
// than an error.
func IsPlant(bundle VisionBundle) bool {
	if maxPlantTermScore(bundle.Labels) >= plantGateThreshold {
		return true
	}
	if maxPlantTermScore(bundle.CropLabels) >= plantGateThreshold {
		return true
	}
	for _, guess := range bundle.WebBestGuess {
		if containsPlantTerm(guess) {
			return true
		}
	}
	return false
}

// PlantConfidence returns the strongest plant-term label score across the
// main and crop label sets, for logging and gate diagnostics.
func PlantConfidence(bundle VisionBundle) float64 {
	main := maxPlantTermScore(bundle.Labels)
	crop := maxPlantTermScore(bundle.CropLabels)
	if crop > main {
		return crop
	}
	return main
}

func maxPlantTermScore(labels []Label) float64 {
	best := 0.0
	for _, label := range labels {
		if !containsPlantTerm(label.Desc) {
			continue
		}
		if label.Score > best {
			best = label.Score
		}
	}
	return best
}

func containsPlantTerm(text string) bool {
	lowered := strings.ToLower(text)
	for _, term := range plantTerms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
