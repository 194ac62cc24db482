package recognition

// BuildCandidates merges canonical name records and provider hits into a
// unified candidate list.
//
// Each canonical record becomes a candidate carrying the vision, web-guess,
// knowledge-graph, and crop-agreement signals derived from the bundle; a
// provider hit that fuzzy-matches the canonical contributes its confidence
// as the provider signal. Hits that match no canonical become provider-only
// candidates. Duplicate hits for the same organism collapse into one
// candidate whose provider score comes from the higher-confidence hit, so
// re-merging an already merged list changes nothing.
func BuildCandidates(bundle VisionBundle, canonicals []Canonical, hits []ProviderHit) []Candidate {
	cropAgree := CropAgreement(bundle.Labels, bundle.CropLabels)
	candidates := make([]Candidate, 0, len(canonicals)+len(hits))

	for _, canonical := range canonicals {
		scientific := canonical.ScientificName
		if scientific == "" {
			scientific = canonical.CommonName
		}
		candidate := Candidate{
			ScientificName: scientific,
			CommonName:     canonical.CommonName,
			KGID:           canonical.KGID,
			WikipediaTitle: canonical.WikipediaTitle,
			Scores: Scores{
				Vision:    visionSignal(bundle.Labels, canonical.CommonName),
				WebGuess:  webGuessSignal(bundle.WebBestGuess, bundle.WebPageTitles, canonical.CommonName),
				CropAgree: cropAgree,
			},
		}
		if canonical.KGID != "" {
			candidate.Scores.KGMatch = 1.0
		}
		if hit, ok := bestMatchingHit(hits, candidate); ok {
			candidate.Scores.Provider = NormalizeConfidence(hit.Confidence, hit.Source)
		}
		candidates = mergeCandidate(candidates, candidate)
	}

	for _, hit := range hits {
		candidate := Candidate{
			ScientificName: hit.ScientificName,
			CommonName:     hit.CommonName,
			Scores: Scores{
				Provider: NormalizeConfidence(hit.Confidence, hit.Source),
			},
		}
		candidates = mergeCandidate(candidates, candidate)
	}

	return candidates
}

// mergeCandidate appends the candidate unless it fuzzy-matches an existing
// one, in which case the two are combined: names fill gaps and each signal
// keeps its stronger value.
func mergeCandidate(candidates []Candidate, candidate Candidate) []Candidate {
	for i := range candidates {
		existing := &candidates[i]
		if !SameCandidate(existing.ScientificName, existing.CommonName, candidate.ScientificName, candidate.CommonName) {
			continue
		}
		if existing.CommonName == "" {
			existing.CommonName = candidate.CommonName
		}
		if existing.KGID == "" {
			existing.KGID = candidate.KGID
		}
		if existing.WikipediaTitle == "" {
			existing.WikipediaTitle = candidate.WikipediaTitle
		}
		existing.Scores = maxScores(existing.Scores, candidate.Scores)
		return candidates
	}
	return append(candidates, candidate)
}

func maxScores(a, b Scores) Scores {
	return Scores{
		Vision:      maxFloat(a.Vision, b.Vision),
		WebGuess:    maxFloat(a.WebGuess, b.WebGuess),
		KGMatch:     maxFloat(a.KGMatch, b.KGMatch),
		Provider:    maxFloat(a.Provider, b.Provider),
		CropAgree:   maxFloat(a.CropAgree, b.CropAgree),
		HabitatTime: maxFloat(a.HabitatTime, b.HabitatTime),
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// visionSignal is the strongest label score whose description loosely
// matches the candidate name. Empty label sets yield 0.
func visionSignal(labels []Label, name string) float64 {
	best := 0.0
	for _, label := range labels {
		if FuzzyMatch(label.Desc, name) <= 0.3 {
			continue
		}
		if label.Score > best {
			best = label.Score
		}
	}
	return best
}

// Page titles are noisier than best guesses, so their matches count for less.
const pageTitleDiscount = 0.8

// webGuessSignal is the strongest fuzzy match between the candidate name and
// the web-detection strings. Best guesses match at full strength; page
// titles are discounted.
func webGuessSignal(guesses, pageTitles []string, name string) float64 {
	best := 0.0
	for _, guess := range guesses {
		if score := FuzzyMatch(guess, name); score > best {
			best = score
		}
	}
	for _, title := range pageTitles {
		if score := FuzzyMatch(title, name) * pageTitleDiscount; score > best {
			best = score
		}
	}
	return best
}

func bestMatchingHit(hits []ProviderHit, candidate Candidate) (ProviderHit, bool) {
	var best ProviderHit
	found := false
	for _, hit := range hits {
		if !SameCandidate(candidate.ScientificName, candidate.CommonName, hit.ScientificName, hit.CommonName) {
			continue
		}
		if !found || hit.Confidence > best.Confidence {
			best = hit
			found = true
		}
	}
	return best, found
}
