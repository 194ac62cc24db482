package recognition

import "sort"

// Decide scores every candidate, ranks them, and classifies the outcome.
//
// No candidates yields no_match. A single candidate is always a pick. With
// two or more, the top candidate wins outright only when it beats the
// runner-up by at least the engine's margin; otherwise the top three are
// returned for disambiguation.
func (e *Engine) Decide(candidates []Candidate) Decision {
	scored := make([]Candidate, len(candidates))
	copy(scored, candidates)
	for i := range scored {
		scored[i].TotalScore = e.Score(scored[i])
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].TotalScore > scored[j].TotalScore
	})

	switch len(scored) {
	case 0:
		return Decision{Mode: ModeNoMatch}
	case 1:
		pick := scored[0]
		return Decision{Mode: ModePick, Pick: &pick, Debug: &Debug{Candidates: scored}}
	}

	gap := scored[0].TotalScore - scored[1].TotalScore
	if gap >= e.margin {
		pick := scored[0]
		return Decision{Mode: ModePick, Pick: &pick, Debug: &Debug{Candidates: scored}}
	}

	top := scored
	if len(top) > 3 {
		top = top[:3]
	}
	top3 := make([]Candidate, len(top))
	copy(top3, top)
	return Decision{Mode: ModeDisambiguate, Top3: top3, Debug: &Debug{Candidates: scored}}
}
