package recognition

import "testing"

func TestDecideEmptyIsNoMatch(t *testing.T) {
	decision := newTestEngine().Decide(nil)
	if decision.Mode != ModeNoMatch {
		t.Fatalf("expected no_match for empty candidate list, got %s", decision.Mode)
	}
	if decision.Pick != nil || decision.Top3 != nil {
		t.Fatal("expected no pick or top3 on no_match")
	}
}

func TestDecideSingleCandidateIsAlwaysPick(t *testing.T) {
	engine := NewEngine(DefaultWeights(), 0.9)
	candidates := []Candidate{{
		ScientificName: "Rosa gallica",
		CommonName:     "Rose",
		Scores:         Scores{Vision: 0.82},
	}}
	decision := engine.Decide(candidates)
	if decision.Mode != ModePick {
		t.Fatalf("expected pick for single candidate regardless of margin, got %s", decision.Mode)
	}
	if decision.Pick == nil || decision.Pick.ScientificName != "Rosa gallica" {
		t.Fatalf("unexpected pick: %+v", decision.Pick)
	}
	if decision.Pick.TotalScore <= 0 {
		t.Fatal("expected pick to carry its computed total score")
	}
}

func TestDecideMarginSeparatesPickFromDisambiguate(t *testing.T) {
	engine := NewEngine(DefaultWeights(), DefaultMargin)
	// Raw weighted scores ~0.52 and ~0.48: a 0.04 gap, below the 0.15 margin.
	close1 := Candidate{ScientificName: "alpha", Scores: Scores{Provider: 0.52 / 0.25}}
	close2 := Candidate{ScientificName: "beta", Scores: Scores{Provider: 0.48 / 0.25}}
	decision := engine.Decide([]Candidate{close2, close1})
	if decision.Mode != ModeDisambiguate {
		t.Fatalf("expected disambiguate for 0.04 gap, got %s", decision.Mode)
	}
	if len(decision.Top3) != 2 {
		t.Fatalf("expected both candidates in top3, got %d", len(decision.Top3))
	}
	if decision.Top3[0].ScientificName != "alpha" {
		t.Fatalf("expected alpha ranked first, got %s", decision.Top3[0].ScientificName)
	}
}

func TestDecidePickWhenMarginMet(t *testing.T) {
	engine := NewEngine(DefaultWeights(), DefaultMargin)
	strong := Candidate{ScientificName: "Danaus plexippus", CommonName: "Monarch Butterfly", Scores: Scores{Provider: 0.9, Vision: 0.8}}
	weak := Candidate{ScientificName: "flower", CommonName: "flower", Scores: Scores{Vision: 0.5}}
	decision := engine.Decide([]Candidate{weak, strong})
	if decision.Mode != ModePick {
		t.Fatalf("expected pick when margin met, got %s", decision.Mode)
	}
	if decision.Pick.ScientificName != "Danaus plexippus" {
		t.Fatalf("expected monarch pick, got %s", decision.Pick.ScientificName)
	}
	gap := decision.Pick.TotalScore - decision.Debug.Candidates[1].TotalScore
	if gap < engine.Margin() {
		t.Fatalf("pick violates margin invariant: gap %v < margin %v", gap, engine.Margin())
	}
}

func TestDecideDisambiguateCapsAtThree(t *testing.T) {
	engine := NewEngine(DefaultWeights(), DefaultMargin)
	candidates := []Candidate{
		{ScientificName: "a", Scores: Scores{Provider: 0.41 / 0.25}},
		{ScientificName: "b", Scores: Scores{Provider: 0.42 / 0.25}},
		{ScientificName: "c", Scores: Scores{Provider: 0.43 / 0.25}},
		{ScientificName: "d", Scores: Scores{Provider: 0.44 / 0.25}},
	}
	decision := engine.Decide(candidates)
	if decision.Mode != ModeDisambiguate {
		t.Fatalf("expected disambiguate, got %s", decision.Mode)
	}
	if len(decision.Top3) != 3 {
		t.Fatalf("expected top3 capped at 3, got %d", len(decision.Top3))
	}
	if len(decision.Debug.Candidates) != 4 {
		t.Fatalf("expected full candidate list in debug, got %d", len(decision.Debug.Candidates))
	}
}

func TestDecideDoesNotMutateInput(t *testing.T) {
	engine := newTestEngine()
	candidates := []Candidate{{ScientificName: "Rosa gallica", Scores: Scores{Vision: 0.8}}}
	engine.Decide(candidates)
	if candidates[0].TotalScore != 0 {
		t.Fatal("expected caller's slice to remain unscored")
	}
}
