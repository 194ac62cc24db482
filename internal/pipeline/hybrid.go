package pipeline

import (
	"context"
	"sync"
	"time"

	"wildlens/internal/logging"
	"wildlens/internal/recognition"
)

// Confidence bump applied when the traditional path independently lands on
// the model's answer.
const corroborationBoost = 0.1

// Hybrid runs the traditional and model paths concurrently and merges the
// outcomes. Both paths run to completion; a failure on one side never
// cancels the other. The model's answer leads when it names an organism,
// with the traditional result serving as corroboration.
func (p *Pipeline) Hybrid(ctx context.Context, image []byte) (*recognition.Decision, error) {
	start := time.Now()

	var (
		wg          sync.WaitGroup
		traditional *recognition.Decision
		tradErr     error
		llm         *LLMResult
		llmErr      error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		traditional, tradErr = p.Run(ctx, image)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		llm, llmErr = p.LLMOnly(ctx, image)
	}()

	wg.Wait()
	elapsed := time.Since(start)

	if tradErr != nil {
		p.logger.Warn("traditional path failed in hybrid mode", logging.Error(tradErr))
	}
	if llmErr != nil {
		p.logger.Warn("model path failed in hybrid mode", logging.Error(llmErr))
	}

	switch {
	case tradErr != nil && llmErr != nil:
		return &recognition.Decision{
			Mode:  recognition.ModeNoMatch,
			Debug: &recognition.Debug{Elapsed: elapsed, Costs: &recognition.Costs{}},
		}, nil
	case llmErr != nil:
		return traditional, nil
	case tradErr != nil:
		return llm.Decision(elapsed), nil
	}

	return mergeDecisions(traditional, llm, elapsed), nil
}

// mergeDecisions folds the traditional decision into the model's answer.
// When both paths succeeded, the model names the organism and the
// traditional pick either corroborates it or is surfaced as an alternate.
func mergeDecisions(traditional *recognition.Decision, llm *LLMResult, elapsed time.Duration) *recognition.Decision {
	merged := llm.Decision(elapsed)

	// Carry the traditional path's provenance regardless of who wins.
	if traditional.Debug != nil {
		merged.Debug.VisionBundle = traditional.Debug.VisionBundle
		merged.Debug.StageTimings = traditional.Debug.StageTimings
		merged.Debug.RecognitionID = traditional.Debug.RecognitionID
		if traditional.Debug.Costs != nil {
			merged.Debug.Costs.Traditional = traditional.Debug.Costs.Traditional
			merged.Debug.Costs.Total = merged.Debug.Costs.AI + merged.Debug.Costs.Traditional
		}
	}

	if !llm.Identification.Named() {
		// Model came up empty; the traditional decision stands, with the
		// model spend folded into its costs.
		if traditional.Debug != nil && traditional.Debug.Costs != nil {
			traditional.Debug.Costs.AI += llm.Cost
			traditional.Debug.Costs.Total = traditional.Debug.Costs.Traditional + traditional.Debug.Costs.AI
		}
		return traditional
	}

	tradPick := traditionalPick(traditional)
	if tradPick == nil {
		if traditional.Debug != nil {
			merged.Debug.Candidates = append(merged.Debug.Candidates, traditional.Debug.Candidates...)
		}
		return merged
	}

	agrees := recognition.SameCandidate(
		merged.Pick.ScientificName, merged.Pick.CommonName,
		tradPick.ScientificName, tradPick.CommonName,
	)
	if agrees {
		merged.Pick.Scores.Provider = clampScore(merged.Pick.Scores.Provider + corroborationBoost)
		merged.Pick.TotalScore = merged.Pick.Scores.Provider
		if merged.Pick.ScientificName == "" {
			merged.Pick.ScientificName = tradPick.ScientificName
		}
		if merged.Pick.WikipediaTitle == "" {
			merged.Pick.WikipediaTitle = tradPick.WikipediaTitle
		}
		if merged.Pick.KGID == "" {
			merged.Pick.KGID = tradPick.KGID
		}
		merged.Wiki = traditional.Wiki
	} else {
		alternate := *tradPick
		merged.Top3 = append([]recognition.Candidate{*merged.Pick}, alternate)
	}
	merged.Debug.Candidates = []recognition.Candidate{*merged.Pick}
	if traditional.Debug != nil {
		merged.Debug.Candidates = append(merged.Debug.Candidates, traditional.Debug.Candidates...)
	}
	return merged
}

// traditionalPick selects the traditional path's best candidate, if any.
func traditionalPick(decision *recognition.Decision) *recognition.Candidate {
	if decision.Pick != nil {
		return decision.Pick
	}
	if len(decision.Top3) > 0 {
		return &decision.Top3[0]
	}
	return nil
}

func clampScore(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
