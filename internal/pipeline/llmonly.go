package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wildlens/internal/airouter"
	"wildlens/internal/logging"
	"wildlens/internal/recognition"
	"wildlens/internal/services"
)

// Floor for the quick-prompt retry budget so the cheap tier always has at
// least one viable model.
const quickBudgetFloor = 0.02

const quickMaxTokens = 120

// LLMResult is the outcome of the model-only recognition path, including
// enough provenance to merge with or stand in for a traditional decision.
type LLMResult struct {
	Identification Identification
	ModelID        string
	Provider       string
	Cost           float64
	Raw            string
	Degraded       bool
}

// LLMOnly identifies the organism with the model router alone. The full
// structured prompt is tried first; a malformed reply retries once with a
// cheaper quick prompt whose answer is parsed structurally, then mined for
// a species phrase when even that fails. Router failures are returned to
// the caller; only parse failures degrade.
func (p *Pipeline) LLMOnly(ctx context.Context, image []byte) (*LLMResult, error) {
	if p.deps.LLM == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "llm", "no model router configured", nil)
	}
	recognitionID := uuid.NewString()
	ctx = services.WithRecognitionID(ctx, recognitionID)
	logger := logging.WithRecognitionID(p.logger, recognitionID)

	resp, err := p.deps.LLM.Invoke(ctx, airouter.Request{
		Prompt:       speciesPrompt,
		Image:        image,
		Capabilities: []string{airouter.CapabilityVision, airouter.CapabilityJSON},
		Budget:       p.cfg.Budget,
		Priority:     p.cfg.Priority,
	})
	if err != nil {
		return nil, err
	}

	result := &LLMResult{ModelID: resp.ModelID, Provider: resp.Provider, Cost: resp.Cost, Raw: resp.Text}
	ident, err := ParseIdentification(resp.Text)
	if err == nil {
		result.Identification = ident
		return result, nil
	}
	logger.Warn("structured identification unparseable, retrying with quick prompt",
		logging.String("model", resp.ModelID),
		logging.Error(err))

	return p.quickRetry(ctx, logger, image, result)
}

// quickRetry runs the cheap tier. Its reply is parsed structurally first,
// then falls to loose phrase extraction; when even that finds nothing the
// result degrades to unknown instead of erroring, because the spend has
// already happened.
func (p *Pipeline) quickRetry(ctx context.Context, logger *slog.Logger, image []byte, prior *LLMResult) (*LLMResult, error) {
	budget := p.cfg.Budget * 0.4
	if budget < quickBudgetFloor {
		budget = quickBudgetFloor
	}

	resp, err := p.deps.LLM.Invoke(ctx, airouter.Request{
		Prompt:       quickPrompt,
		Image:        image,
		Capabilities: []string{airouter.CapabilityVision},
		Budget:       budget,
		Priority:     airouter.PriorityCost,
		MaxTokens:    quickMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	result := &LLMResult{
		ModelID:  resp.ModelID,
		Provider: resp.Provider,
		Cost:     prior.Cost + resp.Cost,
		Raw:      resp.Text,
		Degraded: true,
	}
	if ident, err := ParseIdentification(resp.Text); err == nil {
		result.Identification = ident
		return result, nil
	}
	if ident, ok := LooseExtract(resp.Text); ok {
		result.Identification = ident
		return result, nil
	}
	logger.Warn("quick prompt yielded no recognizable organism",
		logging.String("model", resp.ModelID))
	result.Identification = Identification{Category: CategoryUnknown, Confidence: 0}
	return result, nil
}

// Decision converts an LLM result into the common decision shape.
func (r *LLMResult) Decision(elapsed time.Duration) *recognition.Decision {
	costs := &recognition.Costs{AI: r.Cost, Total: r.Cost}
	debug := &recognition.Debug{Elapsed: elapsed, Costs: costs}

	if !r.Identification.Named() {
		return &recognition.Decision{Mode: recognition.ModeNoMatch, Debug: debug}
	}
	pick := recognition.Candidate{
		ScientificName: r.Identification.ScientificName,
		CommonName:     r.Identification.CommonName,
		Scores:         recognition.Scores{Provider: r.Identification.Confidence},
		TotalScore:     r.Identification.Confidence,
	}
	debug.Candidates = []recognition.Candidate{pick}
	return &recognition.Decision{Mode: recognition.ModePick, Pick: &pick, Debug: debug}
}
