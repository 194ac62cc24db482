package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wildlens/internal/airouter"
	"wildlens/internal/logging"
	"wildlens/internal/lookupcache"
	"wildlens/internal/ratelimit"
	"wildlens/internal/recognition"
	"wildlens/internal/services"
	"wildlens/internal/services/kg"
	"wildlens/internal/services/plantid"
	"wildlens/internal/services/vision"
	"wildlens/internal/services/wiki"
	"wildlens/internal/services/wildlife"
)

// Nominal per-call dollar figures for traditional-path cost reporting.
const (
	visionCallCost  = 0.0015
	plantIDCallCost = 0.005
)

// How many label phrases feed canonical resolution per request, and the
// label score below which a phrase is too weak to be worth resolving.
const (
	maxLabelQueries    = 3
	maxWebQueries      = 2
	minLabelQueryScore = 0.6
)

// LLMInvoker is the slice of the model router the pipeline needs.
type LLMInvoker interface {
	Invoke(ctx context.Context, req airouter.Request) (*airouter.Response, error)
}

// Config tunes pipeline behaviour.
type Config struct {
	Margin        float64
	BranchTimeout time.Duration
	Budget        float64
	Priority      string
	WikiEnabled   bool
}

// Deps carries the pipeline's collaborators. Vision is mandatory; a nil
// entry elsewhere disables that branch.
type Deps struct {
	Vision       vision.Provider
	Plants       plantid.Classifier
	Wildlife     wildlife.Searcher
	KG           kg.Resolver
	Wiki         wiki.Summarizer
	LLM          LLMInvoker
	Cache        *lookupcache.Cache
	VisionLimit  *ratelimit.Limiter
	PlantIDLimit *ratelimit.Limiter
	Logger       *slog.Logger
}

// Pipeline coordinates providers into recognition decisions.
type Pipeline struct {
	cfg    Config
	deps   Deps
	engine *recognition.Engine
	logger *slog.Logger
}

// New constructs a Pipeline.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Vision == nil {
		return nil, errors.New("pipeline requires a vision provider")
	}
	if cfg.BranchTimeout <= 0 {
		cfg.BranchTimeout = 25 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		engine: recognition.NewEngine(recognition.DefaultWeights(), cfg.Margin),
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Run executes the traditional recognition path over one photo. Vision
// failure aborts the request; every other branch degrades to absence.
func (p *Pipeline) Run(ctx context.Context, image []byte) (*recognition.Decision, error) {
	start := time.Now()
	recognitionID := uuid.NewString()
	ctx = services.WithRecognitionID(ctx, recognitionID)
	logger := logging.WithRecognitionID(p.logger, recognitionID)

	debug := &recognition.Debug{RecognitionID: recognitionID, Costs: &recognition.Costs{}}

	if !p.deps.VisionLimit.Allow() {
		return nil, services.Wrap(services.ErrQuotaExceeded, "pipeline", "vision", "daily vision cap reached", nil)
	}
	logger.Debug("vision call admitted", logging.Int("remaining_today", p.deps.VisionLimit.Remaining()))

	visionStart := time.Now()
	bundle, err := p.deps.Vision.Annotate(ctx, image)
	debug.StageTimings = append(debug.StageTimings, recognition.StageTiming{Stage: "vision", Duration: time.Since(visionStart)})
	if err != nil {
		return nil, err
	}
	debug.VisionBundle = bundle
	debug.Costs.Traditional += visionCallCost

	isPlant := recognition.IsPlant(*bundle)
	logger.Debug("plant gate evaluated",
		logging.Bool("is_plant", isPlant),
		logging.Float64("plant_confidence", recognition.PlantConfidence(*bundle)))

	canonicals, hits := p.gather(ctx, logger, image, *bundle, isPlant, debug)

	candidates := recognition.BuildCandidates(*bundle, canonicals, hits)
	decision := p.engine.Decide(candidates)

	if decision.Debug == nil {
		decision.Debug = &recognition.Debug{}
	}
	decision.Debug.RecognitionID = recognitionID
	decision.Debug.VisionBundle = debug.VisionBundle
	decision.Debug.StageTimings = debug.StageTimings
	decision.Debug.Costs = debug.Costs
	decision.Debug.Costs.Total = decision.Debug.Costs.Traditional + decision.Debug.Costs.AI
	decision.Debug.Elapsed = time.Since(start)

	p.attachWiki(ctx, logger, &decision)

	logger.Info("recognition decided",
		logging.String("mode", string(decision.Mode)),
		logging.Int("candidates", len(decision.Debug.Candidates)),
		logging.Duration("elapsed", decision.Debug.Elapsed))
	return &decision, nil
}

// gather fans out to the canonical, wildlife, and (gate permitting) plant
// branches concurrently. The wildlife search always runs; the plant
// classifier joins it only when the gate opens. Each branch gets its own
// timeout so one stalled provider cannot starve the rest, and branch
// failures never cancel siblings.
func (p *Pipeline) gather(ctx context.Context, logger *slog.Logger, image []byte, bundle recognition.VisionBundle, isPlant bool, debug *recognition.Debug) ([]recognition.Canonical, []recognition.ProviderHit) {
	var (
		mu         sync.Mutex
		canonicals []recognition.Canonical
		hits       []recognition.ProviderHit
		wg         sync.WaitGroup
	)

	addTiming := func(stage string, start time.Time) {
		mu.Lock()
		debug.StageTimings = append(debug.StageTimings, recognition.StageTiming{Stage: stage, Duration: time.Since(start)})
		mu.Unlock()
	}
	addHits := func(branchHits []recognition.ProviderHit) {
		mu.Lock()
		hits = append(hits, branchHits...)
		mu.Unlock()
	}
	branch := func(stage string, run func(context.Context) []recognition.ProviderHit) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			branchCtx, cancel := context.WithTimeout(ctx, p.cfg.BranchTimeout)
			defer cancel()
			branchCtx = services.WithStage(branchCtx, stage)
			start := time.Now()
			branchHits := run(branchCtx)
			addTiming(stage, start)
			addHits(branchHits)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		branchCtx, cancel := context.WithTimeout(ctx, p.cfg.BranchTimeout)
		defer cancel()
		branchCtx = services.WithStage(branchCtx, "canonical")
		start := time.Now()
		resolved := p.resolveCanonicals(branchCtx, logger, bundle)
		addTiming("canonical", start)
		mu.Lock()
		canonicals = append(canonicals, resolved...)
		mu.Unlock()
	}()

	branch("wildlife", func(branchCtx context.Context) []recognition.ProviderHit {
		return p.searchWildlife(branchCtx, logger, bundle)
	})
	if isPlant {
		branch("plantid", func(branchCtx context.Context) []recognition.ProviderHit {
			return p.classifyPlant(branchCtx, logger, image, debug)
		})
	}

	wg.Wait()
	return canonicals, hits
}

// resolveCanonicals turns the strongest label phrases into canonical name
// records, consulting the lookup cache before the knowledge graph. A failed
// lookup degrades to a bare name-only record so the phrase still competes.
func (p *Pipeline) resolveCanonicals(ctx context.Context, logger *slog.Logger, bundle recognition.VisionBundle) []recognition.Canonical {
	queries := canonicalQueries(bundle)
	resolved := make([]recognition.Canonical, 0, len(queries))
	for _, query := range queries {
		resolved = append(resolved, p.resolveOne(ctx, logger, query))
	}
	return resolved
}

type canonicalQuery struct {
	phrase string
	source recognition.CanonicalSource
}

func canonicalQueries(bundle recognition.VisionBundle) []canonicalQuery {
	queries := make([]canonicalQuery, 0, maxLabelQueries+maxWebQueries)
	seen := make(map[string]struct{})
	add := func(phrase string, source recognition.CanonicalSource, limit int, count *int) {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" || *count >= limit {
			return
		}
		key := strings.ToLower(phrase)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		queries = append(queries, canonicalQuery{phrase: phrase, source: source})
		*count++
	}

	labelCount := 0
	for _, label := range bundle.Labels {
		if label.Score <= minLabelQueryScore {
			continue
		}
		add(label.Desc, recognition.SourceVision, maxLabelQueries, &labelCount)
	}
	webCount := 0
	for _, guess := range bundle.WebBestGuess {
		add(guess, recognition.SourceWeb, maxWebQueries, &webCount)
	}
	return queries
}

func (p *Pipeline) resolveOne(ctx context.Context, logger *slog.Logger, query canonicalQuery) recognition.Canonical {
	fallback := recognition.Canonical{CommonName: query.phrase, Source: query.source}

	if cached, ok := p.deps.Cache.Get(ctx, query.phrase); ok {
		cached.Source = query.source
		return cached
	}
	if p.deps.KG == nil {
		return fallback
	}

	canonical, err := p.deps.KG.Lookup(ctx, query.phrase)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			logBranchFailure(ctx, logger, "canonical lookup degraded", err,
				logging.String("query", query.phrase))
		}
		return fallback
	}
	canonical.Source = query.source
	if err := p.deps.Cache.Put(ctx, query.phrase, canonical); err != nil {
		logger.Warn("canonical cache write failed", logging.Error(err))
	}
	return canonical
}

func (p *Pipeline) classifyPlant(ctx context.Context, logger *slog.Logger, image []byte, debug *recognition.Debug) []recognition.ProviderHit {
	if p.deps.Plants == nil {
		return nil
	}
	if !p.deps.PlantIDLimit.Allow() {
		logger.Warn("plant classifier skipped",
			logging.String("reason", "daily cap reached"),
			logging.Int("remaining_today", p.deps.PlantIDLimit.Remaining()))
		return nil
	}
	hits, err := p.deps.Plants.Identify(ctx, image)
	if err != nil {
		logBranchFailure(ctx, logger, "plant classifier degraded", err)
		return nil
	}
	debug.Costs.Traditional += plantIDCallCost
	return hits
}

func (p *Pipeline) searchWildlife(ctx context.Context, logger *slog.Logger, bundle recognition.VisionBundle) []recognition.ProviderHit {
	if p.deps.Wildlife == nil {
		return nil
	}
	var hits []recognition.ProviderHit
	for _, query := range wildlifeQueries(bundle) {
		result, err := p.deps.Wildlife.SearchTaxa(ctx, query)
		if err != nil {
			logBranchFailure(ctx, logger, "wildlife search degraded", err,
				logging.String("query", query))
			continue
		}
		hits = append(hits, result...)
	}
	return hits
}

// wildlifeQueries picks the phrases worth a taxon search: the first web
// best guess plus the strongest label, deduplicated case-insensitively.
func wildlifeQueries(bundle recognition.VisionBundle) []string {
	queries := make([]string, 0, 2)
	seen := make(map[string]struct{})
	add := func(phrase string) {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			return
		}
		key := strings.ToLower(phrase)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		queries = append(queries, phrase)
	}
	for _, guess := range bundle.WebBestGuess {
		if strings.TrimSpace(guess) != "" {
			add(guess)
			break
		}
	}
	if len(bundle.Labels) > 0 {
		add(bundle.Labels[0].Desc)
	}
	return queries
}

// logBranchFailure records a provider failure at a severity matching its
// class: misconfiguration surfaces as an error, everything else is a
// branch-local degradation.
func logBranchFailure(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...logging.Attr) {
	args := make([]any, 0, len(attrs)+2)
	if stage, ok := services.StageFromContext(ctx); ok {
		args = append(args, logging.String(logging.FieldStage, stage))
	}
	for _, attr := range attrs {
		args = append(args, attr)
	}
	args = append(args, logging.Error(err))
	if services.Degradable(err) {
		logger.Warn(msg, args...)
		return
	}
	logger.Error(msg, args...)
}

// attachWiki enriches a confident pick with an encyclopedia card. Failures
// are logged and dropped; the decision stands either way.
func (p *Pipeline) attachWiki(ctx context.Context, logger *slog.Logger, decision *recognition.Decision) {
	if !p.cfg.WikiEnabled || p.deps.Wiki == nil {
		return
	}
	if decision.Mode != recognition.ModePick || decision.Pick == nil {
		return
	}
	title := decision.Pick.WikipediaTitle
	if title == "" {
		title = decision.Pick.DisplayName()
	}
	if title == "" {
		return
	}
	wikiCtx, cancel := context.WithTimeout(ctx, p.cfg.BranchTimeout)
	defer cancel()
	card, err := p.deps.Wiki.Summary(wikiCtx, title)
	if err != nil {
		logger.Debug("wiki enrichment skipped", logging.String("title", title), logging.Error(err))
		return
	}
	decision.Wiki = card
}
