package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wildlens/internal/lookupcache"
	"wildlens/internal/ratelimit"
	"wildlens/internal/recognition"
	"wildlens/internal/services"
)

type fakeVision struct {
	bundle *recognition.VisionBundle
	err    error
	calls  int
}

func (f *fakeVision) Annotate(ctx context.Context, image []byte) (*recognition.VisionBundle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bundle, nil
}

type fakePlants struct {
	hits  []recognition.ProviderHit
	err   error
	calls int
	image []byte
}

func (f *fakePlants) Identify(ctx context.Context, image []byte) ([]recognition.ProviderHit, error) {
	f.calls++
	f.image = image
	return f.hits, f.err
}

type fakeWildlife struct {
	hits    []recognition.ProviderHit
	err     error
	calls   int
	queries []string
}

func (f *fakeWildlife) SearchTaxa(ctx context.Context, query string) ([]recognition.ProviderHit, error) {
	f.calls++
	f.queries = append(f.queries, query)
	return f.hits, f.err
}

type fakeKG struct {
	canonical recognition.Canonical
	err       error
	calls     int
}

func (f *fakeKG) Lookup(ctx context.Context, query string) (recognition.Canonical, error) {
	f.calls++
	if f.err != nil {
		return recognition.Canonical{}, f.err
	}
	return f.canonical, nil
}

type fakeWiki struct {
	card  *recognition.WikiCard
	err   error
	calls int
	title string
}

func (f *fakeWiki) Summary(ctx context.Context, title string) (*recognition.WikiCard, error) {
	f.calls++
	f.title = title
	if f.err != nil {
		return nil, f.err
	}
	return f.card, nil
}

func animalBundle() *recognition.VisionBundle {
	return &recognition.VisionBundle{
		Labels: []recognition.Label{
			{Desc: "red fox", Score: 0.92},
			{Desc: "mammal", Score: 0.85},
		},
		WebBestGuess: []string{"red fox"},
	}
}

func plantBundle() *recognition.VisionBundle {
	return &recognition.VisionBundle{
		Labels: []recognition.Label{
			{Desc: "flower", Score: 0.95},
			{Desc: "petal", Score: 0.8},
		},
	}
}

func newTestPipeline(t *testing.T, deps Deps) *Pipeline {
	t.Helper()
	p, err := New(Config{Margin: 0.15, BranchTimeout: 5 * time.Second, WikiEnabled: false}, deps)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestRunWildlifePath(t *testing.T) {
	vision := &fakeVision{bundle: animalBundle()}
	plants := &fakePlants{}
	wildlife := &fakeWildlife{hits: []recognition.ProviderHit{
		{ScientificName: "Vulpes vulpes", CommonName: "red fox", Source: recognition.SourceWildlife, Confidence: 0.9},
	}}
	kg := &fakeKG{canonical: recognition.Canonical{
		CommonName:     "red fox",
		ScientificName: "Vulpes vulpes",
		KGID:           "/m/0dgbq",
		WikipediaTitle: "Red fox",
	}}

	p := newTestPipeline(t, Deps{Vision: vision, Plants: plants, Wildlife: wildlife, KG: kg})
	decision, err := p.Run(context.Background(), []byte("photo"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if decision.Mode != recognition.ModePick {
		t.Fatalf("expected pick, got %s", decision.Mode)
	}
	if decision.Pick.ScientificName != "Vulpes vulpes" {
		t.Errorf("unexpected pick %q", decision.Pick.ScientificName)
	}
	if plants.calls != 0 {
		t.Error("plant classifier should not run for an animal bundle")
	}
	if len(wildlife.queries) == 0 || wildlife.queries[0] != "red fox" {
		t.Errorf("wildlife searched %v, want web best guess first", wildlife.queries)
	}
	if decision.Debug == nil || decision.Debug.RecognitionID == "" {
		t.Fatal("expected debug with a recognition id")
	}
	if decision.Debug.VisionBundle == nil {
		t.Error("expected vision bundle in debug")
	}
	if decision.Debug.Costs.Traditional != visionCallCost {
		t.Errorf("expected traditional cost %v, got %v", visionCallCost, decision.Debug.Costs.Traditional)
	}
}

func TestRunPlantPath(t *testing.T) {
	vision := &fakeVision{bundle: plantBundle()}
	plants := &fakePlants{hits: []recognition.ProviderHit{
		{ScientificName: "Rosa rugosa", CommonName: "rugosa rose", Source: recognition.SourcePlant, Confidence: 0.8},
	}}
	wildlife := &fakeWildlife{}

	p := newTestPipeline(t, Deps{Vision: vision, Plants: plants, Wildlife: wildlife})
	decision, err := p.Run(context.Background(), []byte("leafy"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if plants.calls != 1 {
		t.Fatalf("expected one plant classifier call, got %d", plants.calls)
	}
	if string(plants.image) != "leafy" {
		t.Error("plant classifier should receive the original image")
	}
	if wildlife.calls == 0 {
		t.Error("wildlife search runs regardless of the plant gate")
	}
	if decision.Debug.Costs.Traditional != visionCallCost+plantIDCallCost {
		t.Errorf("unexpected traditional cost %v", decision.Debug.Costs.Traditional)
	}
}

func TestRunVisionFailureIsFatal(t *testing.T) {
	vision := &fakeVision{err: services.Wrap(services.ErrUnavailable, "vision", "annotate", "boom", nil)}

	p := newTestPipeline(t, Deps{Vision: vision})
	if _, err := p.Run(context.Background(), []byte("photo")); err == nil {
		t.Fatal("expected vision failure to abort the run")
	}
}

func TestRunVisionCapDeniesBeforeCalling(t *testing.T) {
	vision := &fakeVision{bundle: animalBundle()}
	limiter := ratelimit.New(1)
	limiter.Allow()

	p := newTestPipeline(t, Deps{Vision: vision, VisionLimit: limiter})
	_, err := p.Run(context.Background(), []byte("photo"))
	if !errors.Is(err, services.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if vision.calls != 0 {
		t.Error("vision should not be called once the daily cap is spent")
	}
}

func TestRunPlantCapSkipsClassifier(t *testing.T) {
	vision := &fakeVision{bundle: plantBundle()}
	plants := &fakePlants{hits: []recognition.ProviderHit{
		{ScientificName: "Rosa rugosa", Source: recognition.SourcePlant, Confidence: 0.8},
	}}
	limiter := ratelimit.New(1)
	limiter.Allow()

	p := newTestPipeline(t, Deps{Vision: vision, Plants: plants, PlantIDLimit: limiter})
	decision, err := p.Run(context.Background(), []byte("leafy"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if plants.calls != 0 {
		t.Error("plant classifier should be skipped once its cap is spent")
	}
	if decision.Mode == "" {
		t.Error("expected a decision despite the skipped classifier")
	}
}

func TestRunKGFailureDegradesToBareCanonical(t *testing.T) {
	vision := &fakeVision{bundle: animalBundle()}
	kg := &fakeKG{err: services.Wrap(services.ErrUnavailable, "kg", "lookup", "down", nil)}

	p := newTestPipeline(t, Deps{Vision: vision, KG: kg})
	decision, err := p.Run(context.Background(), []byte("photo"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	found := false
	for _, candidate := range decision.Debug.Candidates {
		if candidate.CommonName == "red fox" {
			found = true
			if candidate.KGID != "" {
				t.Error("degraded canonical should carry no knowledge-graph id")
			}
		}
	}
	if !found {
		t.Error("expected a bare name-only candidate for the top label")
	}
}

func TestRunUsesCachedCanonical(t *testing.T) {
	cache, err := lookupcache.Open(filepath.Join(t.TempDir(), "lookups.db"), time.Hour)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer cache.Close()

	cached := recognition.Canonical{
		CommonName:     "red fox",
		ScientificName: "Vulpes vulpes",
		KGID:           "/m/0dgbq",
	}
	for _, query := range []string{"red fox", "mammal"} {
		if err := cache.Put(context.Background(), query, cached); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	vision := &fakeVision{bundle: animalBundle()}
	kg := &fakeKG{err: errors.New("should not be consulted")}

	p := newTestPipeline(t, Deps{Vision: vision, KG: kg, Cache: cache})
	if _, err := p.Run(context.Background(), []byte("photo")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if kg.calls != 0 {
		t.Errorf("knowledge graph consulted %d times despite cached entries", kg.calls)
	}
}

func TestRunAttachesWikiCard(t *testing.T) {
	vision := &fakeVision{bundle: animalBundle()}
	kg := &fakeKG{canonical: recognition.Canonical{
		CommonName:     "red fox",
		ScientificName: "Vulpes vulpes",
		KGID:           "/m/0dgbq",
		WikipediaTitle: "Red fox",
	}}
	wikiClient := &fakeWiki{card: &recognition.WikiCard{Title: "Red fox", Extract: "The red fox."}}

	p, err := New(Config{Margin: 0.15, BranchTimeout: 5 * time.Second, WikiEnabled: true}, Deps{
		Vision: vision, KG: kg, Wiki: wikiClient,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	decision, err := p.Run(context.Background(), []byte("photo"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if decision.Mode != recognition.ModePick {
		t.Fatalf("expected pick, got %s", decision.Mode)
	}
	if wikiClient.title != "Red fox" {
		t.Errorf("wiki queried %q, want the canonical title", wikiClient.title)
	}
	if decision.Wiki == nil || decision.Wiki.Title != "Red fox" {
		t.Error("expected wiki card on the decision")
	}
}

func TestRunWikiFailureIsNonFatal(t *testing.T) {
	vision := &fakeVision{bundle: animalBundle()}
	kg := &fakeKG{canonical: recognition.Canonical{
		CommonName:     "red fox",
		ScientificName: "Vulpes vulpes",
		KGID:           "/m/0dgbq",
	}}
	wikiClient := &fakeWiki{err: services.Wrap(services.ErrNotFound, "wiki", "summary", "missing", nil)}

	p, err := New(Config{Margin: 0.15, BranchTimeout: 5 * time.Second, WikiEnabled: true}, Deps{
		Vision: vision, KG: kg, Wiki: wikiClient,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	decision, err := p.Run(context.Background(), []byte("photo"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if decision.Wiki != nil {
		t.Error("expected no wiki card after a summary failure")
	}
}

func TestRunRecordsStageTimings(t *testing.T) {
	vision := &fakeVision{bundle: animalBundle()}
	wildlife := &fakeWildlife{}

	p := newTestPipeline(t, Deps{Vision: vision, Wildlife: wildlife})
	decision, err := p.Run(context.Background(), []byte("photo"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	stages := make(map[string]bool)
	for _, timing := range decision.Debug.StageTimings {
		stages[timing.Stage] = true
	}
	for _, want := range []string{"vision", "canonical", "wildlife"} {
		if !stages[want] {
			t.Errorf("missing %q stage timing, have %v", want, decision.Debug.StageTimings)
		}
	}
}

func TestNewRequiresVision(t *testing.T) {
	if _, err := New(Config{}, Deps{}); err == nil {
		t.Fatal("expected an error without a vision provider")
	}
}

func TestCanonicalQueriesDedupe(t *testing.T) {
	bundle := recognition.VisionBundle{
		Labels: []recognition.Label{
			{Desc: "Red Fox", Score: 0.9},
			{Desc: "mammal", Score: 0.8},
			{Desc: "wildlife", Score: 0.7},
			{Desc: "snout", Score: 0.6},
		},
		WebBestGuess: []string{"red fox", "vulpes vulpes"},
	}

	queries := canonicalQueries(bundle)
	if len(queries) != 4 {
		t.Fatalf("expected 4 queries, got %d: %v", len(queries), queries)
	}
	if queries[0].phrase != "Red Fox" || queries[0].source != recognition.SourceVision {
		t.Errorf("unexpected first query %+v", queries[0])
	}
	last := queries[len(queries)-1]
	if last.phrase != "vulpes vulpes" || last.source != recognition.SourceWeb {
		t.Errorf("unexpected last query %+v", last)
	}
}

func TestRunPlantGateAddsBranchWithoutReplacing(t *testing.T) {
	vision := &fakeVision{bundle: plantBundle()}
	plants := &fakePlants{hits: []recognition.ProviderHit{
		{ScientificName: "Rosa rugosa", Source: recognition.SourcePlant, Confidence: 0.8},
	}}
	wildlife := &fakeWildlife{hits: []recognition.ProviderHit{
		{ScientificName: "Rosa rugosa", CommonName: "rugosa rose", Source: recognition.SourceWildlife, Confidence: 0.7},
	}}

	p := newTestPipeline(t, Deps{Vision: vision, Plants: plants, Wildlife: wildlife})
	decision, err := p.Run(context.Background(), []byte("leafy"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if plants.calls != 1 {
		t.Errorf("plant classifier calls = %d, want 1", plants.calls)
	}
	if wildlife.calls != 1 {
		t.Errorf("wildlife search calls = %d, want 1", wildlife.calls)
	}

	stages := make(map[string]bool)
	for _, timing := range decision.Debug.StageTimings {
		stages[timing.Stage] = true
	}
	if !stages["wildlife"] || !stages["plantid"] {
		t.Errorf("expected wildlife and plantid stage timings, have %v", decision.Debug.StageTimings)
	}
}

func TestWildlifeQueries(t *testing.T) {
	got := wildlifeQueries(*animalBundle())
	if len(got) != 1 || got[0] != "red fox" {
		t.Errorf("expected the deduplicated web best guess, got %v", got)
	}

	got = wildlifeQueries(recognition.VisionBundle{
		Labels:       []recognition.Label{{Desc: "bird", Score: 0.9}},
		WebBestGuess: []string{"barn owl"},
	})
	if len(got) != 2 || got[0] != "barn owl" || got[1] != "bird" {
		t.Errorf("expected web guess then top label, got %v", got)
	}

	if got := wildlifeQueries(recognition.VisionBundle{}); len(got) != 0 {
		t.Errorf("expected no queries for an empty bundle, got %v", got)
	}
}

func TestCanonicalQueriesSkipWeakLabels(t *testing.T) {
	bundle := recognition.VisionBundle{
		Labels: []recognition.Label{
			{Desc: "red fox", Score: 0.9},
			{Desc: "blur", Score: 0.45},
		},
	}
	queries := canonicalQueries(bundle)
	if len(queries) != 1 || queries[0].phrase != "red fox" {
		t.Fatalf("expected only the strong label, got %v", queries)
	}
}
