package airouter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"wildlens/internal/logging"
	"wildlens/internal/services"
)

var (
	// ErrNoSuitableModel means no catalog entry covers the request's
	// capabilities within its budget. Routing never silently relaxes
	// constraints, so this surfaces immediately.
	ErrNoSuitableModel = errors.New("no suitable model")
)

// Request describes one model invocation.
type Request struct {
	Prompt       string
	Image        []byte
	Capabilities []string
	Budget       float64
	Priority     string
	MaxTokens    int
}

// Response is the outcome of a successful invocation.
type Response struct {
	Text             string
	ModelID          string
	Provider         string
	Cost             float64
	CostEstimated    bool
	PromptTokens     int
	CompletionTokens int
	Elapsed          time.Duration
}

// CallResult is the raw output a provider caller returns.
type CallResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Caller executes a request against one provider's API.
type Caller interface {
	Call(ctx context.Context, model Model, req Request) (*CallResult, error)
}

// Config carries provider credentials and the invocation timeout.
type Config struct {
	OpenAIAPIKey    string
	GoogleAPIKey    string
	AnthropicAPIKey string
	Timeout         time.Duration
}

// Router routes identification requests to catalog models.
type Router struct {
	catalog []Model
	callers map[string]Caller
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithCatalog replaces the built-in model catalog.
func WithCatalog(catalog []Model) Option {
	return func(r *Router) {
		if len(catalog) > 0 {
			r.catalog = catalog
		}
	}
}

// WithCaller installs or replaces the caller for a provider. Tests use this
// to stub out provider APIs.
func WithCaller(provider string, caller Caller) Option {
	return func(r *Router) {
		if caller != nil {
			r.callers[provider] = caller
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New constructs a Router. Callers are registered only for providers with
// configured keys; models from keyless providers are never selected.
func New(cfg Config, opts ...Option) *Router {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	router := &Router{
		catalog: DefaultCatalog(),
		callers: make(map[string]Caller),
		timeout: timeout,
		logger:  logging.NewNop(),
	}
	if key := strings.TrimSpace(cfg.OpenAIAPIKey); key != "" {
		router.callers[ProviderOpenAI] = newOpenAICaller(key, timeout)
	}
	if key := strings.TrimSpace(cfg.GoogleAPIKey); key != "" {
		router.callers[ProviderGoogle] = newGeminiCaller(key)
	}
	if key := strings.TrimSpace(cfg.AnthropicAPIKey); key != "" {
		router.callers[ProviderAnthropic] = newAnthropicCaller(key, timeout)
	}
	for _, opt := range opts {
		opt(router)
	}
	router.logger = logging.NewComponentLogger(router.logger, "airouter")
	return router
}

// Models returns the catalog entries that currently have a registered
// caller, ordered by the given priority.
func (r *Router) Models(priority string) []Model {
	available := make([]Model, 0, len(r.catalog))
	for _, model := range r.catalog {
		if _, ok := r.callers[model.Provider]; ok {
			available = append(available, model)
		}
	}
	orderByPriority(available, priority)
	return available
}

// Invoke selects the best model for the request and calls it. An OpenAI
// quota failure triggers exactly one cross-provider retry against the first
// Google model that covers the request; any other failure propagates.
func (r *Router) Invoke(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, services.Wrap(services.ErrValidation, "airouter", "invoke", "empty prompt", nil)
	}

	model, ok := r.selectModel(req)
	if !ok {
		return nil, fmt.Errorf("%w: capabilities=%v budget=%.4f", ErrNoSuitableModel, req.Capabilities, req.Budget)
	}

	resp, err := r.call(ctx, model, req)
	if err == nil {
		return resp, nil
	}
	if model.Provider == ProviderOpenAI && errors.Is(err, services.ErrQuotaExceeded) {
		if fallback, ok := r.googleFallback(req); ok {
			r.logger.Warn("openai quota exhausted, retrying on google",
				logging.String("model", model.ID),
				logging.String("fallback", fallback.ID))
			return r.call(ctx, fallback, req)
		}
	}
	return nil, err
}

func (r *Router) selectModel(req Request) (Model, bool) {
	for _, model := range selectModels(r.catalog, req.Capabilities, req.Budget, req.Priority, req.Prompt) {
		if _, ok := r.callers[model.Provider]; ok {
			return model, true
		}
	}
	return Model{}, false
}

func (r *Router) googleFallback(req Request) (Model, bool) {
	if _, ok := r.callers[ProviderGoogle]; !ok {
		return Model{}, false
	}
	for _, model := range selectModels(r.catalog, req.Capabilities, req.Budget, req.Priority, req.Prompt) {
		if model.Provider == ProviderGoogle {
			return model, true
		}
	}
	return Model{}, false
}

func (r *Router) call(ctx context.Context, model Model, req Request) (*Response, error) {
	caller := r.callers[model.Provider]
	if caller == nil {
		return nil, services.Wrap(services.ErrConfiguration, "airouter", "invoke", "no caller for provider "+model.Provider, nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result, err := caller.Call(callCtx, model, req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Text:             result.Text,
		ModelID:          model.ID,
		Provider:         model.Provider,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		Elapsed:          elapsed,
	}
	if cost := reportedCost(model, result.PromptTokens, result.CompletionTokens); cost > 0 {
		resp.Cost = cost
	} else {
		resp.Cost = EstimateCost(model, req.Prompt)
		resp.CostEstimated = true
	}
	r.logger.Debug("model invoked",
		logging.String("model", model.ID),
		logging.String("provider", model.Provider),
		logging.Float64("cost", resp.Cost),
		logging.Duration("elapsed", elapsed))
	return resp, nil
}
