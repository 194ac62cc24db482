// Package wildlife wraps the iNaturalist taxa search API.
package wildlife

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wildlens/internal/recognition"
	"wildlens/internal/services"
)

// maxResults caps how many taxa become provider hits per query.
const maxResults = 5

// Searcher defines the taxon search operations used by the pipeline.
type Searcher interface {
	SearchTaxa(ctx context.Context, query string) ([]recognition.ProviderHit, error)
}

// Client provides access to the iNaturalist API. No key is required.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates an iNaturalist client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("wildlife base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type taxaResponse struct {
	Results []taxon `json:"results"`
}

type taxon struct {
	Name                string `json:"name"`
	PreferredCommonName string `json:"preferred_common_name"`
	Rank                string `json:"rank"`
	MatchedTerm         string `json:"matched_term"`
	ObservationsCount   int64  `json:"observations_count"`
}

// SearchTaxa looks up taxa matching the query phrase. Confidence reflects how
// closely the taxon's names match the query; broad ranks are discounted so a
// genus never outranks a species hit for the same phrase.
func (c *Client) SearchTaxa(ctx context.Context, query string) ([]recognition.ProviderHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "wildlife", "search", "empty query", nil)
	}

	endpoint, err := url.Parse(c.baseURL + "/taxa")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "wildlife", "search", "parse base url", err)
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("per_page", strconv.Itoa(maxResults))
	params.Set("is_active", "true")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "wildlife", "search", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, services.Wrap(services.ErrQuotaExceeded, "wildlife", "search", fmt.Sprintf("returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrUnavailable, "wildlife", "search", fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload taxaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode taxa response: %w", err)
	}

	hits := make([]recognition.ProviderHit, 0, len(payload.Results))
	for _, entry := range payload.Results {
		scientific := strings.TrimSpace(entry.Name)
		if scientific == "" {
			continue
		}
		hits = append(hits, recognition.ProviderHit{
			ScientificName: scientific,
			CommonName:     strings.TrimSpace(entry.PreferredCommonName),
			Source:         recognition.SourceWildlife,
			Confidence:     taxonConfidence(query, entry),
			Meta: map[string]any{
				"rank":         entry.Rank,
				"observations": entry.ObservationsCount,
			},
		})
	}
	return hits, nil
}

// taxonConfidence scores a taxon against the query using the same fuzzy
// matching the candidate builder applies, discounted for coarse ranks.
func taxonConfidence(query string, entry taxon) float64 {
	best := recognition.FuzzyMatch(query, entry.Name)
	if score := recognition.FuzzyMatch(query, entry.PreferredCommonName); score > best {
		best = score
	}
	if score := recognition.FuzzyMatch(query, entry.MatchedTerm); score > best {
		best = score
	}
	switch strings.ToLower(entry.Rank) {
	case "species", "subspecies", "variety", "hybrid":
	case "genus":
		best *= 0.8
	default:
		best *= 0.6
	}
	return recognition.NormalizeConfidence(best, recognition.SourceWildlife)
}
