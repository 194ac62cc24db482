// Package kg wraps the Google Knowledge Graph search API to resolve label
// phrases into canonical organism records.
package kg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wildlens/internal/recognition"
	"wildlens/internal/services"
)

// entityTypes restricts searches to organism-shaped entities.
var entityTypes = []string{"Thing"}

// Resolver defines the canonical lookup operations used by the pipeline.
type Resolver interface {
	Lookup(ctx context.Context, query string) (recognition.Canonical, error)
}

// Client provides access to the Knowledge Graph search API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Resolver = (*Client)(nil)

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

// New creates a Knowledge Graph client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("knowledge graph api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("knowledge graph base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type searchResponse struct {
	ItemListElement []struct {
		Result struct {
			ID                  string `json:"@id"`
			Name                string `json:"name"`
			Description         string `json:"description"`
			DetailedDescription struct {
				URL string `json:"url"`
			} `json:"detailedDescription"`
		} `json:"result"`
		ResultScore float64 `json:"resultScore"`
	} `json:"itemListElement"`
}

// Lookup resolves a label phrase to its best knowledge graph entity. A query
// with no matching entity returns ErrNotFound; callers degrade to a bare
// name-only record.
func (c *Client) Lookup(ctx context.Context, query string) (recognition.Canonical, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return recognition.Canonical{}, services.Wrap(services.ErrValidation, "kg", "lookup", "empty query", nil)
	}

	endpoint, err := url.Parse(c.baseURL + "/entities:search")
	if err != nil {
		return recognition.Canonical{}, services.Wrap(services.ErrConfiguration, "kg", "lookup", "parse base url", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	params.Set("limit", "3")
	for _, entityType := range entityTypes {
		params.Add("types", entityType)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return recognition.Canonical{}, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return recognition.Canonical{}, services.Wrap(services.ErrUnavailable, "kg", "lookup", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return recognition.Canonical{}, services.Wrap(services.ErrQuotaExceeded, "kg", "lookup", fmt.Sprintf("returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return recognition.Canonical{}, services.Wrap(services.ErrUnavailable, "kg", "lookup", fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return recognition.Canonical{}, fmt.Errorf("decode search response: %w", err)
	}

	for _, element := range payload.ItemListElement {
		name := strings.TrimSpace(element.Result.Name)
		if name == "" {
			continue
		}
		return recognition.Canonical{
			CommonName:     name,
			KGID:           strings.TrimSpace(element.Result.ID),
			WikipediaTitle: wikipediaTitle(element.Result.DetailedDescription.URL),
		}, nil
	}
	return recognition.Canonical{}, services.Wrap(services.ErrNotFound, "kg", "lookup", fmt.Sprintf("no entity for %q", query), nil)
}

// wikipediaTitle extracts the article title from a Wikipedia URL.
func wikipediaTitle(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	const prefix = "/wiki/"
	if !strings.HasPrefix(parsed.Path, prefix) {
		return ""
	}
	title := strings.TrimPrefix(parsed.Path, prefix)
	title, err = url.PathUnescape(title)
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(title, "_", " ")
}
