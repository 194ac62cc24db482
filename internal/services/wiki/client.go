// Package wiki fetches encyclopedia summary cards from the Wikipedia REST API.
package wiki

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

// Summarizer defines the encyclopedia operations used by the pipeline.
type Summarizer interface {
	Summary(ctx context.Context, title string) (*recognition.WikiCard, error)
}

// Client provides access to the Wikipedia REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Summarizer = (*Client)(nil)

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

// New creates a Wikipedia client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("wiki base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type summaryResponse struct {
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	Thumbnail struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Summary fetches the article summary for the given title. Missing articles
// return ErrNotFound.
func (c *Client) Summary(ctx context.Context, title string) (*recognition.WikiCard, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "wiki", "summary", "empty title", nil)
	}

	endpoint := c.baseURL + "/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "wiki", "summary", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, "wiki", "summary", fmt.Sprintf("no article for %q", title), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrUnavailable, "wiki", "summary", fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode summary response: %w", err)
	}

	card := &recognition.WikiCard{
		Title:     strings.TrimSpace(payload.Title),
		Extract:   strings.TrimSpace(payload.Extract),
		Thumbnail: strings.TrimSpace(payload.Thumbnail.Source),
		URL:       strings.TrimSpace(payload.ContentURLs.Desktop.Page),
	}
	if card.Title == "" {
		card.Title = title
	}
	return card, nil
}
