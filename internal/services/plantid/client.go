// Package plantid wraps the Plant.id classifier API.
package plantid

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wildlens/internal/recognition"
	"wildlens/internal/services"
)

// maxSuggestions caps how many classifier suggestions become provider hits.
const maxSuggestions = 3

// Classifier defines the plant identification operations used by the pipeline.
type Classifier interface {
	Identify(ctx context.Context, image []byte) ([]recognition.ProviderHit, error)
}

// Client provides access to the Plant.id API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Classifier = (*Client)(nil)

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

// New creates a Plant.id client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("plantid api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("plantid base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type identifyRequest struct {
	Images       []string `json:"images"`
	PlantDetails []string `json:"plant_details"`
}

type identifyResponse struct {
	Suggestions []suggestion `json:"suggestions"`
}

type suggestion struct {
	PlantName    string  `json:"plant_name"`
	Probability  float64 `json:"probability"`
	PlantDetails struct {
		CommonNames    []string `json:"common_names"`
		ScientificName string   `json:"scientific_name"`
	} `json:"plant_details"`
}

// Identify classifies the image and returns the top suggestions as provider
// hits, ordered by classifier probability.
func (c *Client) Identify(ctx context.Context, image []byte) ([]recognition.ProviderHit, error) {
	if len(image) == 0 {
		return nil, services.Wrap(services.ErrValidation, "plantid", "identify", "empty image", nil)
	}

	body, err := json.Marshal(identifyRequest{
		Images:       []string{base64.StdEncoding.EncodeToString(image)},
		PlantDetails: []string{"common_names", "taxonomy"},
	})
	if err != nil {
		return nil, fmt.Errorf("encode identify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/identify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "plantid", "identify", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusPaymentRequired:
		return nil, services.Wrap(services.ErrQuotaExceeded, "plantid", "identify", fmt.Sprintf("returned %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, services.Wrap(services.ErrUnavailable, "plantid", "identify", fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload identifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode identify response: %w", err)
	}

	hits := make([]recognition.ProviderHit, 0, maxSuggestions)
	for _, entry := range payload.Suggestions {
		if len(hits) == maxSuggestions {
			break
		}
		scientific := strings.TrimSpace(entry.PlantDetails.ScientificName)
		if scientific == "" {
			scientific = strings.TrimSpace(entry.PlantName)
		}
		if scientific == "" {
			continue
		}
		hit := recognition.ProviderHit{
			ScientificName: scientific,
			Source:         recognition.SourcePlant,
			Confidence:     recognition.NormalizeConfidence(entry.Probability, recognition.SourcePlant),
		}
		if len(entry.PlantDetails.CommonNames) > 0 {
			hit.CommonName = strings.TrimSpace(entry.PlantDetails.CommonNames[0])
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
