// Package vision wraps the Google Vision images:annotate endpoint and
// normalizes its output into the bundle the recognition core consumes.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
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

// Provider defines the vision operations used by the pipeline.
type Provider interface {
	Annotate(ctx context.Context, image []byte) (*recognition.VisionBundle, error)
}

// Client provides access to the Google Vision REST API.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
}

var _ Provider = (*Client)(nil)

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

// New creates a Vision client.
func New(apiKey, baseURL string, maxResults int, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("vision api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("vision base url required")
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateEntry struct {
	Image    imagePayload `json:"image"`
	Features []feature    `json:"features"`
}

type imagePayload struct {
	Content string `json:"content"`
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type annotateResponse struct {
	Responses []annotation `json:"responses"`
}

type annotation struct {
	LabelAnnotations []labelAnnotation `json:"labelAnnotations"`
	WebDetection     *webDetection     `json:"webDetection"`
	SafeSearch       *safeSearch       `json:"safeSearchAnnotation"`
	CropHints        *cropHints        `json:"cropHintsAnnotation"`
	Error            *apiError         `json:"error"`
}

type labelAnnotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

type webDetection struct {
	BestGuessLabels []struct {
		Label string `json:"label"`
	} `json:"bestGuessLabels"`
	PagesWithMatchingImages []struct {
		PageTitle string `json:"pageTitle"`
	} `json:"pagesWithMatchingImages"`
}

type safeSearch struct {
	Adult    string `json:"adult"`
	Violence string `json:"violence"`
	Racy     string `json:"racy"`
	Medical  string `json:"medical"`
}

type cropHints struct {
	CropHints []struct {
		BoundingPoly struct {
			Vertices []vertex `json:"vertices"`
		} `json:"boundingPoly"`
	} `json:"cropHints"`
}

type vertex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Annotate runs label, web, safe-search, and crop-hint detection over the
// image, then labels the dominant crop region in a second pass. A failed
// second pass degrades to an empty crop label set.
func (c *Client) Annotate(ctx context.Context, image []byte) (*recognition.VisionBundle, error) {
	if len(image) == 0 {
		return nil, services.Wrap(services.ErrValidation, "vision", "annotate", "empty image", nil)
	}

	primary, err := c.annotate(ctx, image, []feature{
		{Type: "LABEL_DETECTION", MaxResults: c.maxResults},
		{Type: "WEB_DETECTION", MaxResults: c.maxResults},
		{Type: "SAFE_SEARCH_DETECTION"},
		{Type: "CROP_HINTS"},
	})
	if err != nil {
		return nil, err
	}

	bundle := &recognition.VisionBundle{
		Labels: convertLabels(primary.LabelAnnotations),
	}
	if primary.WebDetection != nil {
		for _, guess := range primary.WebDetection.BestGuessLabels {
			if label := strings.TrimSpace(guess.Label); label != "" {
				bundle.WebBestGuess = append(bundle.WebBestGuess, label)
			}
		}
		for _, page := range primary.WebDetection.PagesWithMatchingImages {
			if title := strings.TrimSpace(page.PageTitle); title != "" {
				bundle.WebPageTitles = append(bundle.WebPageTitles, title)
			}
		}
	}
	if primary.SafeSearch != nil {
		bundle.Safe = recognition.SafeFlags{
			Adult:    primary.SafeSearch.Adult,
			Violence: primary.SafeSearch.Violence,
			Racy:     primary.SafeSearch.Racy,
			Medical:  primary.SafeSearch.Medical,
		}
	}

	bundle.CropLabels = c.labelCrop(ctx, image, primary.CropHints)
	return bundle, nil
}

// labelCrop runs a label-only pass over the dominant crop hint region.
// Any failure here is absorbed: crop agreement is a secondary signal.
func (c *Client) labelCrop(ctx context.Context, image []byte, hints *cropHints) []recognition.Label {
	region, ok := dominantCrop(hints)
	if !ok {
		return nil
	}
	cropped, err := cropImage(image, region)
	if err != nil {
		return nil
	}
	resp, err := c.annotate(ctx, cropped, []feature{{Type: "LABEL_DETECTION", MaxResults: c.maxResults}})
	if err != nil {
		return nil
	}
	return convertLabels(resp.LabelAnnotations)
}

func (c *Client) annotate(ctx context.Context, image []byte, features []feature) (*annotation, error) {
	endpoint, err := url.Parse(c.baseURL + "/images:annotate")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "vision", "annotate", "parse base url", err)
	}
	params := url.Values{}
	params.Set("key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	body, err := json.Marshal(annotateRequest{Requests: []annotateEntry{{
		Image:    imagePayload{Content: base64.StdEncoding.EncodeToString(image)},
		Features: features,
	}}})
	if err != nil {
		return nil, fmt.Errorf("encode annotate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "vision", "annotate", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, services.Wrap(services.ErrQuotaExceeded, "vision", "annotate", fmt.Sprintf("returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrUnavailable, "vision", "annotate", fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode annotate response: %w", err)
	}
	if len(payload.Responses) == 0 {
		return nil, services.Wrap(services.ErrUnavailable, "vision", "annotate", "empty response", nil)
	}
	result := payload.Responses[0]
	if result.Error != nil {
		return nil, services.Wrap(services.ErrUnavailable, "vision", "annotate", fmt.Sprintf("api error %d: %s", result.Error.Code, result.Error.Message), nil)
	}
	return &result, nil
}

func convertLabels(annotations []labelAnnotation) []recognition.Label {
	if len(annotations) == 0 {
		return nil
	}
	labels := make([]recognition.Label, 0, len(annotations))
	for _, entry := range annotations {
		desc := strings.TrimSpace(entry.Description)
		if desc == "" {
			continue
		}
		labels = append(labels, recognition.Label{Desc: desc, Score: entry.Score})
	}
	return labels
}
