package airouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wildlens/internal/services"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
)

// anthropicCaller talks to the Anthropic messages API.
type anthropicCaller struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func newAnthropicCaller(apiKey string, timeout time.Duration) *anthropicCaller {
	return &anthropicCaller{
		apiKey:     apiKey,
		endpoint:   anthropicEndpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type anthropicContentBlock struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Source *struct {
		Type      string `json:"type"`
		MediaType string `json:"media_type"`
		Data      string `json:"data"`
	} `json:"source,omitempty"`
}

type anthropicRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string                  `json:"role"`
		Content []anthropicContentBlock `json:"content"`
	} `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *anthropicCaller) Call(ctx context.Context, model Model, req Request) (*CallResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	blocks := make([]anthropicContentBlock, 0, 2)
	if len(req.Image) > 0 {
		blocks = append(blocks, anthropicContentBlock{
			Type: "image",
			Source: &struct {
				Type      string `json:"type"`
				MediaType string `json:"media_type"`
				Data      string `json:"data"`
			}{Type: "base64", MediaType: http.DetectContentType(req.Image), Data: base64Encode(req.Image)},
		})
	}
	blocks = append(blocks, anthropicContentBlock{Type: "text", Text: req.Prompt})

	payload := anthropicRequest{Model: model.ID, MaxTokens: maxTokens}
	payload.Messages = append(payload.Messages, struct {
		Role    string                  `json:"role"`
		Content []anthropicContentBlock `json:"content"`
	}{Role: "user", Content: blocks})

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode anthropic request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "anthropic", "call", "execute request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read anthropic response: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("decode anthropic response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, services.Wrap(services.ErrQuotaExceeded, "anthropic", "call", "rate limited", nil)
	}
	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("returned %d", resp.StatusCode)
		if parsed.Error != nil {
			detail = parsed.Error.Message
		}
		return nil, services.Wrap(services.ErrUnavailable, "anthropic", "call", detail, nil)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, services.Wrap(services.ErrUnavailable, "anthropic", "call", "empty content", nil)
	}

	return &CallResult{
		Text:             strings.TrimSpace(text.String()),
		PromptTokens:     parsed.Usage.InputTokens,
		CompletionTokens: parsed.Usage.OutputTokens,
	}, nil
}

func base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
