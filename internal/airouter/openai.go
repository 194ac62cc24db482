package airouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wildlens/internal/services"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

// openAICaller talks to the OpenAI chat completions API.
type openAICaller struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func newOpenAICaller(apiKey string, timeout time.Duration) *openAICaller {
	return &openAICaller{
		apiKey:     apiKey,
		endpoint:   openAIEndpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type openAIContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIRequest struct {
	Model          string            `json:"model"`
	Messages       []openAIMessage   `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *openAICaller) Call(ctx context.Context, model Model, req Request) (*CallResult, error) {
	payload := openAIRequest{
		Model:       model.ID,
		Temperature: 0,
		MaxTokens:   req.MaxTokens,
	}
	if hasCapability(req.Capabilities, CapabilityJSON) {
		payload.ResponseFormat = map[string]string{"type": "json_object"}
	}
	if len(req.Image) > 0 {
		payload.Messages = []openAIMessage{{
			Role: "user",
			Content: []openAIContentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &struct {
					URL string `json:"url"`
				}{URL: dataURL(req.Image)}},
			},
		}}
	} else {
		payload.Messages = []openAIMessage{{Role: "user", Content: req.Prompt}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode openai request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "openai", "call", "execute request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openai response: %w", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(raw, &parsed); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if isOpenAIQuotaFailure(resp.StatusCode, parsed) {
			return nil, services.Wrap(services.ErrQuotaExceeded, "openai", "call", quotaDetail(parsed), nil)
		}
		return nil, services.Wrap(services.ErrUnavailable, "openai", "call", fmt.Sprintf("returned %d", resp.StatusCode), nil)
	}
	if parsed.Error != nil {
		return nil, services.Wrap(services.ErrUnavailable, "openai", "call", parsed.Error.Message, nil)
	}
	if len(parsed.Choices) == 0 {
		return nil, services.Wrap(services.ErrUnavailable, "openai", "call", "empty choices", nil)
	}

	return &CallResult{
		Text:             strings.TrimSpace(parsed.Choices[0].Message.Content),
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}, nil
}

// isOpenAIQuotaFailure detects the insufficient_quota error that should
// trigger the cross-provider fallback. Plain rate limiting (429 without the
// quota code) counts too: the request cannot proceed on this provider now.
func isOpenAIQuotaFailure(status int, parsed openAIResponse) bool {
	if parsed.Error != nil && strings.Contains(parsed.Error.Code, "insufficient_quota") {
		return true
	}
	return status == http.StatusTooManyRequests
}

func quotaDetail(parsed openAIResponse) string {
	if parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return "quota exhausted"
}

func hasCapability(capabilities []string, capability string) bool {
	for _, c := range capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

func dataURL(image []byte) string {
	mime := http.DetectContentType(image)
	return "data:" + mime + ";base64," + base64Encode(image)
}
