package airouter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"wildlens/internal/services"
)

// geminiCaller talks to the Google Gemini API through the official SDK. The
// SDK client is scoped to one call so the router stays free of long-lived
// provider connections.
type geminiCaller struct {
	apiKey string
}

func newGeminiCaller(apiKey string) *geminiCaller {
	return &geminiCaller{apiKey: apiKey}
}

func (c *geminiCaller) Call(ctx context.Context, model Model, req Request) (*CallResult, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "gemini", "call", "create client", err)
	}
	defer client.Close()

	generative := client.GenerativeModel(model.ID)
	temperature := float32(0)
	generative.GenerationConfig = genai.GenerationConfig{Temperature: &temperature}
	if hasCapability(req.Capabilities, CapabilityJSON) {
		generative.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if req.MaxTokens > 0 {
		maxTokens := int32(req.MaxTokens)
		generative.GenerationConfig.MaxOutputTokens = &maxTokens
	}

	parts := make([]genai.Part, 0, 2)
	parts = append(parts, genai.Text(req.Prompt))
	if len(req.Image) > 0 {
		parts = append(parts, &genai.Blob{MIMEType: http.DetectContentType(req.Image), Data: req.Image})
	}

	resp, err := generative.GenerateContent(ctx, parts...)
	if err != nil {
		if isGeminiQuotaError(err) {
			return nil, services.Wrap(services.ErrQuotaExceeded, "gemini", "call", "quota exhausted", err)
		}
		return nil, services.Wrap(services.ErrUnavailable, "gemini", "call", "generate content", err)
	}

	text := collectGeminiText(resp)
	if text == "" {
		return nil, services.Wrap(services.ErrUnavailable, "gemini", "call", "empty content", nil)
	}

	result := &CallResult{Text: text}
	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}

func collectGeminiText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
		if builder.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(builder.String())
}

func isGeminiQuotaError(err error) bool {
	msg := strings.ToLower(fmt.Sprint(err))
	return strings.Contains(msg, "quota") || strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "429")
}
