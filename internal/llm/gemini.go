package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiAdapter talks to the Gemini API via the official genai SDK.
type GeminiAdapter struct {
	client   *genai.Client
	model    string
	thinking genai.ThinkingLevel
	policy   *Policy
}

// GeminiConfig configures a GeminiAdapter.
type GeminiConfig struct {
	APIKey         string
	Model          string
	EnableThinking bool
	ThinkingLevel  string // minimal, low, medium, high
}

// NewGeminiAdapter constructs a Gemini-backed adapter. Returns an error if
// the API key is missing or client construction fails; callers should fall
// back to DegradedAdapter rather than propagate the failure.
func NewGeminiAdapter(ctx context.Context, cfg GeminiConfig, policy *Policy) (*GeminiAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiAdapter{
		client:   client,
		model:    model,
		thinking: thinkingLevelOf(cfg.EnableThinking, cfg.ThinkingLevel),
		policy:   policy,
	}, nil
}

func thinkingLevelOf(enabled bool, level string) genai.ThinkingLevel {
	if !enabled {
		return genai.ThinkingLevelMinimal
	}
	switch level {
	case "low":
		return genai.ThinkingLevelLow
	case "medium":
		return genai.ThinkingLevelMedium
	case "high":
		return genai.ThinkingLevelHigh
	default:
		return genai.ThinkingLevelMinimal
	}
}

func (a *GeminiAdapter) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	return a.policy.Call(ctx, func(ctx context.Context) (string, error) {
		return a.complete(ctx, system, user, temperature, maxTokens)
	}), nil
}

func (a *GeminiAdapter) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingLevel: a.thinking},
		Temperature:       genai.Ptr(float32(temperature)),
		MaxOutputTokens:   int32(maxTokens),
		SystemInstruction: genai.Text(system)[0],
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(user), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text in gemini response")
	}
	return text, nil
}

// CompleteStream is implemented as a single non-streamed completion pushed
// as one chunk; the review pipeline never consumes incremental tokens, so
// this exists only to satisfy the Adapter interface uniformly across
// backends.
func (a *GeminiAdapter) CompleteStream(ctx context.Context, system, user string, temperature float64, maxTokens int, chunks chan<- string) error {
	defer close(chunks)
	text := a.policy.Call(ctx, func(ctx context.Context) (string, error) {
		return a.complete(ctx, system, user, temperature, maxTokens)
	})
	chunks <- text
	return nil
}
