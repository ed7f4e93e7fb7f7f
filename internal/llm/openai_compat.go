package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"impactreview/internal/logging"
)

// OpenAICompatAdapter speaks the OpenAI chat-completions wire format, which
// OpenAI, xAI, and Z.AI all implement behind different base URLs.
type OpenAICompatAdapter struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	policy     *Policy
}

// OpenAICompatConfig configures an OpenAICompatAdapter.
type OpenAICompatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewOpenAICompatAdapter constructs an adapter for an OpenAI-compatible
// provider. Returns an error if the API key or base URL is missing.
func NewOpenAICompatAdapter(httpClient *http.Client, cfg OpenAICompatConfig, policy *Policy) (*OpenAICompatAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAICompatAdapter{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		policy:     policy,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *OpenAICompatAdapter) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	return a.policy.Call(ctx, func(ctx context.Context) (string, error) {
		return a.complete(ctx, system, user, temperature, maxTokens)
	}), nil
}

func (a *OpenAICompatAdapter) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	reqBody := chatCompletionRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty response: no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// CompleteStream is implemented as a single non-streamed completion pushed
// as one chunk; this module's pipeline does not consume streaming output,
// so the stream variant exists to satisfy the Adapter interface uniformly.
func (a *OpenAICompatAdapter) CompleteStream(ctx context.Context, system, user string, temperature float64, maxTokens int, chunks chan<- string) error {
	defer close(chunks)
	text, err := a.Complete(ctx, system, user, temperature, maxTokens)
	if err != nil {
		logging.LLMError("stream fallback completion failed: %v", err)
		return err
	}
	chunks <- text
	return nil
}
