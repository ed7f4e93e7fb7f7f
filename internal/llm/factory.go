package llm

import (
	"context"
	"net/http"
	"time"

	"impactreview/internal/logging"
)

// FactoryConfig carries everything Build needs, independent of the config
// package's YAML shape so this package stays free of an import cycle.
type FactoryConfig struct {
	Provider       string
	APIKey         string
	Model          string
	BaseURL        string
	MinInterval    time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	EnableThinking bool
	ThinkingLevel  string
}

var openAICompatBaseURLs = map[string]string{
	"openai": "https://api.openai.com/v1",
	"xai":    "https://api.x.ai/v1",
	"zai":    "https://api.z.ai/api/coding/paas/v4",
}

// Build constructs the adapter for cfg.Provider. An unrecognised provider,
// or a recognised one with no credential available, falls back to the
// degraded adapter rather than failing construction (SPEC_FULL.md §4.7).
func Build(ctx context.Context, cfg FactoryConfig) Adapter {
	policy := NewPolicy(cfg.MinInterval, cfg.MaxRetries, cfg.RetryDelay)

	switch cfg.Provider {
	case "gemini":
		adapter, err := NewGeminiAdapter(ctx, GeminiConfig{
			APIKey:         cfg.APIKey,
			Model:          cfg.Model,
			EnableThinking: cfg.EnableThinking,
			ThinkingLevel:  cfg.ThinkingLevel,
		}, policy)
		if err != nil {
			logging.LLMWarn("gemini adapter construction failed, falling back to degraded mode: %v", err)
			return DegradedAdapter{}
		}
		return adapter

	case "openai", "xai", "zai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openAICompatBaseURLs[cfg.Provider]
		}
		adapter, err := NewOpenAICompatAdapter(&http.Client{Timeout: 120 * time.Second}, OpenAICompatConfig{
			BaseURL: baseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		}, policy)
		if err != nil {
			logging.LLMWarn("%s adapter construction failed, falling back to degraded mode: %v", cfg.Provider, err)
			return DegradedAdapter{}
		}
		return adapter

	default:
		logging.LLMWarn("unrecognised llm provider %q, falling back to degraded mode", cfg.Provider)
		return DegradedAdapter{}
	}
}
