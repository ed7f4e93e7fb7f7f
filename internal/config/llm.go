package config

// LLMConfig configures the review engine's LLM adapter.
type LLMConfig struct {
	Provider    string `yaml:"provider"` // gemini, openai, xai, zai
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	Timeout     string `yaml:"timeout"`
	MinInterval string `yaml:"min_interval"` // rate-limit spacing between calls
	MaxRetries  int    `yaml:"max_retries"`
	RetryDelay  string `yaml:"retry_delay"`
	Gemini      GeminiProviderConfig `yaml:"gemini"`
}

// GeminiProviderConfig holds Gemini-specific tuning for the genai backend.
type GeminiProviderConfig struct {
	EnableThinking bool   `yaml:"enable_thinking"`
	ThinkingLevel  string `yaml:"thinking_level"` // minimal, low, medium, high
}

// DefaultGeminiProviderConfig returns the review engine's Gemini defaults.
func DefaultGeminiProviderConfig() GeminiProviderConfig {
	return GeminiProviderConfig{EnableThinking: false, ThinkingLevel: "low"}
}
