package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"impactreview/internal/logging"
)

// Config holds all review engine configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	LLM LLMConfig `yaml:"llm"`

	// SupportedLanguages maps a language tag to the file extensions that
	// belong to it (see SPEC_FULL.md §6).
	SupportedLanguages map[string][]string `yaml:"supported_languages"`

	// RepoCheckoutRoot is the root path under which base/head worktrees are
	// materialized.
	RepoCheckoutRoot string `yaml:"repo_checkout_root"`

	// WebhookSecret and provider tokens are external concerns; the core
	// ignores them but a hosting integration wired on top of this module
	// reads them from here.
	WebhookSecret string            `yaml:"webhook_secret"`
	ProviderTokens map[string]string `yaml:"provider_tokens"`

	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Assembler  AssemblerSection `yaml:"assembler"`
	Prompt     PromptConfig     `yaml:"prompt"`

	Logging LoggingConfig `yaml:"logging"`

	// HistoryDBPath is where the review-history SQLite cache lives.
	HistoryDBPath string `yaml:"history_db_path"`
}

// RetrievalConfig mirrors internal/retrieval.Config in a serializable form.
type RetrievalConfig struct {
	DepthCalls      int `yaml:"depth_calls"`
	DepthImports    int `yaml:"depth_imports"`
	DepthTests      int `yaml:"depth_tests"`
	MaxNodesPerUnit int `yaml:"max_nodes_per_unit"`
}

// AssemblerSection mirrors internal/context.AssemblerConfig.
type AssemblerSection struct {
	MaxTokensPerUnit int `yaml:"max_tokens_per_unit"`
	MaxLines         int `yaml:"max_lines"`
}

// PromptConfig tunes the batched prompt composer.
type PromptConfig struct {
	MaxDiffLines      int `yaml:"max_diff_lines"`
	MaxLinesTotal      int `yaml:"max_lines_total"`
	MaxFilesInScope    int `yaml:"max_files_in_scope"`
	MaxSymbolBullets   int `yaml:"max_symbol_bullets"`
	MaxImportDigestLines int `yaml:"max_import_digest_lines"`
	MaxSymbolsPerFile  int `yaml:"max_symbols_per_file"`
	MaxSymbolsTotal    int `yaml:"max_symbols_total"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the review engine's default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "impactreview",
		Version: "0.1.0",

		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			Timeout:     "120s",
			MinInterval: "500ms",
			MaxRetries:  3,
			RetryDelay:  "2s",
			Gemini:      DefaultGeminiProviderConfig(),
		},

		SupportedLanguages: map[string][]string{
			"python": {".py", ".pyi"},
		},

		RepoCheckoutRoot: ".reviewengine/worktrees",

		Retrieval: RetrievalConfig{
			DepthCalls:      2,
			DepthImports:    1,
			DepthTests:      1,
			MaxNodesPerUnit: 30,
		},

		Assembler: AssemblerSection{
			MaxTokensPerUnit: 8000,
			MaxLines:         50,
		},

		Prompt: PromptConfig{
			MaxDiffLines:         25,
			MaxLinesTotal:        200,
			MaxFilesInScope:      20,
			MaxSymbolBullets:     50,
			MaxImportDigestLines: 30,
			MaxSymbolsPerFile:    5,
			MaxSymbolsTotal:      40,
		},

		Logging: LoggingConfig{
			Level: "info",
		},

		HistoryDBPath: ".reviewengine/history.db",
	}
}

// Load loads configuration from a YAML file, falling back to defaults with
// env overrides applied if the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.BootDebug("loading config from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Boot("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		logging.BootError("failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		logging.BootError("failed to parse config file %s: %v", path, err)
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	logging.Boot("config loaded: provider=%s model=%s", cfg.LLM.Provider, cfg.LLM.Model)
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "gemini"
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.LLM.Provider == "openai" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("XAI_API_KEY"); key != "" && c.LLM.Provider == "xai" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("ZAI_API_KEY"); key != "" && c.LLM.Provider == "zai" {
		c.LLM.APIKey = key
	}
	if secret := os.Getenv("WEBHOOK_SECRET"); secret != "" {
		c.WebhookSecret = secret
	}
	if root := os.Getenv("REPO_CHECKOUT_ROOT"); root != "" {
		c.RepoCheckoutRoot = root
	}
}

// ValidProviders lists the LLM backends this module can construct an
// adapter for. Any other value falls back to the degraded adapter rather
// than failing construction (see SPEC_FULL.md §4.7).
var ValidProviders = []string{"gemini", "openai", "xai", "zai"}

// Validate checks the configuration for obvious misconfiguration. A
// missing or unrecognised provider is not an error here — it only means
// the LLM adapter will be built in degraded mode.
func (c *Config) Validate() error {
	if c.RepoCheckoutRoot == "" {
		return fmt.Errorf("repo_checkout_root must not be empty")
	}
	if len(c.SupportedLanguages) == 0 {
		return fmt.Errorf("supported_languages must list at least one language")
	}
	return nil
}

// IsValidProvider reports whether provider names a backend this module
// knows how to construct.
func IsValidProvider(provider string) bool {
	for _, p := range ValidProviders {
		if p == provider {
			return true
		}
	}
	return false
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetMinInterval returns the rate-limit spacing interval.
func (c *Config) GetMinInterval() time.Duration {
	d, err := time.ParseDuration(c.LLM.MinInterval)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// GetRetryDelay returns the base retry delay used for linear backoff.
func (c *Config) GetRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.LLM.RetryDelay)
	if err != nil {
		return 2 * time.Second
	}
	return d
}
