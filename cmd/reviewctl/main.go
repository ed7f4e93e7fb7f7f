// Package main implements reviewctl, the CLI entrypoint for the impact-aware
// code review engine.
//
// Entry point & global state:
//   - main.go    - rootCmd, global flags, init()
//   - cmd_review.go  - reviewCmd, runReview()
//   - cmd_history.go - historyCmd, runHistory()
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"impactreview/internal/config"
	"impactreview/internal/logging"
)

var (
	verbose    bool
	configPath string
	workspace  string
	timeout    time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "reviewctl",
	Short: "Impact-aware code review engine",
	Long: `reviewctl runs semantic-diff-driven, context-aware LLM review over a
pull request's changed files.

It extracts symbols with tree-sitter, diffs them structurally rather than
textually, retrieves call/import/test neighbours from a per-run graph, and
composes a token-budgeted prompt before dispatching to the configured LLM
backend.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		loggingCfg := loadLoggingConfig(ws)
		if err := logging.Initialize(ws, loggingCfg.debugMode, loggingCfg.categories, loggingCfg.level, loggingCfg.jsonFormat); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Repository root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default: <workspace>/.reviewengine/config.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Review operation timeout")

	registerReviewCmd(rootCmd)
	registerHistoryCmd(rootCmd)
}

func resolveWorkspace() (string, error) {
	ws := workspace
	if ws == "" {
		var err error
		ws, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		return ws, nil
	}
	abs, err := filepath.Abs(ws)
	if err != nil {
		return "", fmt.Errorf("resolve workspace path: %w", err)
	}
	return abs, nil
}

func resolveConfigPath(ws string) string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(ws, ".reviewengine", "config.yaml")
}

type loggingSettings struct {
	debugMode  bool
	categories map[string]bool
	level      string
	jsonFormat bool
}

// loadLoggingConfig reads just enough config to initialize the file logger
// before the rest of the pipeline (which needs the full Config) is wired up.
// A config load failure here is non-fatal: logging simply stays disabled.
func loadLoggingConfig(ws string) loggingSettings {
	cfg, err := config.Load(resolveConfigPath(ws))
	if err != nil {
		return loggingSettings{}
	}
	return loggingSettings{
		debugMode:  cfg.Logging.DebugMode,
		categories: cfg.Logging.Categories,
		level:      cfg.Logging.Level,
		jsonFormat: cfg.Logging.JSONFormat,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
