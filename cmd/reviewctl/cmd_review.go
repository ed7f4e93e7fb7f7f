package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ctxassemble "impactreview/internal/context"
	"impactreview/internal/config"
	"impactreview/internal/llm"
	"impactreview/internal/models"
	"impactreview/internal/retrieval"
	"impactreview/internal/promptcompose"
	"impactreview/internal/review"
	"impactreview/internal/store"
	"impactreview/internal/vcs"
)

var (
	baseRef string
	headRef string
	prID    string
	mode    string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review the changes between two refs",
	Long: `Runs the full extract -> diff -> graph -> retrieval -> context ->
prompt -> LLM pipeline over the file changes between --base and --head,
and prints a summary plus any findings.

Example:
  reviewctl review --base main --head feature/my-change`,
	RunE: runReview,
}

func registerReviewCmd(root *cobra.Command) {
	reviewCmd.Flags().StringVar(&baseRef, "base", "main", "Base git ref")
	reviewCmd.Flags().StringVar(&headRef, "head", "HEAD", "Head git ref")
	reviewCmd.Flags().StringVar(&prID, "id", "", "Correlation ID for this review (default: generated)")
	reviewCmd.Flags().StringVar(&mode, "mode", "batched", "Review mode: batched, per_unit, or both")
	root.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\ninterrupted")
		cancel()
	}()

	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}

	cfg, err := config.Load(resolveConfigPath(ws))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	id := prID
	if id == "" {
		id = uuid.New().String()
	}
	ref := models.PullRequestRef{
		RepoRoot: ws,
		BaseRef:  baseRef,
		HeadRef:  headRef,
		ID:       id,
	}

	reviewMode := models.ReviewMode(mode)

	checkout := vcs.NewGitProvider(cfg.RepoCheckoutRoot, vcs.LanguageExtensions(cfg.SupportedLanguages))
	adapter := llm.Build(ctx, llm.FactoryConfig{
		Provider:       cfg.LLM.Provider,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		BaseURL:        cfg.LLM.BaseURL,
		MinInterval:    cfg.GetMinInterval(),
		MaxRetries:     cfg.LLM.MaxRetries,
		RetryDelay:     cfg.GetRetryDelay(),
		EnableThinking: cfg.LLM.Gemini.EnableThinking,
		ThinkingLevel:  cfg.LLM.Gemini.ThinkingLevel,
	})

	retrievalConfig := &retrieval.Config{
		DepthCalls:      cfg.Retrieval.DepthCalls,
		DepthImports:    cfg.Retrieval.DepthImports,
		DepthTests:      cfg.Retrieval.DepthTests,
		MaxNodesPerUnit: cfg.Retrieval.MaxNodesPerUnit,
		EdgeWeights:     retrieval.DefaultConfig().EdgeWeights,
	}
	assemblerConfig := ctxassemble.AssemblerConfig{
		MaxTokensPerUnit: cfg.Assembler.MaxTokensPerUnit,
		MaxLines:         cfg.Assembler.MaxLines,
	}

	var history review.HistoryStore
	if hs, err := store.NewHistoryStore(cfg.HistoryDBPath); err != nil {
		logger.Warn("review history store unavailable, continuing without persistence", zap.Error(err))
	} else {
		defer hs.Close()
		history = hs
	}

	orchestrator := review.NewOrchestrator(checkout, adapter, retrievalConfig, assemblerConfig, promptConfigFrom(cfg), history)

	fmt.Printf("reviewing %s..%s in %s (mode=%s)\n", baseRef, headRef, ws, reviewMode)
	fmt.Println(strings.Repeat("-", 50))

	result := orchestrator.Run(ctx, ref, reviewMode)

	fmt.Printf("status: %s\n\n", result.Status)
	fmt.Println(result.Summary)

	if len(result.Findings) > 0 {
		fmt.Printf("\n%d finding(s):\n", len(result.Findings))
		for _, c := range vcs.FindingsToInlineComments(result.Findings) {
			fmt.Printf("  %s:%d\n", c.Path, c.Line)
			for _, line := range strings.Split(c.Body, "\n") {
				fmt.Printf("    %s\n", line)
			}
		}
		for _, f := range result.Findings {
			if f.LocationFile == "" || f.LocationLineStart <= 0 {
				fmt.Printf("  [%s] %s (no location): %s\n", f.Severity, f.Category, f.Message)
			}
		}
	}

	if result.Status == models.StatusFailed {
		return fmt.Errorf("review failed: %s", result.Summary)
	}
	return nil
}

func promptConfigFrom(cfg *config.Config) promptcompose.Config {
	return promptcompose.Config{
		MaxDiffLines:         cfg.Prompt.MaxDiffLines,
		MaxLinesTotal:        cfg.Prompt.MaxLinesTotal,
		MaxFilesInScope:      cfg.Prompt.MaxFilesInScope,
		MaxSymbolBullets:     cfg.Prompt.MaxSymbolBullets,
		MaxImportDigestLines: cfg.Prompt.MaxImportDigestLines,
		MaxSymbolsPerFile:    cfg.Prompt.MaxSymbolsPerFile,
		MaxSymbolsTotal:      cfg.Prompt.MaxSymbolsTotal,
	}
}
