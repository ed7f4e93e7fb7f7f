// Package review glues the extractor, differ, graph, retrieval, context,
// prompt composer, and LLM adapter into the end-to-end pipeline: a
// PullRequestRef and a mode go in, a ReviewResult comes out.
package review

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	ctxassemble "impactreview/internal/context"
	"impactreview/internal/extract"
	"impactreview/internal/graph"
	"impactreview/internal/llm"
	"impactreview/internal/logging"
	"impactreview/internal/models"
	"impactreview/internal/promptcompose"
	"impactreview/internal/retrieval"
	"impactreview/internal/semdiff"
	"impactreview/internal/vcs"
)

// unitConcurrency bounds the number of per-unit LLM calls in flight at
// once, mirroring the adapter's own rate-limit window.
const unitConcurrency = 4

// Orchestrator runs one review from end to end. A fresh Orchestrator must
// be constructed per concurrent review: the graph store, assembler, and
// differ it builds are not shared across reviews.
type Orchestrator struct {
	checkout        vcs.Provider
	adapter         llm.Adapter
	retrievalConfig *retrieval.Config
	assemblerConfig ctxassemble.AssemblerConfig
	promptConfig    promptcompose.Config
	history         HistoryStore
}

// HistoryStore persists completed review results, keyed by PullRequestRef.ID.
// A nil HistoryStore is valid: persistence is simply skipped.
type HistoryStore interface {
	Save(ctx context.Context, prID string, result models.ReviewResult) error
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(checkout vcs.Provider, adapter llm.Adapter, retrievalConfig *retrieval.Config, assemblerConfig ctxassemble.AssemblerConfig, promptConfig promptcompose.Config, history HistoryStore) *Orchestrator {
	return &Orchestrator{
		checkout:        checkout,
		adapter:         adapter,
		retrievalConfig: retrievalConfig,
		assemblerConfig: assemblerConfig,
		promptConfig:    promptConfig,
		history:         history,
	}
}

// Run executes the pipeline for ref under mode and returns the result.
func (o *Orchestrator) Run(ctx context.Context, ref models.PullRequestRef, mode models.ReviewMode) models.ReviewResult {
	timer := logging.StartTimer(logging.CategoryOrchestrator, "Run")
	defer timer.Stop()

	if mode != models.ModeBatched && mode != models.ModePerUnit && mode != models.ModeBoth {
		mode = models.ModeBatched
	}

	fileChanges, err := o.checkout.FileChanges(ctx, ref)
	if err != nil {
		return models.ReviewResult{
			Summary: fmt.Sprintf("Failed to get file changes: %v", err),
			Status:  models.StatusFailed,
		}
	}

	basePath, err := o.checkout.BaseWorktreePath(ctx, ref)
	if err != nil {
		return models.ReviewResult{
			Summary: fmt.Sprintf("Failed to checkout base/head: %v", err),
			Status:  models.StatusFailed,
		}
	}
	headPath, err := o.checkout.HeadWorktreePath(ctx, ref)
	if err != nil {
		return models.ReviewResult{
			Summary: fmt.Sprintf("Failed to checkout base/head: %v", err),
			Status:  models.StatusFailed,
		}
	}

	changes, skippedFiles := o.diffAll(basePath, headPath, fileChanges)
	if len(changes) == 0 {
		result := models.ReviewResult{
			Summary: "No semantically significant changes detected.",
			Status:  models.StatusCompleted,
		}
		o.persist(ctx, ref.ID, result)
		return result
	}

	limited := promptcompose.DedupeAndLimit(changes, o.promptConfig.MaxSymbolsPerFile, o.promptConfig.MaxSymbolsTotal)
	extraScope := o.rankSkippedFiles(headPath, basePath, skippedFiles, limited)

	store, err := graph.NewBuilder().Build(headPath)
	if err != nil {
		logging.OrchestratorError("graph build failed: %v", err)
		store = graph.New()
	}

	result := models.ReviewResult{Status: models.StatusCompleted}

	if mode == models.ModePerUnit || mode == models.ModeBoth {
		reviews := o.runUnits(ctx, store, basePath, headPath, limited)
		var combined strings.Builder
		for _, unitReview := range reviews {
			result.Findings = append(result.Findings, unitReview.Findings...)
			combined.WriteString(unitReview.Response)
			combined.WriteString("\n\n")
		}
		result.UnitReviews = reviews
		result.CombinedReview = strings.TrimSpace(combined.String())
	}

	if mode == models.ModeBatched || mode == models.ModeBoth {
		prompt := promptcompose.Batched(promptcompose.BatchInput{
			Changes:         limited,
			ExtraScopeFiles: extraScope,
			Store:           store,
			BaseSource: func(path string) (string, bool) { return readFile(basePath, path) },
			HeadSource: func(path string) (string, bool) { return readFile(headPath, path) },
		}, o.promptConfig)

		text, _ := o.adapter.Complete(ctx, promptcompose.BatchedSystem(), prompt, 0.2, 4000)
		result.Findings = append(result.Findings, ParseFindings(text, "")...)
		result.Summary = text
	}

	if mode == models.ModePerUnit {
		if result.CombinedReview == "" {
			result.Summary = "No review output."
		} else {
			result.Summary = result.CombinedReview
		}
	}

	o.persist(ctx, ref.ID, result)
	return result
}

// runUnits dispatches one LLM call per change concurrently, bounded by
// unitConcurrency, and writes results back by index so output order
// matches the input order regardless of completion order.
func (o *Orchestrator) runUnits(ctx context.Context, store *graph.Store, basePath, headPath string, changes []models.SymbolChange) []models.UnitReview {
	reviews := make([]models.UnitReview, len(changes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(unitConcurrency)
	for i, change := range changes {
		i, change := i, change
		g.Go(func() error {
			reviews[i] = o.runUnit(gctx, store, basePath, headPath, change)
			return nil
		})
	}
	_ = g.Wait()

	return reviews
}

func (o *Orchestrator) runUnit(ctx context.Context, store *graph.Store, basePath, headPath string, change models.SymbolChange) models.UnitReview {
	nodeID := resolveNodeID(store, change)

	var contextIDs []string
	if nodeID != "" {
		contextIDs = retrieval.NewFinder(store, o.retrievalConfig).Find([]string{nodeID})
	}

	before, _ := readSnippet(basePath, change)
	after, _ := readSnippet(headPath, change)

	asm := ctxassemble.NewAssembler(store, headPath, o.assemblerConfig)
	unit := asm.Assemble(change, contextIDs, before, after)

	prompt := promptcompose.PerUnit(unit, "")
	text, _ := o.adapter.Complete(ctx, promptcompose.PerUnitSystem(), prompt, 0.2, 2000)

	findings := ParseFindings(text, change.FilePath)
	return models.UnitReview{Unit: unit, Response: text, Findings: findings}
}

// resolveNodeID maps a symbol change to a graph node ID: direct file::name,
// falling back for methods to any node in the same file ending in .<name>.
func resolveNodeID(store *graph.Store, change models.SymbolChange) string {
	direct := change.FilePath + "::" + change.SymbolName
	if _, ok := store.GetNode(direct); ok {
		return direct
	}
	suffix := "." + change.SymbolName
	for _, id := range store.AllNodeIDs() {
		node, ok := store.GetNode(id)
		if !ok || node.FilePath != change.FilePath {
			continue
		}
		if strings.HasSuffix(node.SymbolName, suffix) {
			return id
		}
	}
	return ""
}

// diffAll extracts and diffs symbols for every changed file it can parse. It
// also returns the paths of changed files that produced no symbol changes at
// all — an unsupported language, a file the extractor couldn't parse, or a
// non-code file such as a touched .yaml/.md — so callers can still surface
// them somewhere other than the symbol-change list.
func (o *Orchestrator) diffAll(basePath, headPath string, fileChanges []models.FileChange) ([]models.SymbolChange, []string) {
	registry := extract.NewRegistry()
	differ := semdiff.New()

	var allChanges []models.SymbolChange
	var skipped []string
	for _, fc := range fileChanges {
		if fc.Language == "" {
			skipped = append(skipped, fc.Path)
			continue
		}
		if _, _, ok := registry.For(fc.Path); !ok {
			skipped = append(skipped, fc.Path)
			continue
		}

		before := len(allChanges)
		switch fc.ChangeType {
		case models.FileAdded:
			symbols := extractSymbols(registry, headPath, fc.Path)
			allChanges = append(allChanges, semdiff.WholeFileSymbols(fc.Path, symbols, models.Added)...)
		case models.FileRemoved:
			symbols := extractSymbols(registry, basePath, fc.Path)
			allChanges = append(allChanges, semdiff.WholeFileSymbols(fc.Path, symbols, models.Removed)...)
		default:
			baseSymbols := extractSymbols(registry, basePath, fc.Path)
			headSymbols := extractSymbols(registry, headPath, fc.Path)
			allChanges = append(allChanges, differ.Diff(fc.Path, baseSymbols, headSymbols)...)
		}
		if len(allChanges) == before {
			skipped = append(skipped, fc.Path)
		}
	}
	return allChanges, skipped
}

// rankSkippedFiles orders changed files that produced no symbol changes by
// keyword overlap with the files that did, using the sparse fallback
// retriever, so the most relevant ones surface first when the batched
// prompt's Scope section caps at MaxFilesInScope. Every skipped file is
// still returned (the unranked remainder appended after the ranked ones):
// Scope must never silently drop a changed file just because it scored no
// overlap.
func (o *Orchestrator) rankSkippedFiles(headPath, basePath string, skipped []string, changes []models.SymbolChange) []string {
	if len(skipped) == 0 {
		return nil
	}

	var target strings.Builder
	seenFile := make(map[string]bool)
	for _, c := range changes {
		if seenFile[c.FilePath] {
			continue
		}
		seenFile[c.FilePath] = true
		if content, ok := readFile(headPath, c.FilePath); ok {
			target.WriteString(content)
			target.WriteString("\n")
		}
	}

	var candidates []retrieval.SparseCandidate
	for _, path := range skipped {
		content, ok := readFile(headPath, path)
		if !ok {
			content, ok = readFile(basePath, path)
		}
		if !ok {
			continue
		}
		candidates = append(candidates, retrieval.SparseCandidate{Path: path, Content: content})
	}

	ranked := retrieval.NewSparseRetriever(nil).Rank(target.String(), candidates)

	rankedSet := make(map[string]bool, len(ranked))
	for _, p := range ranked {
		rankedSet[p] = true
	}
	ordered := append([]string{}, ranked...)
	for _, p := range skipped {
		if !rankedSet[p] {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

func extractSymbols(registry *extract.Registry, root, relPath string) []models.SymbolRecord {
	parser, extractor, ok := registry.For(relPath)
	if !ok {
		return nil
	}
	src, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		return nil
	}
	tree, err := parser.Parse(src, relPath)
	if err != nil || tree == nil {
		return nil
	}
	defer tree.Close()
	return extractor.Extract(tree, relPath)
}

func readFile(root, relPath string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func readSnippet(root string, change models.SymbolChange) (string, bool) {
	content, ok := readFile(root, change.FilePath)
	if !ok {
		return "", false
	}
	lines := strings.Split(content, "\n")
	start, end := change.LineStart, change.LineEnd
	if start <= 0 {
		start = 1
	}
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if start-1 >= len(lines) {
		return "", false
	}
	return strings.Join(lines[start-1:end], "\n"), true
}

func (o *Orchestrator) persist(ctx context.Context, prID string, result models.ReviewResult) {
	if o.history == nil || result.Status != models.StatusCompleted {
		return
	}
	if err := o.history.Save(ctx, prID, result); err != nil {
		logging.OrchestratorError("failed to persist review history for %s: %v", prID, err)
	}
}
