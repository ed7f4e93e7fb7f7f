// Package context loads source slices for a symbol change and its retrieved
// neighbours, pruning to a per-unit token budget. Token accounting follows
// the corpus's own chars/4 heuristic (see internal/context's sibling
// packages in the teacher for the same calibration).
package context

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"impactreview/internal/graph"
	"impactreview/internal/logging"
	"impactreview/internal/models"
)

// AssemblerConfig tunes the per-unit budget and snippet folding.
type AssemblerConfig struct {
	MaxTokensPerUnit int
	MaxLines         int
}

// DefaultAssemblerConfig matches the spec defaults: 8000 tokens, 50-line fold.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{MaxTokensPerUnit: 8000, MaxLines: 50}
}

// EstimateTokens is the shared chars/4 estimator, floored at 1 for any
// non-empty string.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	n := len(s) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// Assembler builds ReviewUnits by reading source slices from a worktree.
type Assembler struct {
	store    *graph.Store
	headRoot string
	config   AssemblerConfig
}

// NewAssembler constructs an Assembler reading from headRoot and resolving
// context node IDs via store.
func NewAssembler(store *graph.Store, headRoot string, config AssemblerConfig) *Assembler {
	return &Assembler{store: store, headRoot: headRoot, config: config}
}

// Assemble builds a ReviewUnit for change, given an ordered list of
// candidate context node IDs (already ranked by the retrieval finder) and
// optional before/after snippets for the changed symbol itself.
func (a *Assembler) Assemble(change models.SymbolChange, contextNodeIDs []string, beforeSnippet, afterSnippet string) models.ReviewUnit {
	unit := models.ReviewUnit{
		SymbolChange:  change,
		BeforeSnippet: beforeSnippet,
		AfterSnippet:  afterSnippet,
	}

	used := EstimateTokens(beforeSnippet) + EstimateTokens(afterSnippet)
	budget := a.config.MaxTokensPerUnit

	for _, nodeID := range contextNodeIDs {
		node, ok := a.store.GetNode(nodeID)
		if !ok {
			continue
		}
		slice, err := a.readSlice(node)
		if err != nil {
			logging.ContextDebug("skipping context node %s: %v", nodeID, err)
			continue
		}
		if strings.TrimSpace(slice) == "" {
			continue
		}
		folded := foldMiddle(slice, a.config.MaxLines)
		tokens := EstimateTokens(folded)
		if used+tokens > budget {
			logging.ContextDebug("context budget exhausted at node %s (%d+%d > %d); stopping", nodeID, used, tokens, budget)
			break
		}
		used += tokens
		unit.ContextNodeIDs = append(unit.ContextNodeIDs, nodeID)
		unit.ContextSnippets = append(unit.ContextSnippets, models.ContextSnippet{NodeID: nodeID, Text: folded})
	}

	return unit
}

func (a *Assembler) readSlice(node models.GraphNode) (string, error) {
	path := filepath.Join(a.headRoot, node.FilePath)
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	lineStart := node.LineStart
	lineEnd := node.LineEnd
	if lineStart <= 0 {
		lineStart = 1
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo < lineStart {
			continue
		}
		if lineEnd > 0 && lineNo > lineEnd {
			break
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// foldMiddle collapses a slice exceeding maxLines into an ellipsis,
// preserving the first maxLines/2 lines and the last maxLines-maxLines/2-1
// lines.
func foldMiddle(slice string, maxLines int) string {
	if maxLines <= 0 {
		return slice
	}
	lines := strings.Split(slice, "\n")
	if len(lines) <= maxLines {
		return slice
	}
	head := maxLines / 2
	tail := maxLines - head - 1
	var out []string
	out = append(out, lines[:head]...)
	out = append(out, fmt.Sprintf("... (%d lines omitted) ...", len(lines)-head-tail))
	out = append(out, lines[len(lines)-tail:]...)
	return strings.Join(out, "\n")
}
