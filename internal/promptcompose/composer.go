// Package promptcompose builds the per-unit and batched prompts the LLM
// adapter is called with, from symbol changes, retrieved context snippets,
// and the repository graph's import edges.
package promptcompose

import (
	"fmt"
	"sort"
	"strings"

	"impactreview/internal/diff"
	"impactreview/internal/graph"
	"impactreview/internal/models"
)

const perUnitSystemPrompt = `You are reviewing a single changed symbol in a pull request.
Produce observations in these categories where relevant: correctness, security, performance, style, test coverage.
Be specific and reference the code you were given; do not invent context you were not shown.`

const batchedSystemPrompt = `You are reviewing a pull request as a whole.
Produce observations in these categories where relevant: correctness, security, performance, style, test coverage.
Reference file paths and symbol names from the change list; do not invent context you were not shown.`

// Config tunes the batched composer's section limits.
type Config struct {
	MaxDiffLines         int
	MaxLinesTotal        int
	MaxFilesInScope      int
	MaxSymbolBullets     int
	MaxImportDigestLines int
	MaxSymbolsPerFile    int
	MaxSymbolsTotal      int
}

// DefaultConfig matches the spec defaults.
func DefaultConfig() Config {
	return Config{
		MaxDiffLines:         25,
		MaxLinesTotal:        200,
		MaxFilesInScope:      20,
		MaxSymbolBullets:     50,
		MaxImportDigestLines: 30,
		MaxSymbolsPerFile:    5,
		MaxSymbolsTotal:      40,
	}
}

// PerUnitSystem returns the system prompt used for per-unit reviews.
func PerUnitSystem() string { return perUnitSystemPrompt }

// BatchedSystem returns the system prompt used for batched reviews.
func BatchedSystem() string { return batchedSystemPrompt }

// PerUnit composes the user message for one ReviewUnit: a change-summary
// bullet, then the before/after snippets, then one fenced block per
// retrieved context node.
func PerUnit(unit models.ReviewUnit, repoContext string) string {
	var b strings.Builder

	if repoContext != "" {
		b.WriteString(repoContext)
		b.WriteString("\n\n")
	}

	b.WriteString("## Change\n")
	b.WriteString(changeBullet(unit.SymbolChange))
	b.WriteString("\n\n")

	b.WriteString("## Relevant surrounding code\n")
	if unit.BeforeSnippet != "" {
		b.WriteString("Before:\n```\n")
		b.WriteString(unit.BeforeSnippet)
		b.WriteString("\n```\n")
	}
	if unit.AfterSnippet != "" {
		b.WriteString("After:\n```\n")
		b.WriteString(unit.AfterSnippet)
		b.WriteString("\n```\n")
	}
	for _, snippet := range unit.ContextSnippets {
		fmt.Fprintf(&b, "\nContext (%s):\n```\n%s\n```\n", snippet.NodeID, snippet.Text)
	}

	return b.String()
}

func changeBullet(c models.SymbolChange) string {
	line := fmt.Sprintf("- %s :: %s (%s): %s", c.FilePath, c.SymbolName, c.Kind, c.ChangeType)
	if len(c.Descriptors) > 0 {
		line += "\n  descriptors: " + strings.Join(c.Descriptors, ", ")
	}
	return line
}

// BatchInput carries everything the batched composer needs.
type BatchInput struct {
	Changes []models.SymbolChange
	// ExtraScopeFiles lists changed files that produced no symbol changes
	// (unsupported language, unparsable source, or a non-code file) but
	// still belong in the Scope section so it never silently drops a
	// changed file. Callers typically rank these with the sparse fallback
	// retriever before passing them in.
	ExtraScopeFiles []string
	Store           *graph.Store
	BaseSource      func(filePath string) (string, bool)
	HeadSource      func(filePath string) (string, bool)
}

// Batched composes the four-section batched prompt: Scope, Symbol-level
// changes, Import/dependency relationships, Code diffs.
func Batched(in BatchInput, cfg Config) string {
	limited := DedupeAndLimit(in.Changes, cfg.MaxSymbolsPerFile, cfg.MaxSymbolsTotal)

	var b strings.Builder
	b.WriteString("## Scope\n")
	b.WriteString(scopeSection(limited, in.ExtraScopeFiles, cfg.MaxFilesInScope))
	b.WriteString("\n\n## Symbol-level changes\n")
	b.WriteString(symbolBullets(limited, cfg.MaxSymbolBullets))
	b.WriteString("\n\n## Import/dependency relationships\n")
	b.WriteString(importDigest(in.Store, limited, cfg.MaxImportDigestLines))
	b.WriteString("\n\n## Code diffs\n")
	b.WriteString(codeDiffsDigest(limited, in.BaseSource, in.HeadSource, cfg.MaxDiffLines, cfg.MaxLinesTotal))

	return b.String()
}

// DedupeAndLimit caps per-file to maxPerFile symbols and total to maxTotal,
// ordered Added-before-others, then by kind, then by symbol name.
func DedupeAndLimit(changes []models.SymbolChange, maxPerFile, maxTotal int) []models.SymbolChange {
	byFile := make(map[string][]models.SymbolChange)
	var order []string
	for _, c := range changes {
		if _, ok := byFile[c.FilePath]; !ok {
			order = append(order, c.FilePath)
		}
		byFile[c.FilePath] = append(byFile[c.FilePath], c)
	}

	var out []models.SymbolChange
	for _, file := range order {
		group := byFile[file]
		sortChanges(group)
		if len(group) > maxPerFile {
			group = group[:maxPerFile]
		}
		out = append(out, group...)
	}
	if len(out) > maxTotal {
		out = out[:maxTotal]
	}
	return out
}

func sortChanges(changes []models.SymbolChange) {
	sort.SliceStable(changes, func(i, j int) bool {
		ai, aj := changes[i], changes[j]
		if (ai.ChangeType == models.Added) != (aj.ChangeType == models.Added) {
			return ai.ChangeType == models.Added
		}
		ki, kj := kindOrder(ai.Kind), kindOrder(aj.Kind)
		if ki != kj {
			return ki < kj
		}
		return ai.SymbolName < aj.SymbolName
	})
}

func kindOrder(k models.SymbolKind) int {
	switch k {
	case models.KindClass:
		return 0
	case models.KindFunction:
		return 1
	case models.KindMethod:
		return 2
	case models.KindConstant:
		return 3
	default:
		return 4
	}
}

// scopeSection lists every file in scope: first the files that produced
// symbol changes, then extraFiles (changed files that didn't, already
// ranked by relevance by the caller), deduped and capped at maxFiles.
func scopeSection(changes []models.SymbolChange, extraFiles []string, maxFiles int) string {
	seen := make(map[string]bool)
	var files []string
	for _, c := range changes {
		if !seen[c.FilePath] {
			seen[c.FilePath] = true
			files = append(files, c.FilePath)
		}
	}
	for _, f := range extraFiles {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	if len(files) > maxFiles {
		files = files[:maxFiles]
	}
	if len(files) == 0 {
		return "(no files in scope)"
	}
	return "- " + strings.Join(files, "\n- ")
}

func symbolBullets(changes []models.SymbolChange, maxBullets int) string {
	if len(changes) == 0 {
		return "(no symbol changes)"
	}
	n := len(changes)
	if n > maxBullets {
		n = maxBullets
	}
	var lines []string
	for _, c := range changes[:n] {
		lines = append(lines, changeBullet(c))
	}
	return strings.Join(lines, "\n")
}

func importDigest(store *graph.Store, changes []models.SymbolChange, maxLines int) string {
	if store == nil {
		return "(no cross-file import edges in graph)"
	}
	changedFiles := make(map[string]bool)
	for _, c := range changes {
		changedFiles[c.FilePath] = true
	}

	seen := make(map[string]bool)
	var lines []string
	for _, nodeID := range store.AllNodeIDs() {
		node, ok := store.GetNode(nodeID)
		if !ok || node.Kind != models.KindModule || !changedFiles[node.FilePath] {
			continue
		}
		for _, dst := range store.NeighborsOut(nodeID, models.EdgeImports) {
			dstNode, ok := store.GetNode(dst)
			if !ok || dstNode.Kind != models.KindModule {
				continue
			}
			key := nodeID + "->" + dst
			if seen[key] {
				continue
			}
			seen[key] = true
			lines = append(lines, fmt.Sprintf("- %s imports %s", nodeID, dst))
		}
		for _, src := range store.NeighborsIn(nodeID, models.EdgeImports) {
			srcNode, ok := store.GetNode(src)
			if !ok || srcNode.Kind != models.KindModule {
				continue
			}
			key := src + "->" + nodeID
			if seen[key] {
				continue
			}
			seen[key] = true
			lines = append(lines, fmt.Sprintf("- %s imports %s", src, nodeID))
		}
		if len(lines) >= maxLines {
			break
		}
	}

	if len(lines) == 0 {
		return "(no cross-file import edges in graph)"
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}

func codeDiffsDigest(changes []models.SymbolChange, baseSource, headSource func(string) (string, bool), maxDiffLines, maxLinesTotal int) string {
	byFile := make(map[string][]models.SymbolChange)
	var order []string
	for _, c := range changes {
		if _, ok := byFile[c.FilePath]; !ok {
			order = append(order, c.FilePath)
		}
		byFile[c.FilePath] = append(byFile[c.FilePath], c)
	}

	var b strings.Builder
	totalLines := 0
	maxChars := maxDiffLines * 40

files:
	for _, file := range order {
		group := byFile[file]
		sortChanges(group)
		limit := 5
		if len(group) < limit {
			limit = len(group)
		}
		for _, c := range group[:limit] {
			if totalLines >= maxLinesTotal {
				break files
			}
			header := fmt.Sprintf("### %s :: %s\n", c.FilePath, c.SymbolName)
			b.WriteString(header)
			totalLines++

			var baseSnippet, headSnippet string
			if baseSource != nil {
				if content, ok := baseSource(c.FilePath); ok {
					baseSnippet = extractLines(content, c.LineStart, c.LineEnd, 25)
				}
			}
			if headSource != nil {
				if content, ok := headSource(c.FilePath); ok {
					headSnippet = extractLines(content, c.LineStart, c.LineEnd, 25)
				}
			}
			if baseSnippet == "" && headSnippet == "" {
				continue
			}

			rendered := renderUnifiedHunks(RenderDiff(c.FilePath, c.FilePath, baseSnippet, headSnippet))
			if rendered == "" {
				rendered = headSnippet
				if rendered == "" {
					rendered = baseSnippet
				}
			}
			b.WriteString("```diff\n")
			b.WriteString(rendered)
			b.WriteString("\n```\n")
			totalLines += strings.Count(rendered, "\n") + 1
		}
	}

	if b.Len() == 0 {
		return "(no code diffs)"
	}
	out := b.String()
	if len(out) > maxChars {
		out = out[:maxChars] + "\n[... truncated for length ...]"
	}
	return out
}

func extractLines(source string, start, end, maxLines int) string {
	lines := strings.Split(source, "\n")
	if start <= 0 {
		start = 1
	}
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if end-start+1 > maxLines {
		end = start + maxLines - 1
	}
	if start-1 >= len(lines) {
		return ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start-1:end], "\n")
}

// RenderDiff is a small helper for callers that want a unified-looking
// hunk view of a before/after pair instead of raw source slices.
func RenderDiff(oldPath, newPath, oldContent, newContent string) *diff.FileDiff {
	return diff.ComputeDiff(oldPath, newPath, oldContent, newContent)
}

// renderUnifiedHunks renders a FileDiff's hunks as unified-diff-style text
// (@@ headers, +/-/space line prefixes). Returns "" if fd has no hunks, e.g.
// the before/after snippets it was computed from are identical.
func renderUnifiedHunks(fd *diff.FileDiff) string {
	if fd == nil || len(fd.Hunks) == 0 {
		return ""
	}
	var b strings.Builder
	for _, h := range fd.Hunks {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, l := range h.Lines {
			switch l.Type {
			case diff.LineAdded:
				b.WriteString("+" + l.Content + "\n")
			case diff.LineRemoved:
				b.WriteString("-" + l.Content + "\n")
			default:
				b.WriteString(" " + l.Content + "\n")
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
