// Package retrieval also provides a keyword-based fallback for files that
// produced no symbol-level changes (a touched .yaml/.md/.cfg file, or a
// source file the extractor could not parse) and therefore have nothing to
// seed the graph BFS with. This is supplementary to, not a replacement for,
// graph retrieval (see SPEC_FULL.md §4.4): any file that produced symbol
// changes is always retrieved via Finder.Find only.
package retrieval

import (
	"regexp"
	"sort"
	"strings"

	"impactreview/internal/logging"
)

// SparseConfig controls the keyword-overlap fallback retriever.
type SparseConfig struct {
	MaxResults   int
	MinTokenLen  int
	StopKeywords map[string]bool
}

// DefaultSparseConfig returns sensible defaults.
func DefaultSparseConfig() *SparseConfig {
	return &SparseConfig{
		MaxResults:  10,
		MinTokenLen: 3,
		StopKeywords: map[string]bool{
			"the": true, "and": true, "for": true, "with": true, "this": true,
			"that": true, "from": true, "import": true, "return": true, "def": true,
			"class": true, "self": true, "none": true, "true": true, "false": true,
		},
	}
}

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// SparseCandidate is one file the fallback retriever can rank.
type SparseCandidate struct {
	Path    string
	Content string
}

// SparseRetriever ranks candidate files by identifier-token overlap with an
// unparsed changed file's content.
type SparseRetriever struct {
	config *SparseConfig
}

// NewSparseRetriever constructs a retriever with the given config (nil for defaults).
func NewSparseRetriever(config *SparseConfig) *SparseRetriever {
	if config == nil {
		config = DefaultSparseConfig()
	}
	return &SparseRetriever{config: config}
}

// Rank scores each candidate by the number of distinct identifier tokens it
// shares with targetContent, and returns candidate paths ordered by
// descending score, capped at MaxResults. Candidates with zero overlap are
// excluded.
func (r *SparseRetriever) Rank(targetContent string, candidates []SparseCandidate) []string {
	targetTokens := r.tokenize(targetContent)
	if len(targetTokens) == 0 {
		return nil
	}

	type scored struct {
		path  string
		score int
	}
	var results []scored
	for _, c := range candidates {
		candTokens := r.tokenize(c.Content)
		overlap := 0
		for tok := range targetTokens {
			if candTokens[tok] {
				overlap++
			}
		}
		if overlap > 0 {
			results = append(results, scored{path: c.Path, score: overlap})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > r.config.MaxResults {
		results = results[:r.config.MaxResults]
	}

	out := make([]string, len(results))
	for i, s := range results {
		out[i] = s.path
	}
	logging.RetrievalDebug("sparse fallback ranked %d of %d candidates", len(out), len(candidates))
	return out
}

func (r *SparseRetriever) tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range identifierPattern.FindAllString(text, -1) {
		if len(tok) < r.config.MinTokenLen {
			continue
		}
		lower := strings.ToLower(tok)
		if r.config.StopKeywords[lower] {
			continue
		}
		tokens[tok] = true
	}
	return tokens
}
