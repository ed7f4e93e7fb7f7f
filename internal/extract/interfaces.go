// Package extract turns source text into ordered symbol records.
//
// Only a Python extractor is implemented; the LanguageParser/SymbolExtractor
// seam exists so a second language could be added without touching the
// differ, builder, or anything downstream, but this module demonstrates
// exactly one.
package extract

import "impactreview/internal/models"

// LanguageParser parses source text into an opaque per-language tree handle.
type LanguageParser interface {
	// Parse returns a tree handle, or nil if the source failed to parse.
	// A parse failure is not an error: it is reported by returning nil, and
	// callers treat it as "this file contributes zero symbols".
	Parse(source []byte, filePath string) (Tree, error)

	// SupportsFile reports whether this parser handles the given path's extension.
	SupportsFile(filePath string) bool
}

// Tree is an opaque parsed syntax tree; only the extractor that produced it
// knows how to walk it. Callers pass it straight into the matching extractor.
type Tree interface {
	Close()
}

// SymbolExtractor extracts symbol records from a parsed tree.
type SymbolExtractor interface {
	Extract(tree Tree, filePath string) []models.SymbolRecord
}

// Registry resolves a LanguageParser/SymbolExtractor pair by file extension,
// failing closed (nil, nil, false) for unsupported extensions rather than
// panicking.
type Registry struct {
	entries []registryEntry
}

type registryEntry struct {
	parser    LanguageParser
	extractor SymbolExtractor
}

// NewRegistry builds a registry with the Python extractor registered.
func NewRegistry() *Registry {
	r := &Registry{}
	py := NewPythonLanguageParser()
	r.entries = append(r.entries, registryEntry{parser: py, extractor: NewPythonSymbolExtractor()})
	return r
}

// For returns the parser/extractor pair that supports filePath, or ok=false
// if no registered language claims this extension.
func (r *Registry) For(filePath string) (LanguageParser, SymbolExtractor, bool) {
	for _, e := range r.entries {
		if e.parser.SupportsFile(filePath) {
			return e.parser, e.extractor, true
		}
	}
	return nil, nil, false
}
