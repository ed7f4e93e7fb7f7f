package graph

import (
	"os"
	"path/filepath"
	"strings"

	"impactreview/internal/extract"
	"impactreview/internal/logging"
	"impactreview/internal/models"
)

// Builder walks a head worktree and populates a Store with module/symbol
// nodes and CALLS/IMPORTS/INHERITS/TESTS edges. Call and inheritance
// resolution is same-file only (see SPEC_FULL.md §4.3, §9): cross-file
// resolution is not attempted.
type Builder struct {
	registry *extract.Registry
}

// NewBuilder constructs a Builder using the default extractor registry.
func NewBuilder() *Builder {
	return &Builder{registry: extract.NewRegistry()}
}

// Build scans headPath for every file the registry supports, parses it, and
// returns the populated Store. Files that fail to parse are skipped silently.
func (b *Builder) Build(headPath string) (*Store, error) {
	store := New()
	var files []string
	err := filepath.Walk(headPath, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(headPath, path)
		if relErr != nil {
			return nil
		}
		if _, _, ok := b.registry.For(path); ok {
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, rel := range files {
		abs := filepath.Join(headPath, rel)
		src, readErr := os.ReadFile(abs)
		if readErr != nil {
			continue
		}
		parser, extractor, ok := b.registry.For(rel)
		if !ok {
			continue
		}
		tree, parseErr := parser.Parse(src, rel)
		if parseErr != nil || tree == nil {
			continue
		}
		symbols := extractor.Extract(tree, rel)
		relations := extract.ExtractRelations(tree)
		tree.Close()
		b.processFile(store, rel, symbols, relations)
	}
	return store, nil
}

func moduleID(filePath string) string {
	id := strings.ReplaceAll(filePath, "/", ".")
	id = strings.TrimSuffix(id, ".py")
	id = strings.TrimSuffix(id, ".pyi")
	return id
}

func nodeID(filePath, symbolName string, kind models.SymbolKind, parentClass string) string {
	if kind == models.KindModule {
		return moduleID(filePath)
	}
	if parentClass != "" {
		return filePath + "::" + parentClass + "." + symbolName
	}
	return filePath + "::" + symbolName
}

func isTestFile(filePath string) bool {
	name := filepath.Base(filePath)
	for _, ext := range []string{".py", ".pyi"} {
		if strings.HasPrefix(name, "test_") && strings.HasSuffix(name, ext) {
			return true
		}
		if strings.HasSuffix(name, "_test"+ext) {
			return true
		}
	}
	return false
}

func (b *Builder) processFile(store *Store, filePath string, symbols []models.SymbolRecord, relations *extract.Relations) {
	modID := moduleID(filePath)
	isTest := isTestFile(filePath)

	store.AddNode(models.GraphNode{
		ID:         modID,
		Kind:       models.KindModule,
		Language:   "python",
		FilePath:   filePath,
		SymbolName: modID,
		IsTestFile: isTest,
	})

	for _, s := range symbols {
		nid := nodeID(filePath, s.Name, s.Kind, s.ParentClass)
		store.AddNode(models.GraphNode{
			ID:          nid,
			Kind:        s.Kind,
			Language:    "python",
			FilePath:    filePath,
			SymbolName:  s.Name,
			LineStart:   s.LineStart,
			LineEnd:     s.LineEnd,
			ParentClass: s.ParentClass,
		})
		store.AddEdge(models.GraphEdge{SrcID: nid, DstID: modID, Type: models.EdgeImports})
	}

	if relations != nil {
		for _, s := range symbols {
			nid := nodeID(filePath, s.Name, s.Kind, s.ParentClass)
			if s.Kind == models.KindClass {
				for _, base := range relations.ClassBases[s.Name] {
					baseID := filePath + "::" + base
					if _, ok := store.GetNode(baseID); ok {
						store.AddEdge(models.GraphEdge{SrcID: nid, DstID: baseID, Type: models.EdgeInherits})
					}
				}
			}
			if s.Kind == models.KindMethod || s.Kind == models.KindFunction {
				for _, call := range relations.Calls[s.Name] {
					targetID := filePath + "::" + call
					if _, ok := store.GetNode(targetID); ok {
						store.AddEdge(models.GraphEdge{SrcID: nid, DstID: targetID, Type: models.EdgeCalls})
					}
				}
			}
		}

		if isTest {
			for _, imp := range relations.Imports {
				base := imp
				if idx := strings.Index(imp, "."); idx >= 0 {
					base = imp[:idx]
				}
				if target, ok := findModuleByFragment(store, base); ok {
					store.AddEdge(models.GraphEdge{SrcID: modID, DstID: target, Type: models.EdgeTests})
				}
			}
		}

		for _, imp := range relations.Imports {
			otherID := strings.ReplaceAll(imp, "/", ".")
			otherID = strings.TrimSuffix(otherID, ".py")
			if idx := strings.Index(otherID, "."); idx >= 0 {
				otherID = otherID[:idx]
			}
			if target, ok := findModuleByFragment(store, otherID); ok {
				store.AddEdge(models.GraphEdge{SrcID: modID, DstID: target, Type: models.EdgeImports})
			}
		}
	}

	logging.GraphDebug("processed %s: %d symbols", filePath, len(symbols))
}

// findModuleByFragment returns the first module node (in insertion order)
// whose dotted ID contains fragment as a substring or dotted suffix.
func findModuleByFragment(store *Store, fragment string) (string, bool) {
	if fragment == "" {
		return "", false
	}
	for _, id := range store.AllNodeIDs() {
		node, ok := store.GetNode(id)
		if !ok || node.Kind != models.KindModule {
			continue
		}
		if strings.Contains(node.SymbolName, fragment) || strings.HasSuffix(node.SymbolName, "."+fragment) {
			return id, true
		}
	}
	return "", false
}
