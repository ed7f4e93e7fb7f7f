// Package semdiff pairs base and head symbol tables by identity key and
// emits the symbol-level changes the rest of the pipeline reviews.
package semdiff

import "impactreview/internal/models"

// Differ compares base vs. head symbol records for one file.
type Differ struct{}

func New() *Differ { return &Differ{} }

// Diff returns SymbolChanges for filePath: head-derived changes (added,
// modified) in head order, followed by base-only removals in base order.
func (d *Differ) Diff(filePath string, baseSymbols, headSymbols []models.SymbolRecord) []models.SymbolChange {
	baseByKey := make(map[models.SymbolKey]models.SymbolRecord, len(baseSymbols))
	for _, s := range baseSymbols {
		baseByKey[s.Key()] = s
	}
	headByKey := make(map[models.SymbolKey]bool, len(headSymbols))

	var changes []models.SymbolChange
	for _, head := range headSymbols {
		key := head.Key()
		headByKey[key] = true
		base, ok := baseByKey[key]
		if !ok {
			changes = append(changes, models.SymbolChange{
				FilePath:    filePath,
				SymbolName:  head.Name,
				Kind:        head.Kind,
				ChangeType:  models.Added,
				Descriptors: []string{models.DescAdded},
				LineStart:   head.LineStart,
				LineEnd:     head.LineEnd,
			})
			continue
		}
		descriptors := compareSymbols(base, head)
		if len(descriptors) > 0 {
			changes = append(changes, models.SymbolChange{
				FilePath:    filePath,
				SymbolName:  head.Name,
				Kind:        head.Kind,
				ChangeType:  models.Modified,
				Descriptors: descriptors,
				LineStart:   head.LineStart,
				LineEnd:     head.LineEnd,
			})
		}
	}

	for _, base := range baseSymbols {
		if headByKey[base.Key()] {
			continue
		}
		changes = append(changes, models.SymbolChange{
			FilePath:    filePath,
			SymbolName:  base.Name,
			Kind:        base.Kind,
			ChangeType:  models.Removed,
			Descriptors: []string{models.DescRemoved},
			LineStart:   base.LineStart,
			LineEnd:     base.LineEnd,
		})
	}
	return changes
}

// compareSymbols returns descriptors in the fixed order
// [signature_change, docstring_change, decorator_change].
func compareSymbols(base, head models.SymbolRecord) []string {
	var descriptors []string
	if base.Signature != head.Signature {
		descriptors = append(descriptors, models.DescSignatureChange)
	}
	if base.Docstring != head.Docstring {
		descriptors = append(descriptors, models.DescDocstringChange)
	}
	if !stringSlicesEqual(base.Decorators, head.Decorators) {
		descriptors = append(descriptors, models.DescDecoratorChange)
	}
	return descriptors
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// WholeFileSymbols turns every symbol in a whole added or removed file into
// SymbolChanges, one per symbol, all carrying the same change type. This is
// the added/removed-whole-file path: it does not go through Diff, since
// there is no base (or no head) symbol table to pair against.
func WholeFileSymbols(filePath string, symbols []models.SymbolRecord, changeType models.ChangeType) []models.SymbolChange {
	descriptor := models.DescAdded
	if changeType == models.Removed {
		descriptor = models.DescRemoved
	}
	changes := make([]models.SymbolChange, 0, len(symbols))
	for _, s := range symbols {
		changes = append(changes, models.SymbolChange{
			FilePath:    filePath,
			SymbolName:  s.Name,
			Kind:        s.Kind,
			ChangeType:  changeType,
			Descriptors: []string{descriptor},
			LineStart:   s.LineStart,
			LineEnd:     s.LineEnd,
		})
	}
	return changes
}
