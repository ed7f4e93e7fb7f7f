package semdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactreview/internal/models"
)

func TestDiffSignatureChange(t *testing.T) {
	base := []models.SymbolRecord{{Name: "foo", Kind: models.KindFunction, Signature: "foo(x)"}}
	head := []models.SymbolRecord{{Name: "foo", Kind: models.KindFunction, Signature: "foo(x, y)"}}
	changes := New().Diff("f.py", base, head)
	require.Len(t, changes, 1)
	assert.Equal(t, models.Modified, changes[0].ChangeType)
	assert.Equal(t, []string{models.DescSignatureChange}, changes[0].Descriptors)
}

func TestDiffAddedAndRemoved(t *testing.T) {
	base := []models.SymbolRecord{{Name: "old", Kind: models.KindFunction}}
	head := []models.SymbolRecord{{Name: "new", Kind: models.KindFunction}}
	changes := New().Diff("f.py", base, head)
	require.Len(t, changes, 2)
	assert.Equal(t, "new", changes[0].SymbolName)
	assert.Equal(t, models.Added, changes[0].ChangeType)
	assert.Equal(t, "old", changes[1].SymbolName)
	assert.Equal(t, models.Removed, changes[1].ChangeType)
}

func TestDiffIdenticalIsEmpty(t *testing.T) {
	syms := []models.SymbolRecord{{Name: "foo", Kind: models.KindFunction, Signature: "foo()", Docstring: "d"}}
	changes := New().Diff("f.py", syms, syms)
	assert.Empty(t, changes)
}

func TestDiffMethodIdentityRequiresParentClass(t *testing.T) {
	base := []models.SymbolRecord{{Name: "run", Kind: models.KindMethod, ParentClass: "A", Signature: "run()"}}
	head := []models.SymbolRecord{{Name: "run", Kind: models.KindMethod, ParentClass: "B", Signature: "run()"}}
	changes := New().Diff("f.py", base, head)
	// Different parent class means different identity key: one added, one removed.
	require.Len(t, changes, 2)
}

func TestDiffDecoratorChange(t *testing.T) {
	base := []models.SymbolRecord{{Name: "foo", Kind: models.KindFunction, Signature: "foo()"}}
	head := []models.SymbolRecord{{Name: "foo", Kind: models.KindFunction, Signature: "foo()", Decorators: []string{"cached"}}}
	changes := New().Diff("f.py", base, head)
	require.Len(t, changes, 1)
	assert.Equal(t, []string{models.DescDecoratorChange}, changes[0].Descriptors)
}

func TestWholeFileSymbolsAdded(t *testing.T) {
	syms := []models.SymbolRecord{{Name: "a", Kind: models.KindFunction}, {Name: "b", Kind: models.KindClass}}
	changes := WholeFileSymbols("new.py", syms, models.Added)
	require.Len(t, changes, 2)
	for _, c := range changes {
		assert.Equal(t, models.Added, c.ChangeType)
		assert.Equal(t, []string{models.DescAdded}, c.Descriptors)
	}
}

func TestWholeFileSymbolsRemoved(t *testing.T) {
	syms := []models.SymbolRecord{{Name: "a", Kind: models.KindFunction}}
	changes := WholeFileSymbols("gone.py", syms, models.Removed)
	require.Len(t, changes, 1)
	assert.Equal(t, models.Removed, changes[0].ChangeType)
	assert.Equal(t, []string{models.DescRemoved}, changes[0].Descriptors)
}
