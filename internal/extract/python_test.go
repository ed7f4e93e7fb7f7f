package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactreview/internal/models"
)

func extractSymbols(t *testing.T, src string) []models.SymbolRecord {
	t.Helper()
	p := NewPythonLanguageParser()
	tree, err := p.Parse([]byte(src), "f.py")
	require.NoError(t, err)
	require.NotNil(t, tree)
	defer tree.Close()
	return NewPythonSymbolExtractor().Extract(tree, "f.py")
}

func TestExtractFunctionSignature(t *testing.T) {
	syms := extractSymbols(t, "def foo(x):\n    return x\n")
	require.Len(t, syms, 1)
	assert.Equal(t, "foo", syms[0].Name)
	assert.Equal(t, models.KindFunction, syms[0].Kind)
	assert.Equal(t, "foo(x)", syms[0].Signature)
}

func TestExtractSignatureChange(t *testing.T) {
	syms := extractSymbols(t, "def foo(x, y):\n    return x + y\n")
	require.Len(t, syms, 1)
	assert.Equal(t, "foo(x, y)", syms[0].Signature)
}

func TestExtractFullParameterShape(t *testing.T) {
	syms := extractSymbols(t, "def foo(a, b, /, c, *args, d, **kwargs):\n    pass\n")
	require.Len(t, syms, 1)
	assert.Equal(t, "foo(a, b, /, c, *args, d, **kwargs)", syms[0].Signature)
}

func TestExtractClassAndMethod(t *testing.T) {
	syms := extractSymbols(t, "class Bar:\n    def baz(self):\n        pass\n")
	require.Len(t, syms, 2)
	assert.Equal(t, "Bar", syms[0].Name)
	assert.Equal(t, models.KindClass, syms[0].Kind)
	assert.Equal(t, "baz", syms[1].Name)
	assert.Equal(t, models.KindMethod, syms[1].Kind)
	assert.Equal(t, "Bar", syms[1].ParentClass)
}

func TestExtractTopLevelConstant(t *testing.T) {
	syms := extractSymbols(t, "MAX = 10\nMAX = 20\n")
	require.Len(t, syms, 1)
	assert.Equal(t, models.KindConstant, syms[0].Kind)
	assert.Equal(t, "MAX", syms[0].Name)
}

func TestExtractIgnoresClassBodyAssignment(t *testing.T) {
	syms := extractSymbols(t, "class C:\n    X = 1\n")
	require.Len(t, syms, 1)
	assert.Equal(t, "C", syms[0].Name)
}

func TestExtractDecorators(t *testing.T) {
	syms := extractSymbols(t, "@staticmethod\n@another\ndef foo():\n    pass\n")
	require.Len(t, syms, 1)
	assert.Equal(t, []string{"staticmethod", "another"}, syms[0].Decorators)
}

func TestExtractDocstring(t *testing.T) {
	syms := extractSymbols(t, "def foo():\n    \"\"\"does a thing.\"\"\"\n    pass\n")
	require.Len(t, syms, 1)
	assert.Equal(t, "does a thing.", syms[0].Docstring)
}

func TestExtractAsyncFunction(t *testing.T) {
	syms := extractSymbols(t, "async def foo():\n    pass\n")
	require.Len(t, syms, 1)
	assert.Equal(t, "async foo()", syms[0].Signature)
}

func TestExtractDeterminism(t *testing.T) {
	src := "class A:\n    def m(self, x):\n        return x\n\ndef f(y):\n    return y\n"
	a := extractSymbols(t, src)
	b := extractSymbols(t, src)
	assert.Equal(t, a, b)
}

func TestSupportsFile(t *testing.T) {
	p := NewPythonLanguageParser()
	assert.True(t, p.SupportsFile("a/b.py"))
	assert.True(t, p.SupportsFile("a/b.pyi"))
	assert.False(t, p.SupportsFile("a/b.go"))
}

func TestRegistryFailsClosedForUnsupportedExtension(t *testing.T) {
	r := NewRegistry()
	_, _, ok := r.For("main.go")
	assert.False(t, ok)
	_, _, ok = r.For("main.py")
	assert.True(t, ok)
}
