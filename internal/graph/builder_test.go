package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactreview/internal/models"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestBuildIntraFileCallEdge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def helper():\n    pass\n\ndef user():\n    helper()\n")

	store, err := NewBuilder().Build(dir)
	require.NoError(t, err)

	_, ok := store.GetNode("a.py::user")
	require.True(t, ok)
	_, ok = store.GetNode("a.py::helper")
	require.True(t, ok)

	outs := store.NeighborsOut("a.py::user", models.EdgeCalls)
	assert.Contains(t, outs, "a.py::helper")
}

func TestBuildTestFileEdge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "foo.py", "def run():\n    pass\n")
	writeFile(t, dir, "test_foo.py", "from foo import run\n\ndef test_run():\n    run()\n")

	store, err := NewBuilder().Build(dir)
	require.NoError(t, err)

	testModNode, ok := store.GetNode("test_foo")
	require.True(t, ok)
	assert.True(t, testModNode.IsTestFile)

	outs := store.NeighborsOut("test_foo", models.EdgeTests)
	assert.Contains(t, outs, "foo")
}

func TestBuildInheritsEdge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "class Base:\n    pass\n\nclass Child(Base):\n    pass\n")

	store, err := NewBuilder().Build(dir)
	require.NoError(t, err)

	outs := store.NeighborsOut("a.py::Child", models.EdgeInherits)
	assert.Contains(t, outs, "a.py::Base")
}

func TestBuildModuleNodeForEveryFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pkg/sub.py", "X = 1\n")

	store, err := NewBuilder().Build(dir)
	require.NoError(t, err)

	node, ok := store.GetNode("pkg.sub")
	require.True(t, ok)
	assert.Equal(t, models.KindModule, node.Kind)
}

func TestBuildEdgesNeverReferenceMissingNodes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def f():\n    undefined_call()\n")

	store, err := NewBuilder().Build(dir)
	require.NoError(t, err)

	outs := store.NeighborsOut("a.py::f", models.EdgeCalls)
	assert.Empty(t, outs, "call to an unresolved name must not create a dangling edge")
}
