package review

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctxassemble "impactreview/internal/context"
	"impactreview/internal/graph"
	"impactreview/internal/llm"
	"impactreview/internal/models"
	"impactreview/internal/promptcompose"
	"impactreview/internal/retrieval"
)

type fakeProvider struct {
	changes      []models.FileChange
	basePath     string
	headPath     string
	changesErr   error
	checkoutErr  error
}

func (f *fakeProvider) FileChanges(ctx context.Context, ref models.PullRequestRef) ([]models.FileChange, error) {
	return f.changes, f.changesErr
}
func (f *fakeProvider) BaseWorktreePath(ctx context.Context, ref models.PullRequestRef) (string, error) {
	return f.basePath, f.checkoutErr
}
func (f *fakeProvider) HeadWorktreePath(ctx context.Context, ref models.PullRequestRef) (string, error) {
	return f.headPath, f.checkoutErr
}

type fakeHistory struct {
	saved bool
}

func (h *fakeHistory) Save(ctx context.Context, prID string, result models.ReviewResult) error {
	h.saved = true
	return nil
}

func newTestOrchestrator(provider *fakeProvider, adapter llm.Adapter, history HistoryStore) *Orchestrator {
	return NewOrchestrator(provider, adapter, retrieval.DefaultConfig(), ctxassemble.DefaultAssemblerConfig(), promptcompose.DefaultConfig(), history)
}

func TestRunFailsFastOnFileChangesError(t *testing.T) {
	provider := &fakeProvider{changesErr: errors.New("network down")}
	o := newTestOrchestrator(provider, llm.DegradedAdapter{}, nil)
	result := o.Run(context.Background(), models.PullRequestRef{ID: "pr-1"}, models.ModeBatched)
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Summary, "Failed to get file changes")
}

func TestRunFailsFastOnCheckoutError(t *testing.T) {
	provider := &fakeProvider{checkoutErr: errors.New("worktree add failed")}
	o := newTestOrchestrator(provider, llm.DegradedAdapter{}, nil)
	result := o.Run(context.Background(), models.PullRequestRef{ID: "pr-1"}, models.ModeBatched)
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Summary, "Failed to checkout base/head")
}

func TestRunWithNoSupportedFilesReturnsCompletedEmpty(t *testing.T) {
	base, head := t.TempDir(), t.TempDir()
	provider := &fakeProvider{
		changes:  []models.FileChange{{Path: "README.md", ChangeType: models.FileModified, Language: ""}},
		basePath: base,
		headPath: head,
	}
	history := &fakeHistory{}
	o := newTestOrchestrator(provider, llm.DegradedAdapter{}, history)
	result := o.Run(context.Background(), models.PullRequestRef{ID: "pr-2"}, models.ModeBatched)

	require.Equal(t, models.StatusCompleted, result.Status)
	assert.Empty(t, result.Findings)
	assert.True(t, history.saved)
}

func TestRunUnknownModeFallsBackToBatched(t *testing.T) {
	base, head := t.TempDir(), t.TempDir()
	provider := &fakeProvider{basePath: base, headPath: head}
	o := newTestOrchestrator(provider, llm.DegradedAdapter{}, nil)
	result := o.Run(context.Background(), models.PullRequestRef{ID: "pr-3"}, models.ReviewMode("bogus"))
	assert.Equal(t, models.StatusCompleted, result.Status)
}

func TestResolveNodeIDDirectMatch(t *testing.T) {
	store := graph.New()
	store.AddNode(models.GraphNode{ID: "a.py::foo", FilePath: "a.py", SymbolName: "foo"})
	change := models.SymbolChange{FilePath: "a.py", SymbolName: "foo"}
	assert.Equal(t, "a.py::foo", resolveNodeID(store, change))
}

func TestResolveNodeIDFallsBackToMethodSuffix(t *testing.T) {
	store := graph.New()
	store.AddNode(models.GraphNode{ID: "a.py::Widget.render", FilePath: "a.py", SymbolName: "Widget.render"})
	change := models.SymbolChange{FilePath: "a.py", SymbolName: "render"}
	assert.Equal(t, "a.py::Widget.render", resolveNodeID(store, change))
}

func TestResolveNodeIDNoMatchReturnsEmpty(t *testing.T) {
	store := graph.New()
	store.AddNode(models.GraphNode{ID: "b.py::other", FilePath: "b.py", SymbolName: "other"})
	change := models.SymbolChange{FilePath: "a.py", SymbolName: "foo"}
	assert.Equal(t, "", resolveNodeID(store, change))
}

func TestRankSkippedFilesPrioritizesKeywordOverlap(t *testing.T) {
	head := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(head, "a.py"), []byte("def widget_loader(): pass"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(head, "widget.yaml"), []byte("widget_loader:\n  enabled: true\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(head, "unrelated.md"), []byte("# nothing to see here\n"), 0o644))

	o := newTestOrchestrator(&fakeProvider{}, llm.DegradedAdapter{}, nil)
	changes := []models.SymbolChange{{FilePath: "a.py", SymbolName: "widget_loader"}}
	ranked := o.rankSkippedFiles(head, "", []string{"widget.yaml", "unrelated.md"}, changes)

	require.Len(t, ranked, 2)
	assert.Equal(t, "widget.yaml", ranked[0])
	assert.Equal(t, "unrelated.md", ranked[1])
}

func TestRankSkippedFilesEmptyWhenNoneSkipped(t *testing.T) {
	o := newTestOrchestrator(&fakeProvider{}, llm.DegradedAdapter{}, nil)
	assert.Nil(t, o.rankSkippedFiles(t.TempDir(), "", nil, nil))
}
