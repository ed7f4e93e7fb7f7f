package vcs

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"impactreview/internal/logging"
	"impactreview/internal/models"
)

// GitProvider shells out to git to materialize worktrees and list file
// changes. Every command runs with cmd.Dir set to the repository root and
// exec.CommandContext, so a caller-supplied context governs cancellation —
// the same idiom the git history scanner uses.
type GitProvider struct {
	worktreeRoot string
	extensions   map[string]string // ext -> language

	mu        sync.Mutex
	worktrees map[string]string // "<id>:base" / "<id>:head" -> path
}

// NewGitProvider constructs a GitProvider whose worktrees live under worktreeRoot.
func NewGitProvider(worktreeRoot string, languages LanguageExtensions) *GitProvider {
	if languages == nil {
		languages = DefaultLanguageExtensions()
	}
	return &GitProvider{
		worktreeRoot: worktreeRoot,
		extensions:   ExtensionToLanguage(languages),
		worktrees:    make(map[string]string),
	}
}

func (g *GitProvider) runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

func (g *GitProvider) worktreePath(ctx context.Context, ref models.PullRequestRef, which, gitRef string) (string, error) {
	key := ref.ID + ":" + which
	g.mu.Lock()
	if p, ok := g.worktrees[key]; ok {
		g.mu.Unlock()
		return p, nil
	}
	g.mu.Unlock()

	dir := filepath.Join(g.worktreeRoot, ref.ID, which)
	if _, err := os.Stat(dir); err == nil {
		g.mu.Lock()
		g.worktrees[key] = dir
		g.mu.Unlock()
		return dir, nil
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return "", fmt.Errorf("create worktree parent: %w", err)
	}
	logging.VCSDebug("adding worktree %s at %s", dir, gitRef)
	if _, err := g.runGit(ctx, ref.RepoRoot, "worktree", "add", "--detach", dir, gitRef); err != nil {
		return "", fmt.Errorf("checkout %s: %w", which, err)
	}

	g.mu.Lock()
	g.worktrees[key] = dir
	g.mu.Unlock()
	return dir, nil
}

func (g *GitProvider) BaseWorktreePath(ctx context.Context, ref models.PullRequestRef) (string, error) {
	return g.worktreePath(ctx, ref, "base", ref.BaseRef)
}

func (g *GitProvider) HeadWorktreePath(ctx context.Context, ref models.PullRequestRef) (string, error) {
	return g.worktreePath(ctx, ref, "head", ref.HeadRef)
}

// FileChanges runs `git diff --name-status` between base and head and
// parses the result into FileChanges.
func (g *GitProvider) FileChanges(ctx context.Context, ref models.PullRequestRef) ([]models.FileChange, error) {
	out, err := g.runGit(ctx, ref.RepoRoot, "diff", "--name-status", "-M", ref.BaseRef, ref.HeadRef)
	if err != nil {
		return nil, err
	}

	var changes []models.FileChange
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		status := fields[0]
		fc := models.FileChange{}
		switch {
		case status == "A":
			fc.ChangeType = models.FileAdded
			fc.Path = fields[1]
		case status == "D":
			fc.ChangeType = models.FileRemoved
			fc.Path = fields[1]
		case status == "M":
			fc.ChangeType = models.FileModified
			fc.Path = fields[1]
		case strings.HasPrefix(status, "R"):
			fc.ChangeType = models.FileRenamed
			if len(fields) < 3 {
				continue
			}
			fc.OldPath = fields[1]
			fc.Path = fields[2]
		case strings.HasPrefix(status, "C"):
			fc.ChangeType = models.FileCopied
			if len(fields) < 3 {
				continue
			}
			fc.OldPath = fields[1]
			fc.Path = fields[2]
		default:
			continue
		}
		fc.Language = g.extensions[filepath.Ext(fc.Path)]
		changes = append(changes, fc)
	}
	logging.VCS("resolved %d file changes for %s..%s", len(changes), ref.BaseRef, ref.HeadRef)
	return changes, nil
}
