// Package vcs defines the Checkout provider contract the review pipeline
// consumes, plus a git-backed implementation. Posting results back to a
// hosting provider (PR comments, status checks) is explicitly out of scope
// (see SPEC_FULL.md §1); only the minimal checkout contract lives here.
package vcs

import (
	"context"

	"impactreview/internal/models"
)

// Provider is the Checkout provider contract: file-level changes between a
// base and head ref, plus the two worktree paths the rest of the pipeline
// reads source from.
type Provider interface {
	// FileChanges returns the file-level changes for ref.
	FileChanges(ctx context.Context, ref models.PullRequestRef) ([]models.FileChange, error)
	// BaseWorktreePath returns a local filesystem path checked out at ref.BaseRef.
	BaseWorktreePath(ctx context.Context, ref models.PullRequestRef) (string, error)
	// HeadWorktreePath returns a local filesystem path checked out at ref.HeadRef.
	HeadWorktreePath(ctx context.Context, ref models.PullRequestRef) (string, error)
}

// LanguageExtensions maps a language tag to the file extensions that belong
// to it, e.g. "python" -> [".py", ".pyi"] (see SPEC_FULL.md §6).
type LanguageExtensions map[string][]string

// DefaultLanguageExtensions is the extension mapping this module ships with.
func DefaultLanguageExtensions() LanguageExtensions {
	return LanguageExtensions{"python": {".py", ".pyi"}}
}

// ExtensionToLanguage inverts a LanguageExtensions mapping.
func ExtensionToLanguage(le LanguageExtensions) map[string]string {
	out := make(map[string]string)
	for lang, exts := range le {
		for _, ext := range exts {
			out[ext] = lang
		}
	}
	return out
}
