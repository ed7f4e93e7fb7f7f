package vcs

import "impactreview/internal/models"

// InlineComment is a single line-anchored comment, in the shape most
// hosting-provider review APIs expect (path + line + body). Posting these
// anywhere is out of scope here; this is a pure translation so a caller
// wiring up its own hosting client has no findings-shaped data left to map.
type InlineComment struct {
	Path string
	Line int
	Body string
}

// FindingsToInlineComments converts review findings with a resolved location
// into inline comments, dropping any finding that has no line information.
// Findings that span multiple lines anchor on LocationLineStart.
func FindingsToInlineComments(findings []models.ReviewFinding) []InlineComment {
	var comments []InlineComment
	for _, f := range findings {
		if f.LocationFile == "" || f.LocationLineStart <= 0 {
			continue
		}
		comments = append(comments, InlineComment{
			Path: f.LocationFile,
			Line: f.LocationLineStart,
			Body: formatBody(f),
		})
	}
	return comments
}

func formatBody(f models.ReviewFinding) string {
	prefix := "**" + f.Category + "**"
	if f.Severity != "" {
		prefix = "[" + f.Severity + "] " + prefix
	}
	body := prefix + ": " + f.Message
	if f.SuggestedFix != "" {
		body += "\n\nSuggested fix:\n" + f.SuggestedFix
	}
	return body
}
