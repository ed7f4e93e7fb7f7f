package vcs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"impactreview/internal/models"
)

func TestFindingsToInlineCommentsSkipsUnlocated(t *testing.T) {
	findings := []models.ReviewFinding{
		{LocationFile: "a.py", LocationLineStart: 10, Severity: "warn", Category: "style", Message: "use a constant"},
		{LocationFile: "", LocationLineStart: 0, Message: "no location"},
		{LocationFile: "b.py", LocationLineStart: 0, Message: "no line"},
	}
	comments := FindingsToInlineComments(findings)
	assert.Len(t, comments, 1)
	assert.Equal(t, "a.py", comments[0].Path)
	assert.Equal(t, 10, comments[0].Line)
	assert.Contains(t, comments[0].Body, "use a constant")
}

func TestFindingsToInlineCommentsIncludesSuggestedFix(t *testing.T) {
	findings := []models.ReviewFinding{
		{LocationFile: "a.py", LocationLineStart: 5, Message: "bug", SuggestedFix: "do this instead"},
	}
	comments := FindingsToInlineComments(findings)
	assert.Contains(t, comments[0].Body, "do this instead")
}
