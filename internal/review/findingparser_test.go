package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFindingsEmptyText(t *testing.T) {
	assert.Empty(t, ParseFindings("", "a.py"))
	assert.Empty(t, ParseFindings("   ", "a.py"))
}

func TestParseFindingsDefaultsOnUnstructuredText(t *testing.T) {
	findings := ParseFindings("just a short note", "a.py")
	require.Len(t, findings, 1)
	assert.Equal(t, "info", findings[0].Severity)
	assert.Equal(t, "style", findings[0].Category)
}

func TestParseFindingsSplitsHeadingBlocks(t *testing.T) {
	text := "# Error: null check missing\nThis is a correctness bug at line 42.\n# Warning: style nit\nConsider renaming this variable for clarity."
	findings := ParseFindings(text, "a.py")
	require.Len(t, findings, 2)
	assert.Equal(t, "error", findings[0].Severity)
	assert.Equal(t, 42, findings[0].LocationLineStart)
	assert.Equal(t, "warn", findings[1].Severity)
}

func TestParseFindingsDiscardsShortBlocks(t *testing.T) {
	text := "tiny\n# Warning: a real observation about performance here that is long enough"
	findings := ParseFindings(text, "a.py")
	require.Len(t, findings, 1)
	assert.Equal(t, "performance", findings[0].Category)
}

func TestParseFindingsCategoryDefaultsToStyle(t *testing.T) {
	text := "# Info: this is a generic note with no category keywords present at all here"
	findings := ParseFindings(text, "a.py")
	require.Len(t, findings, 1)
	assert.Equal(t, "style", findings[0].Category)
}

func TestParseFindingsTestMapsToCorrectness(t *testing.T) {
	text := "# Warning: missing test coverage for this branch of the function entirely"
	findings := ParseFindings(text, "a.py")
	require.Len(t, findings, 1)
	assert.Equal(t, "correctness", findings[0].Category)
}
