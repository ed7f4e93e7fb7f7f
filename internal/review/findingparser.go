package review

import (
	"regexp"
	"strings"

	"impactreview/internal/models"
)

var blockSplitPattern = regexp.MustCompile(`\n(?:#{1,3}\s|\*\*|-\s*(?:Error|Warning|Info|Suggestion))`)
var lineNumberPattern = regexp.MustCompile(`(?i)(?:line|L)\s*(\d+)`)

type severityKeyword struct {
	keyword  string
	severity string
}

var severityKeywords = []severityKeyword{
	{"error", "error"},
	{"warning", "warn"},
	{"warn", "warn"},
	{"info", "info"},
	{"suggestion", "info"},
}

var categoryKeywords = []string{"correctness", "security", "performance", "style", "test"}

// ParseFindings heuristically splits LLM text into findings. It never
// errors: an empty or unparseable response yields an empty slice, and a
// non-empty response with no qualifying block yields a single
// default-severity finding (SPEC_FULL.md §4.9).
func ParseFindings(text string, locationFile string) []models.ReviewFinding {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	blocks := splitBlocks(trimmed)
	var findings []models.ReviewFinding
	for _, block := range blocks {
		if len(strings.TrimSpace(block)) < 10 {
			continue
		}
		findings = append(findings, parseBlock(block, locationFile))
	}

	if len(findings) == 0 {
		findings = append(findings, models.ReviewFinding{
			Severity:     "info",
			Category:     "style",
			LocationFile: locationFile,
			Message:      truncate(trimmed, 500),
		})
	}

	return findings
}

func splitBlocks(text string) []string {
	// Split before each match, dropping only the newline, so the heading
	// or severity leader stays at the start of its block.
	var parts []string
	start := 0
	for _, loc := range blockSplitPattern.FindAllStringIndex(text, -1) {
		parts = append(parts, text[start:loc[0]])
		start = loc[0] + 1
	}
	parts = append(parts, text[start:])
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBlock(block, locationFile string) models.ReviewFinding {
	scanWindow := block
	if len(scanWindow) > 200 {
		scanWindow = scanWindow[:200]
	}
	lower := strings.ToLower(scanWindow)

	severity := "info"
	for _, sk := range severityKeywords {
		if strings.Contains(lower, sk.keyword) {
			severity = sk.severity
			break
		}
	}

	category := "style"
	for _, kw := range categoryKeywords {
		if strings.Contains(lower, kw) {
			if kw == "test" {
				category = "correctness"
			} else {
				category = kw
			}
			break
		}
	}

	finding := models.ReviewFinding{
		Severity:     severity,
		Category:     category,
		LocationFile: locationFile,
		Message:      truncate(strings.TrimSpace(block), 500),
	}

	if m := lineNumberPattern.FindStringSubmatch(block); m != nil {
		if n := parseIntSafe(m[1]); n > 0 {
			finding.LocationLineStart = n
			finding.LocationLineEnd = n
		}
	}

	return finding
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func parseIntSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
