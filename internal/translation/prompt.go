package translation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// tokensPerKeyword is the completion budget granted per keyword
	tokensPerKeyword = 20
	// maxCompletionTokens caps the budget of a single request
	maxCompletionTokens = 4000
)

// DefaultTargetLanguage is the language keywords are translated into
const DefaultTargetLanguage = "Chinese"

// BuildPrompt lists each keyword with its 1-based position in the batch
func BuildPrompt(keywords []string, targetLanguage string) string {
	if targetLanguage == "" {
		targetLanguage = DefaultTargetLanguage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following keywords into %s. Reply with one translation per line, "+
		"keeping the same numbered format. Whatever the source language is, every line must be in %s:\n\n",
		targetLanguage, targetLanguage)
	for i, kw := range keywords {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, kw)
	}
	return b.String()
}

// MaxTokensFor scales the completion budget with the batch size so that
// long batches are not cut off
func MaxTokensFor(n int) int {
	return max(1, min(n*tokensPerKeyword, maxCompletionTokens))
}

var (
	numberPrefix = regexp.MustCompile(`^\d+\.\s*`)
	quoteEnds    = regexp.MustCompile(`^["']|["']$`)
)

// ResolveTranslation cleans one reply line: a leading "<n>." prefix and
// one quote character at each end are removed. An empty result falls back
// to fallback.
func ResolveTranslation(rawLine, fallback string) string {
	s := numberPrefix.ReplaceAllString(rawLine, "")
	s = quoteEnds.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

// ParseTranslations maps the reply back onto keywords, line by line after
// blank lines are dropped. The result always has len(keywords) entries;
// missing lines fall back to the keyword itself.
func ParseTranslations(content string, keywords []string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	out := make([]string, len(keywords))
	for i, kw := range keywords {
		raw := ""
		if i < len(lines) {
			raw = lines[i]
		}
		out[i] = ResolveTranslation(raw, kw)
	}
	return out
}
