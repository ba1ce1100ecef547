// Package tokenizer estimates token counts for providers that do not report
// usage.
package tokenizer

import (
	"strings"
	"unicode/utf8"
)

// CountTokens is a rough estimate: the larger of four runes per token and
// four tokens per three words. Non-empty text counts at least one token.
func CountTokens(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	byRunes := (utf8.RuneCountInString(text) + 3) / 4
	byWords := len(strings.Fields(text)) * 4 / 3
	return max(byRunes, byWords, 1)
}
