package graph

import (
	"strings"
	"unicode/utf8"
)

// ============================================================================
// Label Normalization
// ============================================================================

// normalizeLabel builds the entity dedup key: surrounding whitespace
// removed, case folded
func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// truncateLabel cuts text to limit runes and appends Ellipsis when
// anything was cut
func truncateLabel(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	count := 0
	for i := range text {
		if count == limit {
			return text[:i] + Ellipsis
		}
		count++
	}
	return text
}
