package card

import (
	"regexp"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize normalizes a name or keyword:
// 1. Trim leading/trailing whitespace
// 2. Lowercase
// 3. Collapse internal whitespace to single spaces
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return s
}

// NormalizeKeywords normalizes each keyword and deduplicates while
// preserving first-seen order. Empty entries are dropped.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	result := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = Normalize(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		result = append(result, kw)
	}
	return result
}

// SharedKeywords returns the normalized keywords present in both sets,
// in a's order.
func SharedKeywords(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, kw := range NormalizeKeywords(b) {
		inB[kw] = true
	}
	var shared []string
	for _, kw := range NormalizeKeywords(a) {
		if inB[kw] {
			shared = append(shared, kw)
		}
	}
	return shared
}

// MergeKeywords unions two keyword sets, preserving a's order then
// appending new entries from b.
func MergeKeywords(a, b []string) []string {
	return NormalizeKeywords(append(append([]string{}, a...), b...))
}
