// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import "strings"

// countTerms sums case-sensitive substring occurrence counts of terms in
// text. Callers pass pre-lowered text and ruleset terms (already lowered at
// load time). Overlapping occurrences of one term are not double-counted.
func countTerms(text string, terms []string) int {
	total := 0
	for _, t := range terms {
		if t == "" {
			continue
		}
		total += strings.Count(text, t)
	}
	return total
}

// containsAny reports whether any term occurs in text.
func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// termIndexes returns the start offsets of every non-overlapping occurrence
// of term in text.
func termIndexes(text, term string) []int {
	if term == "" {
		return nil
	}
	var idxs []int
	for from := 0; ; {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return idxs
		}
		idxs = append(idxs, from+i)
		from += i + len(term)
	}
}

// window returns the slice of text around [start, end) widened by radius
// characters on each side, clamped to the text bounds.
func window(text string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

// firstN returns the leading n bytes of text, or all of it when shorter.
func firstN(text string, n int) string {
	if n >= len(text) {
		return text
	}
	return text[:n]
}
