// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import "strings"

// Taxonomy vocabularies. Labels follow the OWASP Machine Learning Security
// Top 10 codes; "NONE" marks a paper outside the taxonomy and is mutually
// exclusive with every real label.

// maxLabels caps the label list. A survey may legitimately carry several
// labels; anything beyond the cap is recorded in the normalization flags
// rather than silently dropped.
const maxLabels = 5

// labelCodes lists valid label codes in canonical order.
var labelCodes = []string{
	"ML01", "ML02", "ML03", "ML04", "ML05",
	"ML06", "ML07", "ML08", "ML09", "ML10",
	"NONE",
}

var validLabels = func() map[string]bool {
	m := make(map[string]bool, len(labelCodes))
	for _, c := range labelCodes {
		m[c] = true
	}
	return m
}()

var validPaperTypes = map[string]bool{
	"attack":      true,
	"defense":     true,
	"survey":      true,
	"benchmark":   true,
	"tool":        true,
	"theoretical": true,
	"empirical":   true,
}

// canonicalLabel normalizes a candidate label code. When the trimmed,
// uppercased value is not itself valid, a valid code embedded in it (e.g.
// "ML05: Model Theft") is extracted. Returns "" when nothing matches.
func canonicalLabel(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if validLabels[s] {
		return s
	}
	for _, code := range labelCodes {
		if strings.Contains(s, code) {
			return code
		}
	}
	return ""
}

// canonicalPaperType normalizes a paper-type tag, mapping anything outside
// the fixed enumeration to "unknown".
func canonicalPaperType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if validPaperTypes[s] {
		return s
	}
	return "unknown"
}
