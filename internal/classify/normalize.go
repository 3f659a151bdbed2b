// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mlsec/paper-curator/pkg/types"
)

// parseFailureMarker prefixes the reasoning of every locally synthesized
// fallback so downstream consumers can audit degraded results.
const parseFailureMarker = "unparseable response: "

// rawResponseLimit bounds how much of a bad response is kept in the
// fallback reasoning.
const rawResponseLimit = 200

// rawResult is the labeler response shape before validation. stringList
// tolerates the common malformation of a bare string where an array is
// expected.
type rawResult struct {
	Labels     stringList `json:"labels"`
	PaperType  string     `json:"paper_type"`
	Domains    stringList `json:"domains"`
	ModelTypes stringList `json:"model_types"`
	Tags       stringList `json:"tags"`
	Confidence string     `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
}

// stringList unmarshals from either a JSON array of strings or a single
// string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = []string{one}
	return nil
}

// Fallback builds the canonical result for a response that could not be
// used: labels NONE, paper type unknown, low confidence, and the truncated
// raw response preserved behind the parse-failure marker.
func Fallback(raw string) types.Classification {
	return types.Classification{
		Labels:     []string{"NONE"},
		PaperType:  "unknown",
		Confidence: types.ConfidenceLow,
		Reasoning:  parseFailureMarker + truncate(raw, rawResponseLimit),
		Fallback:   true,
	}
}

// Normalize validates a raw labeler response and produces a classification
// that honors the taxonomy contract. It never returns an error: a response
// that fails to parse degrades to the canonical fallback.
func Normalize(raw string, hasAbstract bool) types.Classification {
	body, ok := extractJSON(raw)
	if !ok {
		return Fallback(raw)
	}

	var rr rawResult
	if err := json.Unmarshal([]byte(body), &rr); err != nil {
		return Fallback(raw)
	}

	var flags []string

	labels, labelFlags := normalizeLabels(rr.Labels)
	flags = append(flags, labelFlags...)

	paperType := canonicalPaperType(rr.PaperType)
	if paperType == "unknown" && strings.TrimSpace(rr.PaperType) != "" {
		flags = append(flags, fmt.Sprintf("unrecognized paper_type %q", rr.PaperType))
	}

	confidence := types.Confidence(strings.ToLower(strings.TrimSpace(rr.Confidence)))
	if !confidence.Valid() {
		if hasAbstract {
			confidence = types.ConfidenceHigh
		} else {
			confidence = types.ConfidenceLow
		}
	}

	return types.Classification{
		Labels:     labels,
		PaperType:  paperType,
		Domains:    cleanTags(rr.Domains),
		ModelTypes: cleanTags(rr.ModelTypes),
		Tags:       cleanTags(rr.Tags),
		Confidence: confidence,
		Reasoning:  strings.TrimSpace(rr.Reasoning),
		Flags:      flags,
	}
}

// normalizeLabels validates label codes, deduplicates them preserving
// order, resolves NONE-exclusivity by dropping NONE, and caps the list.
func normalizeLabels(candidates []string) ([]string, []string) {
	var flags []string
	var labels []string
	seen := map[string]bool{}
	for _, c := range candidates {
		code := canonicalLabel(c)
		if code == "" {
			if strings.TrimSpace(c) != "" {
				flags = append(flags, fmt.Sprintf("dropped invalid label %q", c))
			}
			continue
		}
		if !seen[code] {
			seen[code] = true
			labels = append(labels, code)
		}
	}

	// NONE never accompanies a real category.
	if len(labels) > 1 && seen["NONE"] {
		kept := labels[:0]
		for _, l := range labels {
			if l != "NONE" {
				kept = append(kept, l)
			}
		}
		labels = kept
		flags = append(flags, "dropped NONE alongside real labels")
	}

	if len(labels) == 0 {
		labels = []string{"NONE"}
		flags = append(flags, "no valid labels in response")
	}

	if len(labels) > maxLabels {
		flags = append(flags, fmt.Sprintf("label list capped at %d (response had %d)", maxLabels, len(labels)))
		labels = labels[:maxLabels]
	}

	return labels, flags
}

// extractJSON returns the first balanced brace-delimited substring of s.
// The labeler is asked for bare JSON but responses commonly arrive wrapped
// in prose or markdown fences; scanning for the first balanced object
// tolerates both. String literals are honored so braces inside values do
// not unbalance the scan.
func extractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func cleanTags(in []string) []string {
	var out []string
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
