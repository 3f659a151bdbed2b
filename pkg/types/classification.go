// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Classification is the normalized result of classification enrichment for
// one accepted paper. All fields have passed validation: labels are drawn
// from the taxonomy, the label list is capped, and "NONE" never appears
// alongside a real label.
type Classification struct {
	// Labels holds taxonomy label codes (e.g. "ML05"), or exactly
	// ["NONE"] when no category applies.
	Labels []string `json:"labels" yaml:"labels"`

	// PaperType is one of the fixed paper-type tags (attack, defense,
	// survey, benchmark, tool, theoretical, empirical) or "unknown".
	PaperType string `json:"paper_type" yaml:"paper_type"`

	// Domains lists application domains (e.g. "vision", "llm").
	Domains []string `json:"domains,omitempty" yaml:"domains,omitempty"`

	// ModelTypes lists model architectures (e.g. "cnn", "transformer").
	ModelTypes []string `json:"model_types,omitempty" yaml:"model_types,omitempty"`

	// Tags holds free-form lowercase topic tags.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Confidence grades the classification.
	Confidence Confidence `json:"confidence" yaml:"confidence"`

	// Reasoning is the labeler's free-text explanation. For fallback
	// results it starts with the parse-failure marker and carries the
	// truncated raw response.
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`

	// Fallback marks results synthesized locally after an unparseable
	// response, call failure, or timeout.
	Fallback bool `json:"fallback,omitempty" yaml:"fallback,omitempty"`

	// Flags records normalization events (dropped labels, capped lists)
	// so nothing is silently discarded.
	Flags []string `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// IsNone reports whether the classification assigns no taxonomy category.
func (c Classification) IsNone() bool {
	return len(c.Labels) == 1 && c.Labels[0] == "NONE"
}
