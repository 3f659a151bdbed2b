// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter implements the relevance-filtering capabilities the
// pipeline composes. Each filter is a pure predicate-with-explanation over
// one paper and one domain ruleset: no I/O, no randomness, no mutation, and
// never an error for a well-formed paper. A missing abstract is a defined
// input each filter handles with its own verdict.
// See docs/ARCHITECTURE.md § Filtering.
package filter

import (
	"github.com/mlsec/paper-curator/internal/domain"
	"github.com/mlsec/paper-curator/pkg/types"
)

// Verdict is one filter's decision over one paper.
type Verdict struct {
	// Relevant is the filter's relevance decision.
	Relevant bool `json:"relevant" yaml:"relevant"`

	// Reason explains the decision. Always non-empty, including for
	// acceptance.
	Reason string `json:"reason" yaml:"reason"`

	// Confidence grades the decision.
	Confidence types.Confidence `json:"confidence" yaml:"confidence"`
}

// Reject builds a rejecting verdict.
func Reject(reason string, c types.Confidence) Verdict {
	return Verdict{Relevant: false, Reason: reason, Confidence: c}
}

// Accept builds an accepting verdict.
func Accept(reason string, c types.Confidence) Verdict {
	return Verdict{Relevant: true, Reason: reason, Confidence: c}
}

// Filter evaluates one paper against one ruleset. Implementations must be
// pure functions of their two inputs so batch evaluation can fan out across
// papers with no coordination.
type Filter interface {
	// Name identifies the filter in pipeline results and statistics.
	Name() string

	// Evaluate returns the filter's verdict for the paper.
	Evaluate(paper types.Paper, rules *domain.Ruleset) Verdict
}

// Default returns the standard filter chain in evaluation order: exclusion
// first (cheapest, unambiguous junk), then relevance (the primary gate,
// requires an abstract), then topic dominance (most expensive, runs only on
// papers that passed the first two).
func Default() []Filter {
	return []Filter{
		ExclusionFilter{},
		RelevanceFilter{},
		TopicDominanceFilter{},
	}
}
