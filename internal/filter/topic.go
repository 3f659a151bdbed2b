// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"fmt"

	"github.com/mlsec/paper-curator/internal/domain"
	"github.com/mlsec/paper-curator/pkg/types"
)

// TopicDominanceFilter rejects papers where the target topic is mentioned
// but is not the primary focus, such as a watermarking paper that cites
// model stealing once as motivation.
//
// A competing topic is dominant when its mention count exceeds the absolute
// per-topic threshold, or exceeds the target count scaled by the dominance
// ratio. Both checks are kept deliberately even though they overlap: the
// first catches absolute dominance, the second relative dominance
// (docs/ARCHITECTURE.md § Filtering records the rationale). A target count
// of zero with any competing mentions is automatically dominant.
type TopicDominanceFilter struct{}

// Name returns the filter identifier.
func (TopicDominanceFilter) Name() string { return "topic_dominance" }

// Evaluate compares target-topic and competing-topic mention counts.
func (TopicDominanceFilter) Evaluate(paper types.Paper, rules *domain.Ruleset) Verdict {
	if !paper.HasAbstract() {
		// The relevance filter rejects abstract-less papers before this
		// filter runs; standing alone it cannot judge dominance.
		return Accept("cannot judge topic dominance without an abstract", types.ConfidenceLow)
	}

	abstract := paper.AbstractLower()
	targetCount := countTerms(abstract, rules.RequiredAbstractTerms)

	for _, topic := range rules.OtherTopics {
		count := countTerms(abstract, topic.Terms)
		if count == 0 {
			continue
		}
		if dominant(count, targetCount, rules.Rules) {
			return Reject(
				fmt.Sprintf("competing topic %q dominates: %d mentions vs %d target mentions",
					topic.Name, count, targetCount),
				types.ConfidenceMedium,
			)
		}
	}

	opening := firstN(abstract, rules.Rules.FirstParagraphLength)
	if countTerms(opening, rules.RequiredAbstractTerms) == 0 {
		for _, topic := range rules.OtherTopics {
			if containsAny(opening, topic.Terms) {
				return Reject(
					fmt.Sprintf("competing topic %q introduced before target topic", topic.Name),
					types.ConfidenceLow,
				)
			}
		}
	}

	return Accept("target topic is primary focus", types.ConfidenceHigh)
}

// dominant applies the absolute-threshold and ratio checks, OR-combined.
func dominant(competing, target int, rules domain.Rules) bool {
	if competing > rules.TopicDominanceThreshold {
		return true
	}
	if target == 0 {
		// Any competing mentions dominate a topic never mentioned.
		return competing > 0
	}
	return float64(competing) > float64(target)*rules.DominanceRatio
}
