// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"fmt"

	"github.com/mlsec/paper-curator/internal/domain"
	"github.com/mlsec/paper-curator/pkg/types"
)

// RelevanceFilter confirms the paper actually discusses the target domain
// rather than adjacent vocabulary. It is the primary gate and requires an
// abstract: a paper without one cannot be verified and is rejected.
//
// A single high-quality keyword accepts outright; it dominates every other
// signal because the exclusion filter has already rejected the unambiguous
// false positives. Otherwise the combined count of core keywords and
// required abstract terms must reach the ruleset's minimum.
type RelevanceFilter struct{}

// Name returns the filter identifier.
func (RelevanceFilter) Name() string { return "relevance" }

// Evaluate applies the relevance gate to the paper's abstract.
func (RelevanceFilter) Evaluate(paper types.Paper, rules *domain.Ruleset) Verdict {
	if !paper.HasAbstract() {
		return Reject("no abstract to verify relevance", types.ConfidenceHigh)
	}

	abstract := paper.AbstractLower()

	if countTerms(abstract, rules.HighQualityKeywords) >= 1 {
		return Accept(
			fmt.Sprintf("strong %s indicators present", rules.DisplayName()),
			types.ConfidenceHigh,
		)
	}

	mentions := countTerms(abstract, rules.CoreKeywords) + countTerms(abstract, rules.RequiredAbstractTerms)
	if mentions < rules.Rules.MinTermMentions {
		return Reject("insufficient domain terminology in abstract", types.ConfidenceHigh)
	}

	return Accept(
		fmt.Sprintf("%s terminology present without a high-quality signal", rules.DisplayName()),
		types.ConfidenceMedium,
	)
}
