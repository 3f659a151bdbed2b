// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"fmt"

	"github.com/mlsec/paper-curator/internal/domain"
	"github.com/mlsec/paper-curator/pkg/types"
)

// ExclusionFilter cheaply rejects known false-positive patterns before the
// more expensive relevance and dominance checks run.
//
// An exclusion-signal match is neutralized when a core or high-quality
// keyword occurs within the ruleset's context window of the match; a match
// with no rescuing keyword nearby rejects the paper outright. Problematic
// keywords appearing only in the title reject with medium confidence since
// the abstract cannot confirm the topic.
type ExclusionFilter struct{}

// Name returns the filter identifier.
func (ExclusionFilter) Name() string { return "exclusion" }

// Evaluate checks exclusion-signal groups and problematic keywords.
func (ExclusionFilter) Evaluate(paper types.Paper, rules *domain.Ruleset) Verdict {
	title := paper.TitleLower()
	abstract := paper.AbstractLower()

	combined := title
	if abstract != "" {
		combined = title + " " + abstract
	}

	domainTerms := rules.DomainTerms()

	for _, group := range rules.ExclusionSignals {
		if v, rejected := checkSignalGroup(group, combined, domainTerms, rules.Rules.ContextWindow); rejected {
			return v
		}
	}

	for _, kw := range rules.ProblematicKeywords {
		idxs := termIndexes(title, kw)
		if len(idxs) == 0 {
			continue
		}
		if !paper.HasAbstract() {
			return Reject(
				fmt.Sprintf("problematic keyword %q in title with no abstract to confirm", kw),
				types.ConfidenceHigh,
			)
		}
		if len(termIndexes(abstract, kw)) == 0 {
			return Reject(
				fmt.Sprintf("title-only ambiguous match on %q, needs abstract confirmation", kw),
				types.ConfidenceMedium,
			)
		}
	}

	return Accept("no exclusion signal triggered", types.ConfidenceHigh)
}

// checkSignalGroup scans one exclusion group against the combined text. The
// group rejects when any of its terms occurs without a domain keyword inside
// the context window of that occurrence.
func checkSignalGroup(group domain.TermGroup, combined string, domainTerms []string, contextWindow int) (Verdict, bool) {
	for _, term := range group.Terms {
		for _, idx := range termIndexes(combined, term) {
			ctx := window(combined, idx, idx+len(term), contextWindow)
			if !containsAny(ctx, domainTerms) {
				return Reject(
					fmt.Sprintf("exclusion signal %q matched on %q without domain context", group.Name, term),
					types.ConfidenceHigh,
				), true
			}
		}
	}
	return Verdict{}, false
}
