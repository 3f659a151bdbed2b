// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"sort"

	"github.com/mlsec/paper-curator/pkg/types"
)

// maxExamplesPerStage bounds the rejected-paper samples kept per stage.
// Selection is the first N encountered in input order, so reports over
// order-preserved batches are deterministic.
const maxExamplesPerStage = 5

// Example identifies one sampled rejected paper.
type Example struct {
	ID     string `json:"paper_id" yaml:"paper_id"`
	Title  string `json:"title" yaml:"title"`
	Reason string `json:"reason" yaml:"reason"`
}

// RejectionGroup counts rejections sharing a stage and confidence.
type RejectionGroup struct {
	Stage      string           `json:"stage" yaml:"stage"`
	Confidence types.Confidence `json:"confidence" yaml:"confidence"`
	Count      int              `json:"count" yaml:"count"`
}

// Report summarizes a batch of pipeline results for analysis and audit.
// Building a report reads but never mutates the results.
type Report struct {
	Total    int `json:"total" yaml:"total"`
	Accepted int `json:"accepted" yaml:"accepted"`
	Rejected int `json:"rejected" yaml:"rejected"`

	AcceptedByConfidence map[types.Confidence]int `json:"accepted_by_confidence" yaml:"accepted_by_confidence"`
	RejectedByConfidence map[types.Confidence]int `json:"rejected_by_confidence" yaml:"rejected_by_confidence"`

	// Rejections groups rejected verdicts by producing stage and
	// confidence, ordered by count descending then stage name.
	Rejections []RejectionGroup `json:"rejections" yaml:"rejections"`

	// Examples samples rejected papers per stage, first encountered
	// first, at most maxExamplesPerStage each.
	Examples map[string][]Example `json:"examples" yaml:"examples"`
}

// Summarize builds a Report over results in input order.
func Summarize(results []Result) Report {
	rep := Report{
		Total:                len(results),
		AcceptedByConfidence: map[types.Confidence]int{},
		RejectedByConfidence: map[types.Confidence]int{},
		Examples:             map[string][]Example{},
	}

	groups := map[RejectionGroup]int{}
	for _, r := range results {
		final := r.Final()
		if r.Relevant {
			rep.Accepted++
			rep.AcceptedByConfidence[final.Confidence]++
			continue
		}
		rep.Rejected++
		rep.RejectedByConfidence[final.Confidence]++
		groups[RejectionGroup{Stage: final.Stage, Confidence: final.Confidence}]++

		if len(rep.Examples[final.Stage]) < maxExamplesPerStage {
			rep.Examples[final.Stage] = append(rep.Examples[final.Stage], Example{
				ID:     r.Paper.ID,
				Title:  r.Paper.Title,
				Reason: final.Reason,
			})
		}
	}

	for g, n := range groups {
		g.Count = n
		rep.Rejections = append(rep.Rejections, g)
	}
	sort.Slice(rep.Rejections, func(i, j int) bool {
		a, b := rep.Rejections[i], rep.Rejections[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		return a.Confidence.Rank() > b.Confidence.Rank()
	})

	return rep
}

// WriteSummary prints a human-readable report.
func (rep Report) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "Total papers: %d\n", rep.Total)
	if rep.Total == 0 {
		return
	}

	fmt.Fprintf(w, "Accepted: %d (%.1f%%)\n", rep.Accepted, pct(rep.Accepted, rep.Total))
	writeConfidenceCounts(w, rep.AcceptedByConfidence)
	fmt.Fprintf(w, "Rejected: %d (%.1f%%)\n", rep.Rejected, pct(rep.Rejected, rep.Total))
	writeConfidenceCounts(w, rep.RejectedByConfidence)

	if len(rep.Rejections) > 0 {
		fmt.Fprintln(w, "Rejections by stage:")
		for _, g := range rep.Rejections {
			fmt.Fprintf(w, "  %4d  %s (%s)\n", g.Count, g.Stage, g.Confidence)
		}
	}

	stages := make([]string, 0, len(rep.Examples))
	for stage := range rep.Examples {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Fprintf(w, "Sample rejections from %s:\n", stage)
		for _, ex := range rep.Examples[stage] {
			fmt.Fprintf(w, "  %s  %s\n      %s\n", ex.ID, ex.Title, ex.Reason)
		}
	}
}

func writeConfidenceCounts(w io.Writer, counts map[types.Confidence]int) {
	for _, c := range []types.Confidence{types.ConfidenceHigh, types.ConfidenceMedium, types.ConfidenceLow} {
		if counts[c] > 0 {
			fmt.Fprintf(w, "  %s confidence: %d\n", c, counts[c])
		}
	}
}

func pct(n, total int) float64 {
	return float64(n) / float64(total) * 100
}
