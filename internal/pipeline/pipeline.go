// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs ordered filter chains over candidate papers and
// aggregates the outcomes. Processing is single-pass per paper with no
// shared mutable state, so batches can fan out across workers and still
// yield verdicts identical to sequential evaluation.
// See docs/ARCHITECTURE.md § Filtering.
package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mlsec/paper-curator/internal/domain"
	"github.com/mlsec/paper-curator/internal/filter"
	"github.com/mlsec/paper-curator/pkg/types"
)

// inputStage names the synthetic verdict recorded for papers that fail
// input validation before any filter runs.
const inputStage = "input"

// StageVerdict pairs a filter verdict with the stage that produced it.
type StageVerdict struct {
	Stage          string `json:"stage" yaml:"stage"`
	filter.Verdict `yaml:",inline"`
}

// Result is the aggregated outcome of running the filter chain over one
// paper. Verdicts holds only the stages actually evaluated: the chain stops
// at the first rejection, so a rejected paper's last verdict is the
// rejecting one.
type Result struct {
	Paper    types.Paper    `json:"paper" yaml:"paper"`
	Relevant bool           `json:"relevant" yaml:"relevant"`
	Verdicts []StageVerdict `json:"verdicts" yaml:"verdicts"`
}

// Final returns the verdict that produced the final decision.
func (r Result) Final() StageVerdict {
	return r.Verdicts[len(r.Verdicts)-1]
}

// Pipeline evaluates an ordered filter chain. The chain is fixed at
// construction; callers may supply any filters in any order as long as
// there is at least one.
type Pipeline struct {
	filters []filter.Filter
}

// New builds a pipeline from the given filters in evaluation order.
func New(filters ...filter.Filter) (*Pipeline, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one filter")
	}
	return &Pipeline{filters: filters}, nil
}

// Default returns a pipeline with the standard chain:
// exclusion, relevance, topic dominance.
func Default() *Pipeline {
	return &Pipeline{filters: filter.Default()}
}

// Process evaluates the chain strictly in order over one paper, stopping at
// the first rejection. A paper with an empty title never reaches the
// filters: it is rejected with a dedicated input verdict and the run
// continues. Process is deterministic for fixed inputs.
func (pl *Pipeline) Process(paper types.Paper, rules *domain.Ruleset) Result {
	if paper.Title == "" {
		return Result{
			Paper: paper,
			Verdicts: []StageVerdict{{
				Stage:   inputStage,
				Verdict: filter.Reject("missing required field: title", types.ConfidenceHigh),
			}},
		}
	}

	res := Result{Paper: paper}
	for _, f := range pl.filters {
		v := f.Evaluate(paper, rules)
		res.Verdicts = append(res.Verdicts, StageVerdict{Stage: f.Name(), Verdict: v})
		if !v.Relevant {
			return res
		}
	}
	res.Relevant = true
	return res
}

// ProcessBatch applies Process to each paper in input order. The optional
// progress callback receives (done, total) after each paper.
func (pl *Pipeline) ProcessBatch(papers []types.Paper, rules *domain.Ruleset, progress func(done, total int)) []Result {
	results := make([]Result, len(papers))
	for i, p := range papers {
		results[i] = pl.Process(p, rules)
		if progress != nil {
			progress(i+1, len(papers))
		}
	}
	return results
}

// ProcessBatchConcurrent fans Process out across at most workers
// goroutines and returns results in input order. Filters are pure and the
// ruleset is read-only, so per-paper verdicts are identical to sequential
// processing. Workers below 2 fall back to ProcessBatch.
func (pl *Pipeline) ProcessBatchConcurrent(ctx context.Context, papers []types.Paper, rules *domain.Ruleset, workers int) ([]Result, error) {
	if workers < 2 {
		return pl.ProcessBatch(papers, rules, nil), nil
	}

	results := make([]Result, len(papers))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range papers {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = pl.Process(p, rules)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
