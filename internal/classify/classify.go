// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify enriches accepted papers with multi-label taxonomy
// assignments. The labeling itself is delegated to an external capability;
// this package owns validation and normalization of the response, the
// bounded-concurrency batch runner, and the canonical fallback that absorbs
// call failures, timeouts, and unparseable responses without ever aborting
// a batch.
// See docs/ARCHITECTURE.md § Classification.
package classify

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mlsec/paper-curator/pkg/types"
)

// backoffBase controls the base duration for exponential backoff between
// labeler retries. Tests override this to avoid real sleeps.
var backoffBase = time.Second

const (
	defaultMaxRetries  = 3
	defaultConcurrency = 4
	defaultCallTimeout = 60 * time.Second
)

// Enricher runs classification enrichment over accepted papers.
type Enricher struct {
	labeler Labeler
	cfg     types.ClassifyConfig
}

// NewEnricher builds an Enricher. Zero config values take defaults.
func NewEnricher(labeler Labeler, cfg types.ClassifyConfig) *Enricher {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	return &Enricher{labeler: labeler, cfg: cfg}
}

// ClassifyPaper classifies one paper. It never returns an error: a failed
// or timed-out labeler call, like an unparseable response, degrades to the
// canonical fallback, distinguishable downstream by its Fallback flag and
// low confidence.
func (e *Enricher) ClassifyPaper(ctx context.Context, paper types.Paper) types.Classification {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	raw, err := e.callWithRetry(callCtx, paper)
	if err != nil {
		return Fallback(fmt.Sprintf("labeler call failed: %v", err))
	}
	return Normalize(raw, paper.HasAbstract())
}

// callWithRetry calls the labeler with exponential backoff.
func (e *Enricher) callWithRetry(ctx context.Context, paper types.Paper) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := e.labeler.Classify(ctx, paper)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		// A dead context will not recover; stop retrying.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("after %d retries: %w", e.cfg.MaxRetries, lastErr)
}

// BatchSummary holds counts from a batch classification run.
type BatchSummary struct {
	Classified int
	Fallbacks  int
}

// Total returns the number of papers processed.
func (s BatchSummary) Total() int {
	return s.Classified + s.Fallbacks
}

// ClassifyBatch classifies papers through a worker pool bounded by the
// configured concurrency, each call bounded by the call timeout. Results
// are returned in input order. The batch stops early only when the parent
// context is cancelled; individual failures become fallback results.
func (e *Enricher) ClassifyBatch(ctx context.Context, papers []types.Paper, w io.Writer) ([]types.Classification, BatchSummary, error) {
	results := make([]types.Classification, len(papers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for i, p := range papers {
		i, p := i, p
		g.Go(func() error {
			// Stop issuing new calls once the parent is cancelled.
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.ClassifyPaper(gctx, p)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, BatchSummary{}, err
	}

	var summary BatchSummary
	for i, c := range results {
		if c.Fallback {
			summary.Fallbacks++
			fmt.Fprintf(w, "fallback   %s\n", papers[i].ID)
			continue
		}
		summary.Classified++
		fmt.Fprintf(w, "classified %s (%v)\n", papers[i].ID, c.Labels)
	}
	return results, summary, nil
}
