// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves paper metadata from academic APIs. Each backend
// (OpenAlex, arXiv, Semantic Scholar) implements the Backend interface;
// batch fetching walks pending references, trying backends in preference
// order and recording per-paper failures without aborting the run.
// See docs/ARCHITECTURE.md § Fetch.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mlsec/paper-curator/pkg/types"
)

// Backend fetches metadata for one paper reference from a single academic
// API. A reference is an arXiv ID, a DOI, or a free-text title.
type Backend interface {
	Name() string
	Fetch(ctx context.Context, ref string, cfg types.FetchConfig) (types.Paper, error)
}

// arxivIDPattern matches modern arXiv identifiers like "2301.07041" or
// "2301.07041v2".
var arxivIDPattern = regexp.MustCompile(`^\d{4}\.\d{4,5}(v\d+)?$`)

// IsArxivID reports whether ref is an arXiv identifier.
func IsArxivID(ref string) bool {
	return arxivIDPattern.MatchString(strings.TrimPrefix(ref, "arXiv:"))
}

// IsDOI reports whether ref is a bare DOI.
func IsDOI(ref string) bool {
	return strings.HasPrefix(ref, "10.")
}

// DefaultBackends returns the standard backend set. OpenAlex is primary
// (free, generous limits), arXiv covers preprints, Semantic Scholar is the
// rate-limited fallback.
func DefaultBackends(client *http.Client, semanticAPIKey string) []Backend {
	return []Backend{
		&OpenAlexBackend{Client: client},
		&ArxivBackend{Client: client},
		&SemanticScholarBackend{Client: client, APIKey: semanticAPIKey},
	}
}

// orderFor returns backends reordered so the one best suited to the
// reference shape is tried first.
func orderFor(ref string, backends []Backend) []Backend {
	if !IsArxivID(ref) {
		return backends
	}
	ordered := make([]Backend, 0, len(backends))
	var rest []Backend
	for _, b := range backends {
		if b.Name() == "arxiv" {
			ordered = append(ordered, b)
		} else {
			rest = append(rest, b)
		}
	}
	return append(ordered, rest...)
}

// BatchSummary holds counts from a batch fetch run.
type BatchSummary struct {
	Fetched int
	Failed  int
}

// Resolved pairs a fetched paper with the reference it came from. The
// paper's canonical ID may differ from the reference (a title search
// resolving to a DOI); callers use the pair to retire the original
// reference row.
type Resolved struct {
	Ref   string
	Paper types.Paper
}

// FetchBatch fetches metadata for each reference, trying backends in
// preference order until one succeeds. Failures are reported per paper and
// do not abort the batch. The configured request delay separates
// consecutive references to stay inside API rate limits.
func FetchBatch(ctx context.Context, refs []string, backends []Backend, cfg types.FetchConfig, w io.Writer) ([]Resolved, BatchSummary, error) {
	if len(backends) == 0 {
		return nil, BatchSummary{}, fmt.Errorf("no fetch backends configured")
	}

	var resolved []Resolved
	var summary BatchSummary

	for i, ref := range refs {
		if i > 0 && cfg.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return resolved, summary, ctx.Err()
			case <-time.After(cfg.RequestDelay):
			}
		}

		paper, err := fetchOne(ctx, ref, backends, cfg)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", ref, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "fetched %s (%s)\n", paper.ID, paper.Source)
		resolved = append(resolved, Resolved{Ref: ref, Paper: paper})
		summary.Fetched++
	}

	return resolved, summary, nil
}

func fetchOne(ctx context.Context, ref string, backends []Backend, cfg types.FetchConfig) (types.Paper, error) {
	var lastErr error
	for _, b := range orderFor(ref, backends) {
		paper, err := b.Fetch(ctx, ref, cfg)
		if err != nil {
			lastErr = err
			continue
		}
		if paper.ID == "" {
			paper.ID = ref
		}
		return paper, nil
	}
	return types.Paper{}, fmt.Errorf("all backends failed: %w", lastErr)
}
