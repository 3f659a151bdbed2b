// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes the static JSON artifacts the website consumes:
// accepted papers with their classifications, excluded papers with their
// rejection reasons, and the subset flagged for human review.
// See docs/ARCHITECTURE.md § Export.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mlsec/paper-curator/internal/store"
	"github.com/mlsec/paper-curator/pkg/types"
)

const (
	acceptedFile = "papers.json"
	excludedFile = "excluded.json"
	reviewFile   = "needs_review.json"
)

// Envelope wraps an exported paper list with collection metadata.
type Envelope struct {
	Updated string  `json:"updated"`
	Total   int     `json:"total"`
	Note    string  `json:"note,omitempty"`
	Papers  []Entry `json:"papers"`
}

// Entry is one exported paper. Filter fields are present on every entry;
// Classification only on accepted papers that went through enrichment.
type Entry struct {
	types.Paper
	FilterStage      string                `json:"filter_stage,omitempty"`
	FilterReason     string                `json:"filter_reason,omitempty"`
	FilterConfidence types.Confidence      `json:"filter_confidence,omitempty"`
	Classification   *types.Classification `json:"classification,omitempty"`
}

// Summary reports what an export run wrote.
type Summary struct {
	Accepted    int
	Excluded    int
	NeedsReview int
}

// now is stubbed in tests for stable envelope dates.
var now = time.Now

// Run writes all three artifacts to outDir. Ordering inside each file
// follows the store's ID ordering, so repeated exports over unchanged data
// are byte-identical apart from the envelope date.
func Run(ctx context.Context, s *store.Store, outDir string) (Summary, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating export directory: %w", err)
	}

	accepted, err := s.AcceptedPapers(ctx)
	if err != nil {
		return Summary{}, err
	}
	rejected, err := s.RejectedPapers(ctx)
	if err != nil {
		return Summary{}, err
	}

	acceptedEntries := make([]Entry, 0, len(accepted))
	var reviewEntries []Entry
	for _, cp := range accepted {
		e := toEntry(cp)
		acceptedEntries = append(acceptedEntries, e)
		if needsReview(cp) {
			reviewEntries = append(reviewEntries, e)
		}
	}

	excludedEntries := make([]Entry, 0, len(rejected))
	for _, cp := range rejected {
		excludedEntries = append(excludedEntries, toEntry(cp))
	}

	files := []struct {
		name    string
		note    string
		entries []Entry
	}{
		{acceptedFile, "papers accepted by the relevance-filtering pipeline", acceptedEntries},
		{excludedFile, "papers excluded by the relevance-filtering pipeline", excludedEntries},
		{reviewFile, "accepted papers needing human review", reviewEntries},
	}

	for _, f := range files {
		if err := writeEnvelope(filepath.Join(outDir, f.name), f.note, f.entries); err != nil {
			return Summary{}, err
		}
	}

	return Summary{
		Accepted:    len(acceptedEntries),
		Excluded:    len(excludedEntries),
		NeedsReview: len(reviewEntries),
	}, nil
}

// needsReview flags accepted papers whose deciding verdict was not high
// confidence, and papers whose classification degraded to the fallback.
func needsReview(cp store.CuratedPaper) bool {
	if cp.FinalConfidence != types.ConfidenceHigh {
		return true
	}
	return cp.Classification != nil && cp.Classification.Fallback
}

func toEntry(cp store.CuratedPaper) Entry {
	return Entry{
		Paper:            cp.Paper,
		FilterStage:      cp.FinalStage,
		FilterReason:     cp.FinalReason,
		FilterConfidence: cp.FinalConfidence,
		Classification:   cp.Classification,
	}
}

func writeEnvelope(path, note string, entries []Entry) error {
	if entries == nil {
		// The site reads these files directly; an empty list must encode
		// as [] rather than null.
		entries = []Entry{}
	}
	env := Envelope{
		Updated: now().UTC().Format("2006-01-02"),
		Total:   len(entries),
		Note:    note,
		Papers:  entries,
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}
