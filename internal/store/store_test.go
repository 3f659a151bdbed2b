// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlsec/paper-curator/internal/filter"
	"github.com/mlsec/paper-curator/internal/pipeline"
	"github.com/mlsec/paper-curator/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePaper(id string) types.Paper {
	return types.Paper{
		ID:            id,
		Title:         "Paper " + id,
		Abstract:      "A model stealing attack.",
		Venue:         "USENIX Security",
		Year:          2024,
		Authors:       []string{"Alice", "Bob"},
		CitationCount: 12,
		URL:           "https://doi.org/" + id,
		Source:        "openalex",
	}
}

func TestOpenCreatesDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "curation.db"))
	assert.NoError(t, err)
}

func TestOpenCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

// --- AddRefs / PendingRefs ---

func TestAddRefsAndPendingRefs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	added, err := s.AddRefs(ctx, []string{"2301.07041", "10.5555/x"})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// Re-adding a known reference is a no-op.
	added, err = s.AddRefs(ctx, []string{"2301.07041", "10.5555/y"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	refs, err := s.PendingRefs(ctx)
	require.NoError(t, err)
	assert.Len(t, refs, 3)
	assert.Contains(t, refs, "2301.07041")
	assert.Contains(t, refs, "10.5555/y")
}

func TestPendingRefsExcludesFetched(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.AddRefs(ctx, []string{"p1", "p2"})
	require.NoError(t, err)
	require.NoError(t, s.UpsertPapers(ctx, []types.Paper{samplePaper("p1")}, types.StatusFetched))

	refs, err := s.PendingRefs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, refs)
}

func TestRetireRefs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.AddRefs(ctx, []string{"some paper title", "p2"})
	require.NoError(t, err)

	// "some paper title" resolved to a DOI; its pending row goes away.
	require.NoError(t, s.UpsertPapers(ctx, []types.Paper{samplePaper("10.5555/x")}, types.StatusFetched))
	require.NoError(t, s.RetireRefs(ctx, []string{"some paper title"}))

	refs, err := s.PendingRefs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, refs)
}

func TestRetireRefsLeavesAdvancedRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertPapers(ctx, []types.Paper{samplePaper("p1")}, types.StatusFetched))
	require.NoError(t, s.RetireRefs(ctx, []string{"p1"}))

	papers, err := s.ListByStatus(ctx, types.StatusFetched)
	require.NoError(t, err)
	assert.Len(t, papers, 1)
}

// --- UpsertPapers / ListByStatus ---

func TestUpsertPapersRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := samplePaper("p1")
	require.NoError(t, s.UpsertPapers(ctx, []types.Paper{want}, types.StatusFetched))

	papers, err := s.ListByStatus(ctx, types.StatusFetched)
	require.NoError(t, err)
	require.Len(t, papers, 1)

	got := papers[0]
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Abstract, got.Abstract)
	assert.Equal(t, want.Venue, got.Venue)
	assert.Equal(t, want.Year, got.Year)
	assert.Equal(t, want.Authors, got.Authors)
	assert.Equal(t, want.CitationCount, got.CitationCount)
	assert.Equal(t, want.Source, got.Source)
}

func TestUpsertPapersOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := samplePaper("p1")
	require.NoError(t, s.UpsertPapers(ctx, []types.Paper{p}, types.StatusFetched))

	p.Title = "Revised Title"
	require.NoError(t, s.UpsertPapers(ctx, []types.Paper{p}, types.StatusFetched))

	papers, err := s.ListByStatus(ctx, types.StatusFetched)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "Revised Title", papers[0].Title)
}

func TestListByStatusOrdersByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertPapers(ctx,
		[]types.Paper{samplePaper("p3"), samplePaper("p1"), samplePaper("p2")},
		types.StatusFetched))

	papers, err := s.ListByStatus(ctx, types.StatusFetched)
	require.NoError(t, err)
	require.Len(t, papers, 3)
	assert.Equal(t, "p1", papers[0].ID)
	assert.Equal(t, "p2", papers[1].ID)
	assert.Equal(t, "p3", papers[2].ID)
}

// --- RecordResults ---

func acceptedPipelineResult(p types.Paper) pipeline.Result {
	return pipeline.Result{
		Paper:    p,
		Relevant: true,
		Verdicts: []pipeline.StageVerdict{
			{Stage: "exclusion", Verdict: filter.Accept("no exclusion signal triggered", types.ConfidenceHigh)},
			{Stage: "relevance", Verdict: filter.Accept("strong indicators", types.ConfidenceHigh)},
			{Stage: "topic_dominance", Verdict: filter.Accept("target topic is primary focus", types.ConfidenceHigh)},
		},
	}
}

func rejectedPipelineResult(p types.Paper) pipeline.Result {
	return pipeline.Result{
		Paper: p,
		Verdicts: []pipeline.StageVerdict{
			{Stage: "exclusion", Verdict: filter.Accept("no exclusion signal triggered", types.ConfidenceHigh)},
			{Stage: "relevance", Verdict: filter.Reject("insufficient domain terminology in abstract", types.ConfidenceHigh)},
		},
	}
}

func TestRecordResults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p1, p2 := samplePaper("p1"), samplePaper("p2")
	require.NoError(t, s.UpsertPapers(ctx, []types.Paper{p1, p2}, types.StatusFetched))

	require.NoError(t, s.RecordResults(ctx, []pipeline.Result{
		acceptedPipelineResult(p1),
		rejectedPipelineResult(p2),
	}))

	counts, err := s.CountsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[types.StatusAccepted])
	assert.Equal(t, 1, counts[types.StatusRejected])
	assert.Equal(t, 0, counts[types.StatusFetched])
}

func TestRecordResultsReplacesVerdicts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := samplePaper("p1")
	require.NoError(t, s.UpsertPapers(ctx, []types.Paper{p}, types.StatusFetched))

	// First run rejects, second run accepts; the audit trail must reflect
	// only the latest run.
	require.NoError(t, s.RecordResults(ctx, []pipeline.Result{rejectedPipelineResult(p)}))
	require.NoError(t, s.RecordResults(ctx, []pipeline.Result{acceptedPipelineResult(p)}))

	curated, err := s.AcceptedPapers(ctx)
	require.NoError(t, err)
	require.Len(t, curated, 1)
	assert.Equal(t, "topic_dominance", curated[0].FinalStage)
	assert.Equal(t, "target topic is primary focus", curated[0].FinalReason)
}

// --- RecordClassification ---

func TestRecordClassification(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := samplePaper("p1")
	require.NoError(t, s.UpsertPapers(ctx, []types.Paper{p}, types.StatusFetched))
	require.NoError(t, s.RecordResults(ctx, []pipeline.Result{acceptedPipelineResult(p)}))

	c := types.Classification{
		Labels:     []string{"ML05"},
		PaperType:  "attack",
		Domains:    []string{"vision"},
		Tags:       []string{"query-efficiency"},
		Confidence: types.ConfidenceHigh,
		Reasoning:  "Query-based extraction attack.",
	}
	require.NoError(t, s.RecordClassification(ctx, p.ID, c))

	counts, err := s.CountsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[types.StatusClassified])

	curated, err := s.AcceptedPapers(ctx)
	require.NoError(t, err)
	require.Len(t, curated, 1)
	require.NotNil(t, curated[0].Classification)
	assert.Equal(t, []string{"ML05"}, curated[0].Classification.Labels)
	assert.Equal(t, "attack", curated[0].Classification.PaperType)
	assert.Equal(t, []string{"vision"}, curated[0].Classification.Domains)
	assert.False(t, curated[0].Classification.Fallback)
}

func TestRecordClassificationUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := samplePaper("p1")
	require.NoError(t, s.UpsertPapers(ctx, []types.Paper{p}, types.StatusAccepted))

	fallback := types.Classification{
		Labels: []string{"NONE"}, PaperType: "unknown",
		Confidence: types.ConfidenceLow, Fallback: true,
	}
	require.NoError(t, s.RecordClassification(ctx, p.ID, fallback))

	corrected := types.Classification{
		Labels: []string{"ML05"}, PaperType: "attack",
		Confidence: types.ConfidenceHigh,
	}
	require.NoError(t, s.RecordClassification(ctx, p.ID, corrected))

	curated, err := s.AcceptedPapers(ctx)
	require.NoError(t, err)
	require.Len(t, curated, 1)
	assert.Equal(t, []string{"ML05"}, curated[0].Classification.Labels)
	assert.False(t, curated[0].Classification.Fallback)
}

// --- queries ---

func TestRejectedPapers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p1, p2 := samplePaper("p1"), samplePaper("p2")
	require.NoError(t, s.UpsertPapers(ctx, []types.Paper{p1, p2}, types.StatusFetched))
	require.NoError(t, s.RecordResults(ctx, []pipeline.Result{
		acceptedPipelineResult(p1),
		rejectedPipelineResult(p2),
	}))

	rejected, err := s.RejectedPapers(ctx)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "p2", rejected[0].Paper.ID)
	assert.Equal(t, "relevance", rejected[0].FinalStage)
	assert.Equal(t, "insufficient domain terminology in abstract", rejected[0].FinalReason)
	assert.Equal(t, types.ConfidenceHigh, rejected[0].FinalConfidence)
	assert.Nil(t, rejected[0].Classification)
}

func TestAcceptedPapersIncludesClassified(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p1, p2 := samplePaper("p1"), samplePaper("p2")
	require.NoError(t, s.UpsertPapers(ctx, []types.Paper{p1, p2}, types.StatusFetched))
	require.NoError(t, s.RecordResults(ctx, []pipeline.Result{
		acceptedPipelineResult(p1),
		acceptedPipelineResult(p2),
	}))
	require.NoError(t, s.RecordClassification(ctx, p1.ID, types.Classification{
		Labels: []string{"ML05"}, PaperType: "attack", Confidence: types.ConfidenceHigh,
	}))

	// p1 is now classified, p2 still accepted; both belong in the accepted
	// set.
	curated, err := s.AcceptedPapers(ctx)
	require.NoError(t, err)
	require.Len(t, curated, 2)
	assert.Equal(t, "p1", curated[0].Paper.ID)
	assert.NotNil(t, curated[0].Classification)
	assert.Equal(t, "p2", curated[1].Paper.ID)
	assert.Nil(t, curated[1].Classification)
}

func TestCountsByStatusEmpty(t *testing.T) {
	s := openTestStore(t)
	counts, err := s.CountsByStatus(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts)
}

// --- list encoding ---

func TestMarshalUnmarshalList(t *testing.T) {
	enc, err := marshalList(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", enc)
	assert.Nil(t, unmarshalList(enc))

	enc, err = marshalList([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, unmarshalList(enc))

	assert.Nil(t, unmarshalList(""))
	assert.Nil(t, unmarshalList("not json"))
}
