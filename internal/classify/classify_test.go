// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mlsec/paper-curator/pkg/types"
)

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

// mockLabeler returns a canned response per paper ID.
type mockLabeler struct {
	responses map[string]string // paper ID → raw response
	err       error
	calls     int
}

func (m *mockLabeler) Classify(_ context.Context, paper types.Paper) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.responses[paper.ID], nil
}

// failNTimesLabeler fails the first N calls, then succeeds.
type failNTimesLabeler struct {
	failures  int
	callCount int
	response  string
}

func (f *failNTimesLabeler) Classify(context.Context, types.Paper) (string, error) {
	f.callCount++
	if f.callCount <= f.failures {
		return "", fmt.Errorf("transient error (call %d)", f.callCount)
	}
	return f.response, nil
}

// slowLabeler blocks until its context dies.
type slowLabeler struct{}

func (slowLabeler) Classify(ctx context.Context, _ types.Paper) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func testPaper(id string) types.Paper {
	return types.Paper{ID: id, Title: "Paper " + id, Abstract: "A model stealing attack."}
}

// --- ClassifyPaper ---

func TestClassifyPaper(t *testing.T) {
	labeler := &mockLabeler{responses: map[string]string{
		"p1": `{"labels": ["ML05"], "paper_type": "attack", "confidence": "high"}`,
	}}
	e := NewEnricher(labeler, types.ClassifyConfig{})

	c := e.ClassifyPaper(context.Background(), testPaper("p1"))

	if c.Fallback {
		t.Fatal("unexpected fallback")
	}
	if !reflect.DeepEqual(c.Labels, []string{"ML05"}) {
		t.Errorf("Labels = %v", c.Labels)
	}
	if c.PaperType != "attack" {
		t.Errorf("PaperType = %q", c.PaperType)
	}
}

func TestClassifyPaperRetriesThenSucceeds(t *testing.T) {
	labeler := &failNTimesLabeler{
		failures: 2,
		response: `{"labels": ["ML01"], "paper_type": "defense"}`,
	}
	e := NewEnricher(labeler, types.ClassifyConfig{AIConfig: types.AIConfig{MaxRetries: 3}})

	c := e.ClassifyPaper(context.Background(), testPaper("p1"))

	if c.Fallback {
		t.Fatalf("unexpected fallback after %d calls", labeler.callCount)
	}
	if labeler.callCount != 3 {
		t.Errorf("callCount = %d, want 3", labeler.callCount)
	}
}

func TestClassifyPaperPermanentFailure(t *testing.T) {
	labeler := &mockLabeler{err: fmt.Errorf("api unreachable")}
	e := NewEnricher(labeler, types.ClassifyConfig{AIConfig: types.AIConfig{MaxRetries: 2}})

	c := e.ClassifyPaper(context.Background(), testPaper("p1"))

	if !c.Fallback {
		t.Fatal("Fallback = false, want true")
	}
	if labeler.calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", labeler.calls)
	}
	if !strings.Contains(c.Reasoning, "labeler call failed") {
		t.Errorf("Reasoning = %q", c.Reasoning)
	}
	if !strings.Contains(c.Reasoning, "api unreachable") {
		t.Errorf("Reasoning = %q, want original error preserved", c.Reasoning)
	}
}

func TestClassifyPaperTimeout(t *testing.T) {
	e := NewEnricher(slowLabeler{}, types.ClassifyConfig{CallTimeout: 10 * time.Millisecond})

	c := e.ClassifyPaper(context.Background(), testPaper("p1"))

	if !c.Fallback {
		t.Fatal("Fallback = false, want true for timed-out call")
	}
	if !reflect.DeepEqual(c.Labels, []string{"NONE"}) {
		t.Errorf("Labels = %v", c.Labels)
	}
}

func TestClassifyPaperUnparseableResponse(t *testing.T) {
	labeler := &mockLabeler{responses: map[string]string{"p1": "no json here"}}
	e := NewEnricher(labeler, types.ClassifyConfig{})

	c := e.ClassifyPaper(context.Background(), testPaper("p1"))

	if !c.Fallback {
		t.Fatal("Fallback = false, want true")
	}
	if !strings.Contains(c.Reasoning, "no json here") {
		t.Errorf("Reasoning = %q, want raw response preserved", c.Reasoning)
	}
}

// --- ClassifyBatch ---

func TestClassifyBatch(t *testing.T) {
	labeler := &mockLabeler{responses: map[string]string{
		"p1": `{"labels": ["ML05"], "paper_type": "attack"}`,
		"p2": "not json",
		"p3": `{"labels": ["ML01"], "paper_type": "defense"}`,
	}}
	e := NewEnricher(labeler, types.ClassifyConfig{Concurrency: 2})

	var sb strings.Builder
	results, summary, err := e.ClassifyBatch(context.Background(),
		[]types.Paper{testPaper("p1"), testPaper("p2"), testPaper("p3")}, &sb)
	if err != nil {
		t.Fatalf("ClassifyBatch() error = %v", err)
	}

	if summary.Classified != 2 || summary.Fallbacks != 1 {
		t.Errorf("summary = %+v, want 2 classified, 1 fallback", summary)
	}
	if summary.Total() != 3 {
		t.Errorf("Total() = %d, want 3", summary.Total())
	}

	// Results come back in input order regardless of worker scheduling.
	if !reflect.DeepEqual(results[0].Labels, []string{"ML05"}) {
		t.Errorf("results[0].Labels = %v", results[0].Labels)
	}
	if !results[1].Fallback {
		t.Error("results[1].Fallback = false, want true")
	}
	if !reflect.DeepEqual(results[2].Labels, []string{"ML01"}) {
		t.Errorf("results[2].Labels = %v", results[2].Labels)
	}

	out := sb.String()
	if !strings.Contains(out, "classified p1") || !strings.Contains(out, "fallback   p2") {
		t.Errorf("batch output missing expected lines:\n%s", out)
	}
}

func TestClassifyBatchEmpty(t *testing.T) {
	e := NewEnricher(&mockLabeler{}, types.ClassifyConfig{})
	results, summary, err := e.ClassifyBatch(context.Background(), nil, &strings.Builder{})
	if err != nil {
		t.Fatalf("ClassifyBatch() error = %v", err)
	}
	if len(results) != 0 || summary.Total() != 0 {
		t.Errorf("results = %v, summary = %+v", results, summary)
	}
}

func TestClassifyBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEnricher(&mockLabeler{}, types.ClassifyConfig{})
	if _, _, err := e.ClassifyBatch(ctx, []types.Paper{testPaper("p1")}, &strings.Builder{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
