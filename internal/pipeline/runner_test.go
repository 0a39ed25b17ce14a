package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/treeline-ai/treeline/internal/oracle"
)

// scriptedOracle returns canned responses in call order.
type scriptedOracle struct {
	responses []string
	err       error
	calls     int
}

func (f *scriptedOracle) Complete(ctx context.Context, req oracle.Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("scriptedOracle: no response left")
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const conceptJSON = `{
	"principles": ["verify identity before any change"],
	"userTypes": ["Agent"],
	"issueCategories": ["MFA", "Billing"],
	"procedures": [{"name": "Reset MFA", "prerequisites": [], "steps": ["verify identity", "reset token"], "outcomes": ["resolved"]}],
	"decisionPoints": [{"question": "Is this an MFA issue?", "dependsOn": [], "determines": ["Reset MFA"]}],
	"conceptOrder": ["MFA", "Reset MFA"]
}`

const graphJSON = `{
	"nodes": [
		{"id": "start", "kind": "start", "label": "Start"},
		{"id": "q1", "kind": "question", "label": "MFA Issues"},
		{"id": "a1", "kind": "answer", "label": "Yes"},
		{"id": "a2", "kind": "answer", "label": "No"},
		{"id": "rb-node", "kind": "runbook", "label": "Reset MFA", "runbookId": "rb1"},
		{"id": "end1", "kind": "end", "label": "Escalate", "terminal": "escalate"}
	],
	"edges": [
		{"id": "e1", "source": "start", "target": "q1"},
		{"id": "e2", "source": "q1", "target": "a1"},
		{"id": "e3", "source": "q1", "target": "a2"},
		{"id": "e4", "source": "a1", "target": "rb-node"},
		{"id": "e5", "source": "a2", "target": "end1"}
	],
	"runbooks": [{"id": "rb1", "title": "Reset MFA", "steps": [{"order": 1, "instruction": "Verify identity"}]}],
	"reasoning": "routed by category"
}`

const passingCritiqueJSON = `{"score": 9, "issues": [], "passesReview": true, "summary": "solid"}`

const failingCritiqueJSON = `{"score": 6, "issues": [{"type": "merged_paths", "nodeId": "rb-node", "description": "reconverges"}], "passesReview": false, "summary": "needs work"}`

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	if len(out) == 0 {
		t.Fatal("event stream was empty")
	}
	return out
}

func TestRunner_HappyPathNoRefinement(t *testing.T) {
	fake := &scriptedOracle{responses: []string{conceptJSON, graphJSON, passingCritiqueJSON}}
	r := NewRunner(fake, testLogger(), Config{MaxTokensPerChunk: 12000})

	events := collect(t, r.Run(context.Background(), "# MFA Runbook\n\nVerify identity, then reset the token."))

	last := events[len(events)-1]
	if last.Type != EventComplete {
		t.Fatalf("expected complete event, got %s (%s)", last.Type, last.Error)
	}
	if last.Graph == nil || last.Summary == nil {
		t.Fatal("complete event must carry the graph and summary")
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 oracle calls (extract, synthesize, critique), got %d", fake.calls)
	}
	if last.Summary.Refined {
		t.Error("passing critique must not trigger refinement")
	}
	if last.Summary.CritiqueScore != 9 {
		t.Errorf("expected critique score 9, got %d", last.Summary.CritiqueScore)
	}
	if last.Summary.Chunks != 1 {
		t.Errorf("expected 1 chunk, got %d", last.Summary.Chunks)
	}

	// Percent must be monotonically non-decreasing and end at 100.
	prev := -1
	for i, ev := range events {
		if ev.Percent < prev {
			t.Errorf("event %d: percent %d dropped below %d", i, ev.Percent, prev)
		}
		prev = ev.Percent
	}
	if last.Percent != 100 {
		t.Errorf("final percent = %d, want 100", last.Percent)
	}

	// Deterministic passes ran: the question label is normalized and layout
	// depths are assigned.
	q := last.Graph.NodeByID("q1")
	if q.Label != "Is this an MFA issue?" {
		t.Errorf("question label not normalized: %q", q.Label)
	}
	if q.Depth != 1 {
		t.Errorf("q1 depth = %d, want 1", q.Depth)
	}
	if d := last.Graph.NodeByID("rb-node").Depth; d != 3 {
		t.Errorf("rb-node depth = %d, want 3", d)
	}
}

func TestRunner_FailingCritiqueTriggersOneRefinement(t *testing.T) {
	fake := &scriptedOracle{responses: []string{conceptJSON, graphJSON, failingCritiqueJSON, graphJSON}}
	r := NewRunner(fake, testLogger(), Config{})

	events := collect(t, r.Run(context.Background(), "# MFA Runbook\n\nContent."))

	last := events[len(events)-1]
	if last.Type != EventComplete {
		t.Fatalf("expected complete event, got %s (%s)", last.Type, last.Error)
	}
	if fake.calls != 4 {
		t.Errorf("expected 4 oracle calls (refinement included), got %d", fake.calls)
	}
	if !last.Summary.Refined {
		t.Error("failing critique must trigger refinement")
	}
}

func TestRunner_RefinementFailureKeepsPreviousGraph(t *testing.T) {
	// The refinement response is an empty graph; the pipeline must fall back
	// to the synthesized graph and still complete.
	fake := &scriptedOracle{responses: []string{conceptJSON, graphJSON, failingCritiqueJSON, `{"nodes": []}`}}
	r := NewRunner(fake, testLogger(), Config{})

	events := collect(t, r.Run(context.Background(), "# MFA Runbook\n\nContent."))

	last := events[len(events)-1]
	if last.Type != EventComplete {
		t.Fatalf("expected complete event, got %s (%s)", last.Type, last.Error)
	}
	if last.Summary.Refined {
		t.Error("failed refinement must not be reported as applied")
	}
	if len(last.Graph.Nodes) != 6 {
		t.Errorf("expected pre-refinement graph with 6 nodes, got %d", len(last.Graph.Nodes))
	}
}

func TestRunner_OversizedInputFailsBeforeOracleCalls(t *testing.T) {
	fake := &scriptedOracle{}
	r := NewRunner(fake, testLogger(), Config{MaxTokensPerChunk: 50})

	// 10 chunks x 50 tokens = 500 token ceiling; send ~1000 tokens.
	events := collect(t, r.Run(context.Background(), strings.Repeat("x", 4000)))

	last := events[len(events)-1]
	if last.Type != EventError {
		t.Fatalf("expected error event, got %s", last.Type)
	}
	if fake.calls != 0 {
		t.Errorf("size validation must reject before any oracle call, got %d calls", fake.calls)
	}
}

func TestRunner_ExtractionFailureIsFatal(t *testing.T) {
	fake := &scriptedOracle{err: errors.New("model exploded")}
	r := NewRunner(fake, testLogger(), Config{})

	events := collect(t, r.Run(context.Background(), "# Runbook\n\nContent."))

	last := events[len(events)-1]
	if last.Type != EventError {
		t.Fatalf("expected error event, got %s", last.Type)
	}
	if last.Error == "" {
		t.Error("error event must carry the cause")
	}
	// Non-retryable errors must not be retried.
	if fake.calls != 1 {
		t.Errorf("expected 1 oracle call, got %d", fake.calls)
	}
}

func TestRunner_EnrichmentRunsWhenEnabled(t *testing.T) {
	enrichJSON := `[{"id":"rb1","description":"Resets the MFA token.","steps":[{"order":1,"details":"Check the directory."}]}]`
	fake := &scriptedOracle{responses: []string{conceptJSON, graphJSON, passingCritiqueJSON, enrichJSON}}
	r := NewRunner(fake, testLogger(), Config{EnrichRunbooks: true})

	events := collect(t, r.Run(context.Background(), "# MFA Runbook\n\nContent."))

	last := events[len(events)-1]
	if last.Type != EventComplete {
		t.Fatalf("expected complete event, got %s (%s)", last.Type, last.Error)
	}
	if fake.calls != 4 {
		t.Errorf("expected 4 oracle calls (enrichment included), got %d", fake.calls)
	}
	if last.Summary.Enriched != 1 {
		t.Errorf("expected 1 enriched runbook, got %d", last.Summary.Enriched)
	}
	if last.Graph.Runbooks[0].Description != "Resets the MFA token." {
		t.Errorf("runbook description not enriched: %q", last.Graph.Runbooks[0].Description)
	}
}

// blockedOracle honors cancellation the way the real client does.
type blockedOracle struct{}

func (b *blockedOracle) Complete(ctx context.Context, req oracle.Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRunner_CancellationStopsStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(&blockedOracle{}, testLogger(), Config{})

	// The stream must close without a complete event rather than block.
	for ev := range r.Run(ctx, "# Runbook\n\nContent.") {
		if ev.Type == EventComplete {
			t.Fatal("cancelled run must not complete")
		}
	}
}
