package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/treeline-ai/treeline/internal/concept"
)

const validGraphJSON = `{
	"nodes": [
		{"id": "start", "kind": "start", "label": "Start"},
		{"id": "q1", "kind": "question", "label": "Is this an MFA issue?"},
		{"id": "a1", "kind": "answer", "label": "Yes"},
		{"id": "a2", "kind": "answer", "label": "No"},
		{"id": "rb1", "kind": "runbook", "label": "Reset MFA", "runbookId": "rb1"},
		{"id": "end1", "kind": "end", "label": "Escalate", "terminal": "escalate"}
	],
	"edges": [
		{"id": "e1", "source": "start", "target": "q1"},
		{"id": "e2", "source": "q1", "target": "a1"},
		{"id": "e3", "source": "q1", "target": "a2"},
		{"id": "e4", "source": "a1", "target": "rb1"},
		{"id": "e5", "source": "a2", "target": "end1"}
	],
	"runbooks": [
		{"id": "rb1", "title": "Reset MFA", "steps": [{"order": 1, "instruction": "Verify identity"}]}
	],
	"reasoning": "routed by issue category"
}`

func testConcepts() *concept.Graph {
	return &concept.Graph{
		IssueCategories: []string{"MFA"},
		Procedures:      []concept.Procedure{{Name: "Reset MFA", Steps: []string{"Verify identity"}}},
		DecisionPoints:  []concept.DecisionPoint{{Question: "Is this an MFA issue?"}},
	}
}

func TestSynthesize_DecodesGraph(t *testing.T) {
	fake := &fakeOracle{responses: []string{"```json\n" + validGraphJSON + "\n```"}}
	s := NewSynthesizer(fake, testLogger())

	g, reasoning, err := s.Synthesize(context.Background(), "source text", testConcepts())
	require.NoError(t, err)
	require.Len(t, g.Nodes, 6)
	require.Len(t, g.Edges, 5)
	require.Len(t, g.Runbooks, 1)
	require.Equal(t, "routed by issue category", reasoning)
}

func TestSynthesize_OracleErrorPropagates(t *testing.T) {
	fake := &fakeOracle{err: errors.New("rate limited")}
	s := NewSynthesizer(fake, testLogger())

	_, _, err := s.Synthesize(context.Background(), "source", testConcepts())
	require.Error(t, err)
}

func TestSynthesize_EmptyNodesRejected(t *testing.T) {
	fake := &fakeOracle{responses: []string{`{"nodes": [], "edges": [], "runbooks": []}`}}
	s := NewSynthesizer(fake, testLogger())

	_, _, err := s.Synthesize(context.Background(), "source", testConcepts())
	require.ErrorIs(t, err, ErrEmptyGraph)
}

func TestSynthesize_NodeWithoutIDRejected(t *testing.T) {
	fake := &fakeOracle{responses: []string{`{"nodes": [{"id": "", "kind": "start", "label": "Start"}]}`}}
	s := NewSynthesizer(fake, testLogger())

	_, _, err := s.Synthesize(context.Background(), "source", testConcepts())
	require.ErrorIs(t, err, ErrEmptyGraph)
}

func TestSynthesize_MalformedJSONRejected(t *testing.T) {
	fake := &fakeOracle{responses: []string{"here is your graph: {nodes: oops}"}}
	s := NewSynthesizer(fake, testLogger())

	_, _, err := s.Synthesize(context.Background(), "source", testConcepts())
	require.ErrorIs(t, err, ErrEmptyGraph)
}

func TestDecodeGraphResponse_NilSlicesBecomeEmpty(t *testing.T) {
	g, _, err := decodeGraphResponse(`{"nodes": [{"id": "start", "kind": "start", "label": "Start"}]}`)
	require.NoError(t, err)
	require.NotNil(t, g.Edges)
	require.NotNil(t, g.Runbooks)
}
