package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func failingReport() *CritiqueReport {
	return &CritiqueReport{
		Score:        6,
		Issues:       []Issue{{Type: IssueMergedPaths, NodeID: "rb1", Description: "branches reconverge"}},
		PassesReview: false,
		Summary:      "needs work",
	}
}

func TestRefine_AppliesValidRefinement(t *testing.T) {
	fake := &fakeOracle{responses: []string{validGraphJSON}}
	r := NewRefiner(fake, testLogger())
	original := smallGraph()

	outcome := r.Refine(context.Background(), original, failingReport(), "source")

	require.True(t, outcome.Applied)
	require.NotSame(t, original, outcome.Graph)
	require.Len(t, outcome.Graph.Nodes, 6)
	require.Equal(t, "routed by issue category", outcome.Reasoning)
}

func TestRefine_OracleErrorKeepsOriginalGraph(t *testing.T) {
	fake := &fakeOracle{err: errors.New("boom")}
	r := NewRefiner(fake, testLogger())
	original := smallGraph()

	outcome := r.Refine(context.Background(), original, failingReport(), "source")

	require.False(t, outcome.Applied)
	require.Same(t, original, outcome.Graph, "fallback must return the pre-refinement graph")
	require.NotEmpty(t, outcome.Reason)
}

func TestRefine_InvalidRefinedGraphKeepsOriginal(t *testing.T) {
	fake := &fakeOracle{responses: []string{`{"nodes": [], "reasoning": "I deleted everything"}`}}
	r := NewRefiner(fake, testLogger())
	original := smallGraph()

	outcome := r.Refine(context.Background(), original, failingReport(), "source")

	require.False(t, outcome.Applied)
	require.Same(t, original, outcome.Graph)
	require.Contains(t, outcome.Reason, "invalid")
}
