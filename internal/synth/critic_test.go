package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCritique_ParsesAndSanitizesReport(t *testing.T) {
	fake := &fakeOracle{responses: []string{"```json\n" + `{
		"score": 15,
		"issues": [
			{"type": "merged_paths", "nodeId": "n3", "description": "branches reconverge"},
			{"type": "made_up_type", "description": "should be dropped"}
		],
		"passesReview": true,
		"summary": "mostly fine"
	}` + "\n```"}}

	c := NewCritic(fake, testLogger())
	report := c.Critique(context.Background(), smallGraph(), "source text")

	require.Equal(t, 10, report.Score, "score must be clamped to 10")
	require.Len(t, report.Issues, 1, "out-of-taxonomy issues must be dropped")
	require.Equal(t, IssueMergedPaths, report.Issues[0].Type)
	require.False(t, report.PassesReview, "merged_paths must force passesReview=false")
}

func TestCritique_OracleErrorYieldsNeutralReport(t *testing.T) {
	fake := &fakeOracle{err: errors.New("boom")}
	c := NewCritic(fake, testLogger())

	report := c.Critique(context.Background(), smallGraph(), "source")

	require.Equal(t, 5, report.Score)
	require.False(t, report.PassesReview)
	require.Empty(t, report.Issues)
}

func TestCritique_UnparseableReportYieldsNeutralReport(t *testing.T) {
	fake := &fakeOracle{responses: []string{"I think the graph looks great!"}}
	c := NewCritic(fake, testLogger())

	report := c.Critique(context.Background(), smallGraph(), "source")

	require.Equal(t, NeutralReport().Score, report.Score)
	require.False(t, report.PassesReview)
}

func TestCritique_ScoreClampedLow(t *testing.T) {
	fake := &fakeOracle{responses: []string{`{"score": -3, "issues": [], "passesReview": false, "summary": "bad"}`}}
	c := NewCritic(fake, testLogger())

	report := c.Critique(context.Background(), smallGraph(), "source")
	require.Equal(t, 1, report.Score)
}

func TestNeedsRefinement(t *testing.T) {
	issue := []Issue{{Type: IssueShallowRunbook, Description: "thin"}}
	tests := []struct {
		name   string
		report CritiqueReport
		want   bool
	}{
		{"failing with issues", CritiqueReport{Score: 6, Issues: issue, PassesReview: false}, true},
		{"passes review", CritiqueReport{Score: 6, Issues: issue, PassesReview: true}, false},
		{"score at threshold", CritiqueReport{Score: 8, Issues: issue, PassesReview: false}, false},
		{"no issues", CritiqueReport{Score: 3, Issues: nil, PassesReview: false}, false},
		{"neutral report", *NeutralReport(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.report.NeedsRefinement())
		})
	}
}
