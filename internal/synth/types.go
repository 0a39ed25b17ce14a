// Package synth holds the oracle-backed stages of the pipeline: decision
// graph synthesis from a concept graph, structural critique, and the single
// refinement pass a failing critique can trigger.
package synth

import (
	"errors"

	"github.com/treeline-ai/treeline/internal/graph"
)

// ErrEmptyGraph means the oracle returned no nodes or output that failed
// schema validation. Validation failure at the boundary is rejected, never
// accepted as a partial value.
var ErrEmptyGraph = errors.New("oracle returned an empty or malformed graph")

// IssueType is the fixed critique taxonomy.
type IssueType string

const (
	IssueMergedPaths             IssueType = "merged_paths"
	IssueDisconnectedNode        IssueType = "disconnected_node"
	IssueCollapsedProcedure      IssueType = "collapsed_procedure"
	IssueMissingWhy              IssueType = "missing_why"
	IssueUnseparatedPrerequisite IssueType = "unseparated_prerequisite"
	IssueShallowRunbook          IssueType = "shallow_runbook"
	IssueComplexRunbook          IssueType = "complex_runbook"
)

var validIssueTypes = map[IssueType]bool{
	IssueMergedPaths:             true,
	IssueDisconnectedNode:        true,
	IssueCollapsedProcedure:      true,
	IssueMissingWhy:              true,
	IssueUnseparatedPrerequisite: true,
	IssueShallowRunbook:          true,
	IssueComplexRunbook:          true,
}

// autoFailTypes force passesReview to false regardless of the numeric score.
var autoFailTypes = map[IssueType]bool{
	IssueMergedPaths:      true,
	IssueDisconnectedNode: true,
}

// Issue is a single defect the critic reports.
type Issue struct {
	Type        IssueType `json:"type"`
	NodeID      string    `json:"nodeId,omitempty"`
	Description string    `json:"description"`
	Suggestion  string    `json:"suggestion,omitempty"`
}

// CritiqueReport scores a decision graph and enumerates its defects.
type CritiqueReport struct {
	Score        int     `json:"score"` // 1-10 ordinal
	Issues       []Issue `json:"issues"`
	PassesReview bool    `json:"passesReview"`
	Summary      string  `json:"summary"`
}

// NeutralReport is the low-confidence substitute used when the critique call
// fails; critique failure is non-fatal.
func NeutralReport() *CritiqueReport {
	return &CritiqueReport{
		Score:        5,
		Issues:       []Issue{},
		PassesReview: false,
		Summary:      "critique unavailable; proceeding without review",
	}
}

// NeedsRefinement reports whether a critique should trigger the single
// refinement pass.
func (r *CritiqueReport) NeedsRefinement() bool {
	return !r.PassesReview && r.Score < 8 && len(r.Issues) > 0
}

// RefineOutcome makes the "use previous graph" path an explicit branch
// instead of an incidental catch. Graph is always usable: the refined graph
// when Applied, the pre-refinement graph otherwise.
type RefineOutcome struct {
	Graph     *graph.Graph
	Reasoning string
	Applied   bool
	Reason    string // why the pipeline fell back, when Applied is false
}
