// Package concept extracts and merges the intermediate concept graph: the
// domain principles, actor types, issue categories, procedures, and decision
// points the oracle identifies in a runbook before graph synthesis.
package concept

// Procedure is a named sequence of steps extracted from the source document.
type Procedure struct {
	Name          string   `json:"name"`
	Prerequisites []string `json:"prerequisites"`
	Steps         []string `json:"steps"`
	Outcomes      []string `json:"outcomes"`
}

// DecisionPoint is a branching question the document implies.
type DecisionPoint struct {
	Question   string   `json:"question"`
	DependsOn  []string `json:"dependsOn"`
	Determines []string `json:"determines"`
}

// Graph is the concept dependency graph extracted from one chunk, or the
// merged union of all chunks. The merged instance is immutable input to
// graph synthesis.
type Graph struct {
	Principles      []string        `json:"principles"`
	UserTypes       []string        `json:"userTypes"`
	IssueCategories []string        `json:"issueCategories"`
	Procedures      []Procedure     `json:"procedures"`
	DecisionPoints  []DecisionPoint `json:"decisionPoints"`
	ConceptOrder    []string        `json:"conceptOrder"`
}

// IsEmpty reports whether extraction produced nothing usable.
func (g *Graph) IsEmpty() bool {
	return g == nil ||
		(len(g.Principles) == 0 &&
			len(g.UserTypes) == 0 &&
			len(g.IssueCategories) == 0 &&
			len(g.Procedures) == 0 &&
			len(g.DecisionPoints) == 0)
}

// normalize replaces nil slices with empty ones so the merged graph
// serializes as [] rather than null.
func (g *Graph) normalize() {
	if g.Principles == nil {
		g.Principles = []string{}
	}
	if g.UserTypes == nil {
		g.UserTypes = []string{}
	}
	if g.IssueCategories == nil {
		g.IssueCategories = []string{}
	}
	if g.Procedures == nil {
		g.Procedures = []Procedure{}
	}
	if g.DecisionPoints == nil {
		g.DecisionPoints = []DecisionPoint{}
	}
	if g.ConceptOrder == nil {
		g.ConceptOrder = []string{}
	}
}
