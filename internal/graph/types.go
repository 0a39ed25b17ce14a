// Package graph defines the decision graph the pipeline produces: questions,
// answer branches, executable runbooks, and terminal outcomes, plus the
// structural validation, label normalization, and layout passes that run
// over it.
package graph

// NodeKind classifies a decision graph node.
type NodeKind string

const (
	KindStart    NodeKind = "start"
	KindQuestion NodeKind = "question"
	KindAnswer   NodeKind = "answer"
	KindRunbook  NodeKind = "runbook"
	KindEnd      NodeKind = "end"
)

// TerminalState tags how a path through the graph ends.
type TerminalState string

const (
	TerminalResolved TerminalState = "resolved"
	TerminalEscalate TerminalState = "escalate"
	TerminalManual   TerminalState = "manual"
	TerminalBlocked  TerminalState = "blocked"
)

// SourceRef ties a node back to the passage of the source document that
// justifies it.
type SourceRef struct {
	Quote     string `json:"quote,omitempty"`
	Section   string `json:"section,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Node is a single decision graph node. Layout fields (Depth, X, Y,
// Collapsed) are zero until AssignLayout decorates the graph.
type Node struct {
	ID        string        `json:"id"`
	Kind      NodeKind      `json:"kind"`
	Label     string        `json:"label"`
	Question  string        `json:"question,omitempty"`
	Source    *SourceRef    `json:"source,omitempty"`
	RunbookID string        `json:"runbookId,omitempty"`
	Terminal  TerminalState `json:"terminal,omitempty"`

	Depth     int     `json:"depth"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Collapsed bool    `json:"collapsed,omitempty"`
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// RunbookStep is one ordered instruction inside a runbook.
type RunbookStep struct {
	Order       int      `json:"order"`
	Instruction string   `json:"instruction"`
	Details     string   `json:"details,omitempty"`
	Warning     string   `json:"warning,omitempty"`
	Tools       []string `json:"tools,omitempty"`
}

// Runbook is an executable procedure referenced by runbook nodes.
type Runbook struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Steps         []RunbookStep `json:"steps"`
	Prerequisites []string      `json:"prerequisites,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Related       []string      `json:"related,omitempty"`
}

// Graph is the full decision graph. It is a single mutable value owned by
// the pipeline until returned; downstream consumers get a Clone.
type Graph struct {
	Nodes    []Node    `json:"nodes"`
	Edges    []Edge    `json:"edges"`
	Runbooks []Runbook `json:"runbooks"`
}

// IsEmpty reports whether the graph has no nodes.
func (g *Graph) IsEmpty() bool {
	return g == nil || len(g.Nodes) == 0
}

// Clone returns a deep copy safe to hand to consumers while the pipeline
// still owns the original.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{
		Nodes:    make([]Node, len(g.Nodes)),
		Edges:    make([]Edge, len(g.Edges)),
		Runbooks: make([]Runbook, len(g.Runbooks)),
	}
	copy(out.Edges, g.Edges)
	for i, n := range g.Nodes {
		if n.Source != nil {
			src := *n.Source
			n.Source = &src
		}
		out.Nodes[i] = n
	}
	for i, rb := range g.Runbooks {
		rb.Steps = append([]RunbookStep(nil), rb.Steps...)
		for j, step := range rb.Steps {
			rb.Steps[j].Tools = append([]string(nil), step.Tools...)
		}
		rb.Prerequisites = append([]string(nil), rb.Prerequisites...)
		rb.Related = append([]string(nil), rb.Related...)
		out.Runbooks[i] = rb
	}
	return out
}

// NodeByID returns a pointer into the graph's node slice, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// terminal reports whether a node legitimately has no outgoing edges.
func (n *Node) terminal() bool {
	return n.Kind == KindEnd || n.Terminal != ""
}
