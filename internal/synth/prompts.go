package synth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/treeline-ai/treeline/internal/concept"
	"github.com/treeline-ai/treeline/internal/graph"
)

const synthesisSystem = `You are an expert at converting support runbooks into decision trees. You design graphs a support agent can walk top to bottom: a start node, routing questions, answer branches, executable runbooks, and terminal outcomes. You respond with JSON only.`

const synthesisPrompt = `Build a decision graph from the source document and its extracted concept graph. Return a single JSON object:

{
  "nodes": [{"id", "kind", "label", "question"?, "source"?: {"quote", "section", "reasoning"}, "runbookId"?, "terminal"?}],
  "edges": [{"id", "source", "target", "label"?}],
  "runbooks": [{"id", "title", "description", "steps": [{"order", "instruction", "details"?, "warning"?, "tools"?}], "prerequisites"?, "notes"?, "related"?}],
  "reasoning": "one paragraph explaining the structure you chose"
}

Node kinds: "start", "question", "answer", "runbook", "end". Terminal states: "resolved", "escalate", "manual", "blocked".

Structural requirements (these are checked mechanically, not suggestions):
1. Once a question splits into mutually exclusive categories, the branches must NEVER share a downstream node. Duplicate a shared procedure into each branch instead of merging paths.
2. Every answer to a question must be its own "answer" node; never wire a question directly into another question.
3. Every node must be reachable from the start node, and every node must have an outgoing edge unless it is an end node or carries a terminal state.
4. Exactly one "start" node.

Ground every question and runbook in the source: fill the "source" reference with the quote and section that justify it.

Return ONLY the JSON object, no other text.`

const critiqueSystem = `You are a meticulous reviewer of decision graphs generated from runbooks. You score structure, not prose style, and you only report issues from the fixed taxonomy you are given. You respond with JSON only.`

const critiquePrompt = `Review this decision graph against its source document. Return a single JSON object:

{"score": 1-10, "issues": [{"type", "nodeId"?, "description", "suggestion"}], "passesReview": true/false, "summary": "one paragraph"}

Issue types (use no others):
- "merged_paths": branches of a categorical question share a downstream node
- "disconnected_node": a node is unreachable or dead-ends without a terminal state
- "collapsed_procedure": distinct procedures from the source were flattened into one runbook
- "missing_why": a question or step lacks the reasoning the source provides
- "unseparated_prerequisite": prerequisites are buried inside steps instead of listed separately
- "shallow_runbook": a runbook omits steps the source spells out
- "complex_runbook": a runbook bundles so many steps it should be split

"merged_paths" and "disconnected_node" always fail review regardless of score.

Return ONLY the JSON object, no other text.`

const refineSystem = `You are an expert at repairing decision graphs. You apply a reviewer's feedback while preserving everything the reviewer did not flag. You respond with JSON only.`

const refinePrompt = `Repair this decision graph. Apply every issue from the critique below, keep all unflagged structure intact, and return the complete corrected graph in the same JSON shape as the input, plus a "reasoning" field describing what you changed.

The structural requirements still hold: categorical branches never share downstream nodes, answers sit between questions, every node is reachable and has an exit unless terminal.

Return ONLY the JSON object, no other text.`

func buildSynthesisPrompt(sourceText string, concepts *concept.Graph) string {
	conceptJSON, _ := json.MarshalIndent(concepts, "", "  ")
	var sb strings.Builder
	sb.WriteString(synthesisPrompt)
	sb.WriteString("\n\n--- CONCEPT GRAPH ---\n")
	sb.Write(conceptJSON)
	sb.WriteString("\n\n--- SOURCE DOCUMENT ---\n")
	sb.WriteString(sourceText)
	return sb.String()
}

func buildCritiquePrompt(g *graph.Graph, sourceText string) string {
	graphJSON, _ := json.MarshalIndent(g, "", "  ")
	var sb strings.Builder
	sb.WriteString(critiquePrompt)
	sb.WriteString("\n\n--- DECISION GRAPH ---\n")
	sb.Write(graphJSON)
	sb.WriteString("\n\n--- SOURCE DOCUMENT ---\n")
	sb.WriteString(sourceText)
	return sb.String()
}

func buildRefinePrompt(g *graph.Graph, report *CritiqueReport, sourceText string) string {
	graphJSON, _ := json.MarshalIndent(g, "", "  ")
	reportJSON, _ := json.MarshalIndent(report, "", "  ")
	var sb strings.Builder
	sb.WriteString(refinePrompt)
	sb.WriteString("\n\n--- CRITIQUE ---\n")
	sb.Write(reportJSON)
	sb.WriteString("\n\n--- DECISION GRAPH ---\n")
	sb.Write(graphJSON)
	sb.WriteString("\n\n--- SOURCE DOCUMENT ---\n")
	sb.WriteString(sourceText)
	return sb.String()
}

func issueSummary(issues []Issue) string {
	if len(issues) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(issues))
	for _, is := range issues {
		parts = append(parts, fmt.Sprintf("%s (%s)", is.Type, is.Description))
	}
	return strings.Join(parts, "; ")
}
