package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/treeline-ai/treeline/internal/concept"
	"github.com/treeline-ai/treeline/internal/graph"
	"github.com/treeline-ai/treeline/internal/oracle"
)

// Synthesizer produces the initial decision graph from the merged concept
// graph via one oracle call.
type Synthesizer struct {
	oracle oracle.Completer
	log    *slog.Logger
}

func NewSynthesizer(o oracle.Completer, log *slog.Logger) *Synthesizer {
	return &Synthesizer{oracle: o, log: log}
}

// graphResponse is the schema the synthesis and refinement calls must
// satisfy: the graph itself plus the model's reasoning.
type graphResponse struct {
	Nodes     []graph.Node    `json:"nodes"`
	Edges     []graph.Edge    `json:"edges"`
	Runbooks  []graph.Runbook `json:"runbooks"`
	Reasoning string          `json:"reasoning"`
}

// Synthesize builds a decision graph from the source text and concept graph.
// Returns ErrEmptyGraph when the oracle's output fails schema validation.
func (s *Synthesizer) Synthesize(ctx context.Context, sourceText string, concepts *concept.Graph) (*graph.Graph, string, error) {
	raw, err := s.oracle.Complete(ctx, oracle.Request{
		System: synthesisSystem,
		Prompt: buildSynthesisPrompt(sourceText, concepts),
	})
	if err != nil {
		return nil, "", fmt.Errorf("synthesize: %w", err)
	}

	g, reasoning, err := decodeGraphResponse(raw)
	if err != nil {
		return nil, "", err
	}

	if defects := graph.Validate(g); len(defects) > 0 {
		// Structural defects are not fatal here; the critic re-verifies
		// them and the refiner gets a chance to repair.
		s.log.Warn("synthesized graph has structural defects", "count", len(defects))
	}
	return g, reasoning, nil
}

// decodeGraphResponse parses and schema-validates a graph-shaped oracle
// response. Shared by synthesis and refinement.
func decodeGraphResponse(raw string) (*graph.Graph, string, error) {
	text := oracle.StripCodeFence(raw)
	var resp graphResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrEmptyGraph, err)
	}
	if len(resp.Nodes) == 0 {
		return nil, "", ErrEmptyGraph
	}
	for _, n := range resp.Nodes {
		if n.ID == "" {
			return nil, "", fmt.Errorf("%w: node with empty id", ErrEmptyGraph)
		}
	}

	g := &graph.Graph{
		Nodes:    resp.Nodes,
		Edges:    resp.Edges,
		Runbooks: resp.Runbooks,
	}
	if g.Edges == nil {
		g.Edges = []graph.Edge{}
	}
	if g.Runbooks == nil {
		g.Runbooks = []graph.Runbook{}
	}
	return g, resp.Reasoning, nil
}
