package synth

import (
	"context"
	"log/slog"

	"github.com/treeline-ai/treeline/internal/graph"
	"github.com/treeline-ai/treeline/internal/oracle"
)

// Refiner applies critique feedback in exactly one corrective pass. There is
// no loop back to the critic.
type Refiner struct {
	oracle oracle.Completer
	log    *slog.Logger
}

func NewRefiner(o oracle.Completer, log *slog.Logger) *Refiner {
	return &Refiner{oracle: o, log: log}
}

// Refine attempts one corrective regeneration. The outcome always carries a
// usable graph: the refined one when the call succeeds and validates, the
// pre-refinement graph otherwise. Refinement failure never aborts the
// pipeline.
func (r *Refiner) Refine(ctx context.Context, g *graph.Graph, report *CritiqueReport, sourceText string) RefineOutcome {
	raw, err := r.oracle.Complete(ctx, oracle.Request{
		System: refineSystem,
		Prompt: buildRefinePrompt(g, report, sourceText),
	})
	if err != nil {
		r.log.Warn("refinement call failed, keeping pre-refinement graph", "error", err)
		return RefineOutcome{Graph: g, Applied: false, Reason: "oracle call failed: " + err.Error()}
	}

	refined, reasoning, err := decodeGraphResponse(raw)
	if err != nil {
		r.log.Warn("refined graph failed validation, keeping pre-refinement graph", "error", err)
		return RefineOutcome{Graph: g, Applied: false, Reason: "refined graph invalid: " + err.Error()}
	}

	r.log.Info("refinement applied",
		"nodes_before", len(g.Nodes),
		"nodes_after", len(refined.Nodes),
	)
	return RefineOutcome{Graph: refined, Reasoning: reasoning, Applied: true}
}
