package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/treeline-ai/treeline/internal/chunker"
	"github.com/treeline-ai/treeline/internal/concept"
	"github.com/treeline-ai/treeline/internal/enrich"
	"github.com/treeline-ai/treeline/internal/graph"
	"github.com/treeline-ai/treeline/internal/oracle"
	"github.com/treeline-ai/treeline/internal/synth"
)

// Config controls a runner's behavior.
type Config struct {
	MaxTokensPerChunk int  // Per-chunk token budget.
	EnrichRunbooks    bool // Run the best-effort bulk enrichment pass after layout.
}

// Runner executes the full synthesis pipeline for one document. There is no
// package-level state; a Runner is safe for concurrent use because each Run
// owns its own chunks, concept graph, and decision graph.
type Runner struct {
	oracle      oracle.Completer
	extractor   *concept.Extractor
	synthesizer *synth.Synthesizer
	critic      *synth.Critic
	refiner     *synth.Refiner
	enricher    *enrich.Enricher
	log         *slog.Logger
	cfg         Config
}

func NewRunner(o oracle.Completer, log *slog.Logger, cfg Config) *Runner {
	if cfg.MaxTokensPerChunk <= 0 {
		cfg.MaxTokensPerChunk = chunker.DefaultMaxTokens
	}
	return &Runner{
		oracle:      o,
		extractor:   concept.NewExtractor(o),
		synthesizer: synth.NewSynthesizer(o, log),
		critic:      synth.NewCritic(o, log),
		refiner:     synth.NewRefiner(o, log),
		enricher:    enrich.NewEnricher(o, log),
		log:         log,
		cfg:         cfg,
	}
}

// Run executes the pipeline and returns its event stream. The stream ends
// with exactly one complete or error event and is then closed. Cancelling
// ctx aborts the in-flight oracle call and stops the stream.
func (r *Runner) Run(ctx context.Context, sourceText string) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		r.run(ctx, sourceText, events)
	}()
	return events
}

// emit delivers an event unless the consumer is gone. A false return means
// the run should stop.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func progress(state State, message, detail string, percent int) Event {
	return Event{
		Type:    EventProgress,
		Stage:   state.Stage(),
		Message: message,
		Detail:  detail,
		Percent: percent,
	}
}

func (r *Runner) run(ctx context.Context, sourceText string, events chan<- Event) {
	start := time.Now()
	log := r.log.With("pipeline", "synthesis")

	fail := func(state State, err error) {
		log.Error("pipeline failed", "state", state.String(), "error", err)
		emit(ctx, events, Event{
			Type:    EventError,
			Stage:   state.Stage(),
			Message: fmt.Sprintf("failed while %s", state.String()),
			Percent: 0,
			Error:   err.Error(),
		})
	}

	// Chunking. Size validation rejects oversized input before any oracle
	// call is made.
	if err := chunker.ValidateSize(sourceText, r.cfg.MaxTokensPerChunk); err != nil {
		fail(StateChunking, err)
		return
	}
	chunks := chunker.Split(sourceText, r.cfg.MaxTokensPerChunk)
	log.Info("chunked document", "chunks", len(chunks))
	if !emit(ctx, events, progress(StateChunking,
		"Reading the document",
		fmt.Sprintf("%d section group(s)", len(chunks)), 8)) {
		return
	}

	// Concept extraction, one chunk at a time. Sequential by design: it
	// bounds concurrent load on the oracle and keeps percent accounting a
	// simple function of the chunk index.
	graphs := make([]*concept.Graph, 0, len(chunks))
	for i, chunk := range chunks {
		pct := 8 + (37*i)/len(chunks)
		if !emit(ctx, events, progress(StateExtracting,
			"Identifying concepts and procedures",
			fmt.Sprintf("section group %d of %d", i+1, len(chunks)), pct)) {
			return
		}
		var cg *concept.Graph
		err := r.withRetry(ctx, func() error {
			var extractErr error
			cg, extractErr = r.extractor.Extract(ctx, chunk)
			return extractErr
		})
		if err != nil {
			fail(StateExtracting, err)
			return
		}
		graphs = append(graphs, cg)
	}

	concepts := concept.Merge(graphs)
	if concepts.IsEmpty() {
		fail(StateExtracting, fmt.Errorf("no concepts could be extracted from the document"))
		return
	}
	if !emit(ctx, events, progress(StateExtracting,
		"Merging concepts across sections",
		fmt.Sprintf("%d procedures, %d decision points", len(concepts.Procedures), len(concepts.DecisionPoints)), 45)) {
		return
	}

	// Synthesis. Failure here is fatal: there is no earlier graph to fall
	// back to.
	if !emit(ctx, events, progress(StateSynthesizing, "Designing the decision graph", "", 50)) {
		return
	}
	var g *graph.Graph
	var reasoning string
	err := r.withRetry(ctx, func() error {
		var synthErr error
		g, reasoning, synthErr = r.synthesizer.Synthesize(ctx, sourceText, concepts)
		return synthErr
	})
	if err != nil {
		fail(StateSynthesizing, err)
		return
	}
	if !emit(ctx, events, progress(StateSynthesizing,
		"Initial graph ready",
		fmt.Sprintf("%d nodes, %d runbooks", len(g.Nodes), len(g.Runbooks)), 62)) {
		return
	}

	// Critique. Never fatal: on failure the critic substitutes a neutral
	// report and the pipeline keeps the graph it already has.
	if !emit(ctx, events, progress(StateCritiquing, "Reviewing graph structure", "", 65)) {
		return
	}
	report := r.critic.Critique(ctx, g, sourceText)
	if !emit(ctx, events, progress(StateCritiquing,
		"Review complete",
		fmt.Sprintf("score %d/10, %d issue(s)", report.Score, len(report.Issues)), 75)) {
		return
	}

	// Refinement: exactly one attempt, and only when the critique warrants
	// it. The outcome always carries a usable graph.
	refined := false
	if report.NeedsRefinement() {
		if !emit(ctx, events, progress(StateRefining,
			"Repairing flagged issues",
			fmt.Sprintf("%d issue(s) to address", len(report.Issues)), 78)) {
			return
		}
		outcome := r.refiner.Refine(ctx, g, report, sourceText)
		g = outcome.Graph
		refined = outcome.Applied
		if outcome.Applied {
			reasoning = outcome.Reasoning
		}
		if !emit(ctx, events, progress(StateRefining, "Refinement finished", "", 85)) {
			return
		}
	}

	// Deterministic passes.
	graph.NormalizeLabels(g)
	if !emit(ctx, events, progress(StateNormalizing, "Normalizing question labels", "", 90)) {
		return
	}
	graph.AssignLayout(g)
	if !emit(ctx, events, progress(StateLayingOut, "Laying out the graph", "", 95)) {
		return
	}

	enriched := 0
	if r.cfg.EnrichRunbooks && len(g.Runbooks) > 0 {
		if !emit(ctx, events, progress(StateLayingOut, "Enriching runbook steps", "", 98)) {
			return
		}
		enriched = r.enricher.EnrichRunbooks(ctx, g, sourceText)
	}

	summary := &Summary{
		Chunks:        len(chunks),
		Nodes:         len(g.Nodes),
		Edges:         len(g.Edges),
		Runbooks:      len(g.Runbooks),
		CritiqueScore: report.Score,
		Refined:       refined,
		Enriched:      enriched,
		Reasoning:     reasoning,
		DurationMs:    time.Since(start).Milliseconds(),
	}
	log.Info("pipeline complete",
		"nodes", summary.Nodes,
		"edges", summary.Edges,
		"runbooks", summary.Runbooks,
		"refined", refined,
		"duration_ms", summary.DurationMs,
	)
	emit(ctx, events, Event{
		Type:    EventComplete,
		Message: "Decision graph ready",
		Percent: 100,
		Graph:   g.Clone(),
		Summary: summary,
	})
}

// withRetry re-attempts fn on retryable oracle errors with jittered
// exponential backoff.
func (r *Runner) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		r.log.Warn("retryable oracle error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
