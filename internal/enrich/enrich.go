// Package enrich adds oracle-generated detail to runbook steps after a
// successful pipeline run. Runbooks are enriched in batches, which makes the
// responses long enough to routinely hit output token limits; this is the
// path the JSON repair heuristics exist for. Enrichment is strictly best
// effort: any failure leaves the original runbook content untouched.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/treeline-ai/treeline/internal/graph"
	"github.com/treeline-ai/treeline/internal/jsonrepair"
	"github.com/treeline-ai/treeline/internal/oracle"
)

// BatchSize is how many runbooks share one oracle call.
const BatchSize = 5

const enrichSystem = `You expand terse runbook steps into actionable detail a support agent can follow without guessing. You never change step order or invent steps. You respond with JSON only.`

const enrichPrompt = `For each runbook below, write a one-sentence description and expand each step with a "details" string (commands to run, what to look for, common mistakes). Return a JSON array with one object per runbook, in the same order:

[{"id": "...", "description": "...", "steps": [{"order": 1, "details": "..."}]}]

Return ONLY the JSON array, no other text.`

type stepPatch struct {
	Order   int    `json:"order"`
	Details string `json:"details"`
}

type runbookPatch struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Steps       []stepPatch `json:"steps"`
}

// Enricher fills in runbook step details in bulk.
type Enricher struct {
	oracle oracle.Completer
	log    *slog.Logger
}

func NewEnricher(o oracle.Completer, log *slog.Logger) *Enricher {
	return &Enricher{oracle: o, log: log}
}

// EnrichRunbooks mutates g's runbooks in place, batch by batch. It returns
// the number of runbooks enriched; it never returns an error because every
// failure mode falls back to the original content per item.
func (e *Enricher) EnrichRunbooks(ctx context.Context, g *graph.Graph, sourceText string) int {
	enriched := 0
	for start := 0; start < len(g.Runbooks); start += BatchSize {
		end := min(start+BatchSize, len(g.Runbooks))
		batch := g.Runbooks[start:end]

		patches, err := e.enrichBatch(ctx, batch, sourceText)
		if err != nil {
			e.log.Warn("enrichment batch failed, keeping original content",
				"batch_start", start, "batch_size", len(batch), "error", err)
			continue
		}
		for i := range batch {
			if applyPatch(&batch[i], patches[i]) {
				enriched++
			}
		}
	}
	return enriched
}

// enrichBatch runs one oracle call for a batch and decodes the response,
// attempting repair when the output was truncated. The returned slice is
// index-aligned with the batch or an error is returned.
func (e *Enricher) enrichBatch(ctx context.Context, batch []graph.Runbook, sourceText string) ([]runbookPatch, error) {
	raw, err := e.oracle.Complete(ctx, oracle.Request{
		System: enrichSystem,
		Prompt: buildEnrichPrompt(batch, sourceText),
	})
	if err != nil {
		return nil, fmt.Errorf("enrich batch: %w", err)
	}

	text := oracle.StripCodeFence(raw)
	var patches []runbookPatch
	if err := json.Unmarshal([]byte(text), &patches); err != nil {
		repaired, repairErr := jsonrepair.Repair(text)
		if repairErr != nil {
			return nil, fmt.Errorf("enrich batch: parse failed and repair failed: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &patches); err != nil {
			return nil, fmt.Errorf("enrich batch: repaired output still unparseable: %w", err)
		}
		e.log.Info("repaired truncated enrichment response",
			"original_len", len(text), "repaired_len", len(repaired))
	}

	if len(patches) != len(batch) {
		return nil, fmt.Errorf("enrich batch: got %d patches for %d runbooks", len(patches), len(batch))
	}
	return patches, nil
}

// applyPatch merges a patch into a runbook, matching steps by order and
// never overwriting detail that already exists.
func applyPatch(rb *graph.Runbook, patch runbookPatch) bool {
	if patch.ID != rb.ID {
		return false
	}
	changed := false
	if rb.Description == "" && patch.Description != "" {
		rb.Description = patch.Description
		changed = true
	}
	details := make(map[int]string, len(patch.Steps))
	for _, sp := range patch.Steps {
		details[sp.Order] = sp.Details
	}
	for i := range rb.Steps {
		if rb.Steps[i].Details == "" {
			if d, ok := details[rb.Steps[i].Order]; ok && d != "" {
				rb.Steps[i].Details = d
				changed = true
			}
		}
	}
	return changed
}

func buildEnrichPrompt(batch []graph.Runbook, sourceText string) string {
	batchJSON, _ := json.MarshalIndent(batch, "", "  ")
	var sb strings.Builder
	sb.WriteString(enrichPrompt)
	sb.WriteString("\n\n--- RUNBOOKS ---\n")
	sb.Write(batchJSON)
	sb.WriteString("\n\n--- SOURCE DOCUMENT ---\n")
	sb.WriteString(sourceText)
	return sb.String()
}
