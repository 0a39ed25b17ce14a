package concept

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/treeline-ai/treeline/internal/chunker"
	"github.com/treeline-ai/treeline/internal/oracle"
)

const extractionSystem = `You are an expert at analyzing operational runbooks and support documentation. You identify the underlying decision structure: who the actors are, what categories of issues exist, what procedures resolve them, and what questions route between them. You respond with JSON only.`

const extractionPrompt = `Analyze the following runbook section and extract its concept graph. Return a single JSON object with exactly these fields:

- "principles": guiding rules or policies stated in the text (array of strings)
- "userTypes": distinct actor or user types mentioned (array of strings)
- "issueCategories": mutually exclusive categories of issues or requests (array of strings)
- "procedures": array of {"name", "prerequisites", "steps", "outcomes"} where steps are ordered instructions and outcomes are possible end states
- "decisionPoints": array of {"question", "dependsOn", "determines"}: the questions that route between categories and procedures, what each depends on, and what it determines
- "conceptOrder": every concept name above, ordered so that each concept appears after the concepts it depends on

Rules:
- Extract only what the text supports; do not invent procedures.
- Keep procedure names short and unique.
- A decision point's question must be answerable from information available at that point.
- Return ONLY the JSON object, no other text.`

// Extractor runs one oracle call per chunk to pull out a concept graph.
// Chunks are processed sequentially by the caller, never in parallel: this
// bounds concurrent load on the oracle and keeps progress accounting simple.
type Extractor struct {
	oracle oracle.Completer
}

func NewExtractor(o oracle.Completer) *Extractor {
	return &Extractor{oracle: o}
}

// Extract pulls the concept graph out of a single chunk.
func (e *Extractor) Extract(ctx context.Context, chunk chunker.Chunk) (*Graph, error) {
	prompt := buildExtractionPrompt(chunk)
	raw, err := e.oracle.Complete(ctx, oracle.Request{
		System: extractionSystem,
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("extract chunk %d: %w", chunk.Index, err)
	}

	text := oracle.StripCodeFence(raw)
	var g Graph
	if err := json.Unmarshal([]byte(text), &g); err != nil {
		return nil, fmt.Errorf("extract chunk %d: parse concept graph: %w", chunk.Index, err)
	}
	g.normalize()
	return &g, nil
}

func buildExtractionPrompt(chunk chunker.Chunk) string {
	var sb strings.Builder
	sb.WriteString(extractionPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Section %d:\n", chunk.Index+1))
	sb.WriteString("---\n")
	sb.WriteString(chunk.Text)
	return sb.String()
}
