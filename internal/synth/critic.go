package synth

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/treeline-ai/treeline/internal/graph"
	"github.com/treeline-ai/treeline/internal/oracle"
)

// Critic scores a decision graph and enumerates its defects via one oracle
// call constrained to the fixed issue taxonomy.
type Critic struct {
	oracle oracle.Completer
	log    *slog.Logger
}

func NewCritic(o oracle.Completer, log *slog.Logger) *Critic {
	return &Critic{oracle: o, log: log}
}

// Critique reviews the graph against the source text. It never fails the
// pipeline: when the oracle errors or returns an unparseable report, a
// neutral low-confidence report is substituted instead.
func (c *Critic) Critique(ctx context.Context, g *graph.Graph, sourceText string) *CritiqueReport {
	raw, err := c.oracle.Complete(ctx, oracle.Request{
		System: critiqueSystem,
		Prompt: buildCritiquePrompt(g, sourceText),
	})
	if err != nil {
		c.log.Warn("critique call failed, substituting neutral report", "error", err)
		return NeutralReport()
	}

	text := oracle.StripCodeFence(raw)
	var report CritiqueReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		c.log.Warn("critique report unparseable, substituting neutral report", "error", err)
		return NeutralReport()
	}

	sanitizeReport(&report)
	c.log.Info("critique complete",
		"score", report.Score,
		"passes_review", report.PassesReview,
		"issues", issueSummary(report.Issues),
	)
	return &report
}

// sanitizeReport clamps the score, drops issues outside the taxonomy, and
// enforces the auto-fail rule for merged_paths and disconnected_node.
func sanitizeReport(report *CritiqueReport) {
	if report.Score < 1 {
		report.Score = 1
	}
	if report.Score > 10 {
		report.Score = 10
	}

	kept := report.Issues[:0]
	for _, issue := range report.Issues {
		if !validIssueTypes[issue.Type] {
			continue
		}
		kept = append(kept, issue)
		if autoFailTypes[issue.Type] {
			report.PassesReview = false
		}
	}
	report.Issues = kept
	if report.Issues == nil {
		report.Issues = []Issue{}
	}
}
