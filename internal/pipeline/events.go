// Package pipeline sequences chunking, concept extraction, graph synthesis,
// critique, refinement, normalization, and layout into a cancellable stream
// of progress events.
package pipeline

import (
	"github.com/treeline-ai/treeline/internal/graph"
)

// EventType classifies a stream event. An error event terminates the
// stream; no further events follow it.
type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Stage is the coarse, user-facing phase a progress event belongs to.
type Stage string

const (
	StageParsing     Stage = "parsing"
	StageIdentifying Stage = "identifying"
	StageStructuring Stage = "structuring"
	StageGenerating  Stage = "generating"
)

// State is the pipeline's internal position. Cancellation is checked at
// every state transition.
type State int

const (
	StateQueued State = iota
	StateChunking
	StateExtracting
	StateSynthesizing
	StateCritiquing
	StateRefining
	StateNormalizing
	StateLayingOut
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateChunking:
		return "chunking"
	case StateExtracting:
		return "extracting"
	case StateSynthesizing:
		return "synthesizing"
	case StateCritiquing:
		return "critiquing"
	case StateRefining:
		return "refining"
	case StateNormalizing:
		return "normalizing"
	case StateLayingOut:
		return "laying_out"
	case StateDone:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stage maps an internal state to its user-facing phase.
func (s State) Stage() Stage {
	switch s {
	case StateQueued, StateChunking:
		return StageParsing
	case StateExtracting:
		return StageIdentifying
	case StateSynthesizing:
		return StageStructuring
	default:
		return StageGenerating
	}
}

// Summary is the metadata attached to the complete event.
type Summary struct {
	Chunks        int    `json:"chunks"`
	Nodes         int    `json:"nodes"`
	Edges         int    `json:"edges"`
	Runbooks      int    `json:"runbooks"`
	CritiqueScore int    `json:"critique_score"`
	Refined       bool   `json:"refined"`
	Enriched      int    `json:"enriched,omitempty"`
	Reasoning     string `json:"reasoning,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
}

// Event is one element of the progress stream. Percent is monotonically
// non-decreasing within a run.
type Event struct {
	Type    EventType `json:"type"`
	Stage   Stage     `json:"stage,omitempty"`
	Message string    `json:"message,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	Percent int       `json:"percent"`

	// Complete-only payload.
	Graph   *graph.Graph `json:"graph,omitempty"`
	Summary *Summary     `json:"summary,omitempty"`

	// Error-only payload.
	Error string `json:"error,omitempty"`
}
