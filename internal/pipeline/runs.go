package pipeline

import (
	"sync"
	"time"

	"github.com/treeline-ai/treeline/internal/graph"
)

// Run tracks the state of a single asynchronous graph generation.
type Run struct {
	mu sync.Mutex

	ID       string
	Filename string
	Title    string

	State   State
	Stage   Stage
	Percent int
	Message string
	Errors  []string

	Graph   *graph.Graph
	Summary *Summary

	CreatedAt time.Time
	UpdatedAt time.Time

	// Internal: not serialized.
	sourceText string
}

// NewRun creates a queued run for the given flattened document text.
func NewRun(filename, title, sourceText string) *Run {
	now := time.Now()
	return &Run{
		ID:         generateULID(),
		Filename:   filename,
		Title:      title,
		State:      StateQueued,
		Stage:      StageParsing,
		Message:    "queued",
		CreatedAt:  now,
		UpdatedAt:  now,
		sourceText: sourceText,
	}
}

// SourceText returns the document text this run was created for.
func (r *Run) SourceText() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sourceText
}

// Apply folds a pipeline event into the run's state.
func (r *Run) Apply(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpdatedAt = time.Now()

	switch ev.Type {
	case EventProgress:
		r.Stage = ev.Stage
		if ev.Percent > r.Percent {
			r.Percent = ev.Percent
		}
		r.Message = ev.Message
		r.State = stateForStage(ev.Stage)
	case EventComplete:
		r.State = StateDone
		r.Percent = 100
		r.Message = ev.Message
		r.Graph = ev.Graph
		r.Summary = ev.Summary
		// The source text is no longer needed once the run finishes.
		r.sourceText = ""
	case EventError:
		r.State = StateFailed
		r.Message = ev.Message
		r.Errors = append(r.Errors, ev.Error)
		r.sourceText = ""
	}
}

// SetFailed marks a run failed outside the event stream (e.g. queue full).
func (r *Run) SetFailed(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.State = StateFailed
	r.Message = reason
	r.Errors = append(r.Errors, reason)
	r.UpdatedAt = time.Now()
	r.sourceText = ""
}

// stateForStage picks a representative internal state for status reporting.
// The event stream is the precise record; the run snapshot is coarse.
func stateForStage(stage Stage) State {
	switch stage {
	case StageParsing:
		return StateChunking
	case StageIdentifying:
		return StateExtracting
	case StageStructuring:
		return StateSynthesizing
	default:
		return StateCritiquing
	}
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID        string    `json:"run_id"`
	Filename  string    `json:"filename,omitempty"`
	Title     string    `json:"title,omitempty"`
	Status    string    `json:"status"`
	Stage     Stage     `json:"stage"`
	Percent   int       `json:"percent"`
	Message   string    `json:"message,omitempty"`
	Errors    []string  `json:"errors"`
	Summary   *Summary  `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state, without the graph.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return RunSnapshot{
		ID:        r.ID,
		Filename:  r.Filename,
		Title:     r.Title,
		Status:    r.State.String(),
		Stage:     r.Stage,
		Percent:   r.Percent,
		Message:   r.Message,
		Errors:    errs,
		Summary:   r.Summary,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Result returns the finished graph, or nil while the run is in flight or
// after a failure. The caller gets a copy; the run keeps its own.
func (r *Run) Result() *graph.Graph {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State != StateDone || r.Graph == nil {
		return nil
	}
	return r.Graph.Clone()
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Cleanup removes expired runs.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		run.mu.Lock()
		expired := now.Sub(run.UpdatedAt) > s.ttl
		run.mu.Unlock()
		if expired {
			delete(s.runs, id)
		}
	}
}
