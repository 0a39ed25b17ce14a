package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Orchestrator manages asynchronous graph generation runs: a bounded queue,
// a fixed worker pool, and TTL-based run eviction. Each worker drains one
// run's event stream at a time; there is no parallelism inside a run.
type Orchestrator struct {
	runs        *RunStore
	queue       chan *Run
	runner      *Runner
	log         *slog.Logger
	workerCount int
	maxQueue    int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOrchestrator(runner *Runner, log *slog.Logger, workerCount, maxQueue int, runTTL time.Duration) *Orchestrator {
	if workerCount <= 0 {
		workerCount = 2
	}
	if maxQueue <= 0 {
		maxQueue = 50
	}
	return &Orchestrator{
		runs:        NewRunStore(runTTL),
		queue:       make(chan *Run, maxQueue),
		runner:      runner,
		log:         log,
		workerCount: workerCount,
		maxQueue:    maxQueue,
	}
}

// Start launches worker goroutines and the run-store cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.workerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case run, ok := <-o.queue:
					if !ok {
						return
					}
					o.process(workerCtx, run)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.runs.Cleanup()
			}
		}
	}()
}

// process drains one run's event stream into its snapshot state.
func (o *Orchestrator) process(ctx context.Context, run *Run) {
	log := o.log.With("run_id", run.ID)
	log.Info("run started", "filename", run.Filename)

	for ev := range o.runner.Run(ctx, run.SourceText()) {
		run.Apply(ev)
	}
	if ctx.Err() != nil {
		run.SetFailed("server shutting down")
	}

	snap := run.Snapshot()
	log.Info("run finished", "status", snap.Status, "percent", snap.Percent)
}

// Stop gracefully shuts down the orchestrator.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new run for processing.
func (o *Orchestrator) Submit(run *Run) error {
	o.runs.Put(run)
	select {
	case o.queue <- run:
		return nil
	default:
		run.SetFailed("queue full")
		return fmt.Errorf("run queue is full (%d)", o.maxQueue)
	}
}

// GetRun returns a run by ID, or nil.
func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

// QueueDepth returns the current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
