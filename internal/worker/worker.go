// ============================================================================
// pcmax Worker - Run Execution Unit
// ============================================================================
//
// Package: internal/worker
// File: worker.go
// Function: Executes solver runs, each Worker in its own goroutine
//
// How it works:
//   1. Receive task from taskCh (blocking wait)
//   2. Derive a context from the pool context, with the task timeout if set
//   3. Run the solver, which owns its own *rand.Rand and population
//   4. Send result to resultCh, blocking until read or the pool stops
//   5. Repeat until taskCh is closed
//
// Execution Model:
//   ┌─────────────────────────────────────┐
//   │  Worker Goroutine                   │
//   │  ┌──────────────────────────────┐   │
//   │  │ for task := range taskCh     │   │
//   │  │   ├─ Context with timeout    │   │
//   │  │   ├─ runner.Solve(task)      │   │
//   │  │   └─ send result to resultCh │   │
//   │  └──────────────────────────────┘   │
//   └─────────────────────────────────────┘
//
// Runs never share state: a worker parallelizes independent runs, not the
// evaluation of one population.
//
// ============================================================================

package worker

import (
	"context"
	"log/slog"
	"time"
)

// Worker pulls tasks until the task channel closes.
type Worker struct {
	id       int
	ctx      context.Context
	runner   Runner
	logger   *slog.Logger
	taskCh   <-chan Task
	resultCh chan<- Result
	stopCh   <-chan struct{}
}

func newWorker(ctx context.Context, id int, runner Runner, logger *slog.Logger, taskCh <-chan Task, resultCh chan<- Result, stopCh <-chan struct{}) *Worker {
	return &Worker{
		id:       id,
		ctx:      ctx,
		runner:   runner,
		logger:   logger,
		taskCh:   taskCh,
		resultCh: resultCh,
		stopCh:   stopCh,
	}
}

// Run is the main loop of the Worker.
func (w *Worker) Run() {
	for task := range w.taskCh {
		select {
		case <-w.stopCh:
			continue // drain without running
		default:
		}
		result := w.execute(task)
		select {
		case w.resultCh <- result:
		case <-w.stopCh:
			// nobody is reading any more
		}
	}
}

func (w *Worker) execute(task Task) Result {
	start := time.Now()

	ctx, cancel := w.ctx, context.CancelFunc(func() {})
	if task.Timeout > 0 {
		ctx, cancel = context.WithTimeout(w.ctx, task.Timeout)
	}
	run, err := w.runner.Solve(ctx, task.Name, task.Instance, task.Seed)
	cancel()

	if err != nil {
		w.logger.Warn("run failed", "worker", w.id, "task", task.ID, "error", err)
	} else {
		w.logger.Debug("run completed", "worker", w.id, "task", task.ID, "makespan", run.Makespan)
	}

	return Result{
		ID:       task.ID,
		Run:      run,
		Err:      err,
		Duration: time.Since(start),
	}
}
