package worker

import (
	"context"
	"time"

	"github.com/ChuLiYu/pcmax-genetic/internal/genetic"
	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
)

// Task is one independent solver run.
type Task struct {
	ID       int            // position in the bench, echoed in the Result
	Name     string         // instance label for logs and metrics
	Instance types.Instance // shared read-only between tasks
	Seed     int64          // 0 lets the runner pick one
	Timeout  time.Duration  // 0 means no per-task deadline
}

// Result is the outcome of one Task.
type Result struct {
	ID       int
	Run      types.RunResult
	Err      error
	Duration time.Duration
}

// Success reports whether the run completed.
func (r Result) Success() bool {
	return r.Err == nil
}

// Runner executes a single run. *solver.Solver implements it.
type Runner interface {
	Solve(ctx context.Context, name string, inst types.Instance, seed int64, observers ...genetic.Observer) (types.RunResult, error)
}
