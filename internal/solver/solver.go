// ============================================================================
// pcmax solver - one run from instance to result
// ============================================================================
//
// Package: internal/solver
// File: solver.go
// Purpose: Wires the random sampler, the genetic engine, metrics and
// observers together for a single instance and assembles the RunResult.
//
// Run flow:
//   1. Validate instance and engine parameters (nothing is built on error)
//   2. Seed a *rand.Rand; seed 0 means "pick one from the clock"
//   3. Zero processes: return makespan 0 without touching the engine loop
//   4. Seed the population from the random sampler
//   5. Run the engine until stagnation (or context cancellation)
//   6. Decode the best genotype and record the run outcome
//
// A Solver holds no per-run state and can be shared by bench workers.
//
// ============================================================================

package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ChuLiYu/pcmax-genetic/internal/genetic"
	"github.com/ChuLiYu/pcmax-genetic/internal/metrics"
	"github.com/ChuLiYu/pcmax-genetic/internal/result"
	"github.com/ChuLiYu/pcmax-genetic/internal/sampler"
	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
)

// Config is the per-run configuration.
type Config struct {
	Engine genetic.Config
	Seed   int64 // 0 picks a clock based seed
}

// RunRecorder receives run level metrics. *metrics.Collector implements it.
type RunRecorder interface {
	ForRun(instance string) genetic.Observer
	RecordRun(outcome string, seconds float64)
}

// Solver runs the genetic engine for one instance at a time.
type Solver struct {
	config   Config
	recorder RunRecorder
	logger   *slog.Logger
}

// Option customizes a Solver.
type Option func(*Solver)

// WithRecorder attaches run metrics.
func WithRecorder(r RunRecorder) Option {
	return func(s *Solver) { s.recorder = r }
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Solver.
func New(config Config, opts ...Option) *Solver {
	s := &Solver{
		config: config,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve runs one instance. seed overrides the configured seed when non-zero.
// Observers receive the engine events of this run only.
func (s *Solver) Solve(ctx context.Context, name string, inst types.Instance, seed int64, observers ...genetic.Observer) (types.RunResult, error) {
	start := time.Now()

	res, err := s.solve(ctx, name, inst, seed, observers)
	res.Elapsed = time.Since(start)

	if s.recorder != nil {
		outcome := metrics.OutcomeCompleted
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			outcome = metrics.OutcomeCancelled
		case err != nil:
			outcome = metrics.OutcomeFailed
		}
		s.recorder.RecordRun(outcome, res.Elapsed.Seconds())
	}
	return res, err
}

func (s *Solver) solve(ctx context.Context, name string, inst types.Instance, seed int64, observers []genetic.Observer) (types.RunResult, error) {
	if err := inst.Validate(); err != nil {
		return types.RunResult{}, err
	}
	if err := s.config.Engine.Validate(); err != nil {
		return types.RunResult{}, err
	}

	if seed == 0 {
		seed = s.config.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	res := types.RunResult{
		SchemaVer:  result.SchemaVersion,
		Instance:   name,
		Processors: inst.Processors,
		Durations:  append([]float64{}, inst.Durations...),
		Seed:       seed,
		CreatedAt:  time.Now().UnixMilli(),
	}

	log := s.logger.With("instance", name, "seed", seed)

	if len(inst.Durations) == 0 {
		log.Info("instance has no processes")
		res.Genotype = types.Genotype{}
		res.Schedule, _ = genetic.Decode(nil, inst.Processors, res.Genotype)
		res.Loads = genetic.Loads(res.Schedule)
		return res, nil
	}

	if s.recorder != nil {
		observers = append(observers, s.recorder.ForRun(name))
	}

	rng := rand.New(rand.NewSource(seed))
	random, err := sampler.NewRandom(inst.Processors, inst.Durations, rng)
	if err != nil {
		return res, err
	}
	engine, err := genetic.NewEngine(s.config.Engine, inst.Durations, inst.Processors, rng,
		genetic.WithObserver(genetic.Observers(observers)),
		genetic.WithLogger(log),
	)
	if err != nil {
		return res, err
	}

	population, err := engine.Seed(random)
	if err != nil {
		return res, fmt.Errorf("failed to seed population: %w", err)
	}
	log.Debug("population seeded", "size", len(population), "processes", len(inst.Durations))

	outcome, err := engine.Run(ctx, population)
	res.Generations = outcome.Generations
	if err != nil {
		return res, fmt.Errorf("genetic run stopped: %w", err)
	}

	schedule, err := genetic.Decode(inst.Durations, inst.Processors, outcome.Genotype)
	if err != nil {
		return res, fmt.Errorf("failed to decode best genotype: %w", err)
	}
	res.Makespan = outcome.Makespan
	res.Genotype = outcome.Genotype
	res.Schedule = schedule
	res.Loads = genetic.Loads(schedule)
	return res, nil
}
