// ============================================================================
// pcmax genetic engine - generational loop
// ============================================================================
//
// Package: internal/genetic
// File: engine.go
// Purpose: Drives selection, crossover, replacement and mutation over one
// population until the best makespan stops improving.
//
// One generation:
//   1. Select the two fittest genotypes (parents A and B)
//   2. Cross them over at the midpoint
//   3. Overwrite the worst slots with the two children
//   4. Mutate the whole population
//   5. Compare the makespan of parent A with the best so far
//
// Termination:
//   The loop stops after NoProgressBailout consecutive generations without
//   improvement. There is no generation cap. The context is checked between
//   generations so an interrupted CLI run returns what it has.
//
// Concurrency:
//   An Engine is single-threaded. The population is mutated in place and
//   must not be shared while Run is executing.
//
// ============================================================================

package genetic

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
)

// Config holds the run parameters. It is passed by value and never changed
// by the engine.
type Config struct {
	PopulationSize      int
	MutationProbability float64
	NoProgressBailout   int
	Replacement         ReplacementPolicy
}

// Validate rejects parameters the loop cannot run with.
func (c Config) Validate() error {
	if c.PopulationSize < 2 {
		return fmt.Errorf("%w: population size %d, need at least 2", ErrInvalidEngineConfig, c.PopulationSize)
	}
	if c.MutationProbability < 0 || c.MutationProbability > 1 || math.IsNaN(c.MutationProbability) {
		return fmt.Errorf("%w: mutation probability %v outside [0,1]", ErrInvalidEngineConfig, c.MutationProbability)
	}
	if c.NoProgressBailout < 1 {
		return fmt.Errorf("%w: no-progress bailout %d, need at least 1", ErrInvalidEngineConfig, c.NoProgressBailout)
	}
	switch c.Replacement {
	case ReplaceSequential, ReplaceDistinct, "":
	default:
		return fmt.Errorf("%w: unknown replacement policy %q", ErrInvalidEngineConfig, c.Replacement)
	}
	return nil
}

// Sampler produces one feasible schedule: every process in exactly one queue.
type Sampler interface {
	Sample() (types.Phenotype, error)
}

// Outcome is the best-so-far record when the loop stops.
type Outcome struct {
	Makespan     float64
	Genotype     types.Genotype
	Generations  int
	Improvements int
}

// Engine runs the genetic loop for one instance.
type Engine struct {
	cfg        Config
	processes  []float64
	processors int
	rng        *rand.Rand
	observer   Observer
	logger     *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithObserver registers o for generation and improvement events.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine validates the parameters and the instance shape.
// rng is the only source of randomness used by mutation.
func NewEngine(cfg Config, processes []float64, processorCount int, rng *rand.Rand, opts ...Option) (*Engine, error) {
	if processorCount < 1 {
		return nil, fmt.Errorf("%w: got %d", types.ErrNoProcessors, processorCount)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidEngineConfig)
	}
	if cfg.Replacement == "" {
		cfg.Replacement = ReplaceSequential
	}

	e := &Engine{
		cfg:        cfg,
		processes:  append([]float64(nil), processes...),
		processors: processorCount,
		rng:        rng,
		observer:   nopObserver{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Seed builds the initial population, one sampler call per slot.
func (e *Engine) Seed(sampler Sampler) (types.Population, error) {
	population := make(types.Population, e.cfg.PopulationSize)
	for i := range population {
		individual, err := sampler.Sample()
		if err != nil {
			return nil, fmt.Errorf("sample individual %d: %w", i, err)
		}
		genotype, err := Encode(e.processes, individual)
		if err != nil {
			return nil, fmt.Errorf("encode individual %d: %w", i, err)
		}
		population[i] = genotype
	}
	return population, nil
}

// Run evolves population in place until stagnation.
func (e *Engine) Run(ctx context.Context, population types.Population) (Outcome, error) {
	if len(e.processes) == 0 {
		e.logger.Info("no processes to schedule", "makespan", 0)
		return Outcome{Genotype: types.Genotype{}}, nil
	}
	if len(population) != e.cfg.PopulationSize {
		return Outcome{}, fmt.Errorf("%w: population has %d individuals, configured %d",
			ErrInvalidEngineConfig, len(population), e.cfg.PopulationSize)
	}
	for i, genotype := range population {
		if err := checkGenotype(len(e.processes), e.processors, genotype); err != nil {
			return Outcome{}, fmt.Errorf("individual %d: %w", i, err)
		}
	}

	out := Outcome{Makespan: math.Inf(1)}
	noProgress := 0

	for noProgress < e.cfg.NoProgressBailout {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		parentA, parentB, err := Select(e.processes, e.processors, population)
		if err != nil {
			return out, err
		}
		childA, childB := Crossover(parentA, parentB)
		slotA, slotB, err := ReplaceWorst(e.processes, e.processors, population, childA, childB, e.cfg.Replacement)
		if err != nil {
			return out, err
		}
		mutations := Mutate(e.rng, e.cfg.MutationProbability, e.processors, population)

		fitness, err := Fitness(e.processes, e.processors, parentA)
		if err != nil {
			return out, err
		}
		current := math.Abs(fitness)
		out.Generations++

		if out.Genotype == nil || current < out.Makespan {
			out.Makespan = current
			out.Genotype = parentA
			out.Improvements++
			noProgress = 0
			e.logger.Debug("makespan improved", "generation", out.Generations, "makespan", current)
			e.observer.Improved(out.Generations, current)
		} else {
			noProgress++
		}

		e.observer.Generation(GenerationStats{
			Generation:     out.Generations,
			ParentMakespan: current,
			BestMakespan:   out.Makespan,
			NoProgress:     noProgress,
			Mutations:      mutations,
			Replaced:       [2]int{slotA, slotB},
		})
	}

	e.logger.Info("population stagnated",
		"generations", out.Generations,
		"improvements", out.Improvements,
		"makespan", out.Makespan)
	return out, nil
}
