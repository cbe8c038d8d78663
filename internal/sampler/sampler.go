// Package sampler produces random feasible schedules used to seed the
// genetic population.
package sampler

import (
	"errors"
	"math/rand"

	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
)

// ErrNoProcessors is returned when asked to sample onto zero processors.
var ErrNoProcessors = errors.New("sampler: processor count must be at least 1")

// Random visits the processes in a shuffled order and drops each one onto a
// uniformly chosen processor.
type Random struct {
	processors int
	processes  []float64
	rng        *rand.Rand
}

// NewRandom returns a sampler for one instance. rng is shared with the
// caller so a single seed drives the whole run.
func NewRandom(processors int, processes []float64, rng *rand.Rand) (*Random, error) {
	if processors < 1 {
		return nil, ErrNoProcessors
	}
	return &Random{
		processors: processors,
		processes:  append([]float64(nil), processes...),
		rng:        rng,
	}, nil
}

// Sample returns a fresh schedule holding every process exactly once.
func (r *Random) Sample() (types.Phenotype, error) {
	schedule := make(types.Phenotype, r.processors)
	for i := range schedule {
		schedule[i] = []float64{}
	}
	for _, p := range r.rng.Perm(len(r.processes)) {
		q := r.rng.Intn(r.processors)
		schedule[q] = append(schedule[q], r.processes[p])
	}
	return schedule, nil
}
