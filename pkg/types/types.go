// Package types defines the core domain model shared by the pcmax packages.
package types

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrNoProcessors means the instance has fewer than one processor.
	ErrNoProcessors = errors.New("processor count must be at least 1")
	// ErrInvalidDuration means a process duration is not a positive number.
	ErrInvalidDuration = errors.New("process duration must be positive and finite")
)

// Instance is one P||Cmax problem: identical processors and the durations of
// independent processes. A process is identified by its index in Durations.
type Instance struct {
	Processors int       `yaml:"processors" json:"processors"`
	Durations  []float64 `yaml:"durations" json:"durations"`
}

// Validate checks the instance before any population is built.
// Zero processes is a valid (trivial) instance. The total duration must be
// finite so that no processor load can overflow to +Inf.
func (i Instance) Validate() error {
	if i.Processors < 1 {
		return fmt.Errorf("%w: got %d", ErrNoProcessors, i.Processors)
	}
	total := 0.0
	for idx, d := range i.Durations {
		if !(d > 0) || math.IsInf(d, 0) {
			return fmt.Errorf("%w: process %d has duration %v", ErrInvalidDuration, idx, d)
		}
		total += d
	}
	if math.IsInf(total, 0) {
		return fmt.Errorf("%w: total duration overflows", ErrInvalidDuration)
	}
	return nil
}

// Phenotype is a schedule: queue i holds the durations assigned to processor i.
type Phenotype [][]float64

// Clone returns a deep copy of the schedule.
func (p Phenotype) Clone() Phenotype {
	out := make(Phenotype, len(p))
	for i, queue := range p {
		out[i] = append([]float64(nil), queue...)
	}
	return out
}

// Genotype holds one processor index per process, in process order.
type Genotype []int

// Clone returns a copy that shares no storage with g.
func (g Genotype) Clone() Genotype {
	if g == nil {
		return nil
	}
	return append(Genotype(nil), g...)
}

// Population is a fixed-size collection of genotypes replaced in place.
type Population []Genotype

// RunResult is the best-so-far record of one finished run.
type RunResult struct {
	SchemaVer   int           `json:"schema_ver"`
	Instance    string        `json:"instance,omitempty"`
	Processors  int           `json:"processors"`
	Durations   []float64     `json:"durations"`
	Makespan    float64       `json:"makespan"`
	Genotype    Genotype      `json:"genotype"`
	Schedule    Phenotype     `json:"schedule"`
	Loads       []float64     `json:"loads"`
	Generations int           `json:"generations"`
	Seed        int64         `json:"seed"`
	Elapsed     time.Duration `json:"elapsed"`
	CreatedAt   int64         `json:"created_at"` // Unix milliseconds
}
