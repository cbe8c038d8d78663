package genetic

// ============================================================================
// Genetic engine error definitions
// Purpose: configuration errors raised by NewEngine and data-integrity errors
// raised by the codec. None of them is retried inside the engine.
// ============================================================================

import (
	"errors"
	"fmt"
)

var (
	// ErrGenotypeLength means a genotype does not hold one gene per process.
	ErrGenotypeLength = errors.New("genetic: genotype length does not match process count")

	// ErrGeneOutOfRange means a gene is not a valid processor index.
	ErrGeneOutOfRange = errors.New("genetic: gene is not a valid processor index")

	// ErrUnmatchedProcess means encode found no unconsumed slot for a process.
	ErrUnmatchedProcess = errors.New("genetic: no unconsumed slot matches process")

	// ErrSurplusSlots means an individual holds durations that belong to no process.
	ErrSurplusSlots = errors.New("genetic: individual holds more slots than processes")

	// ErrPopulationTooSmall means selection cannot pick two parents.
	ErrPopulationTooSmall = errors.New("genetic: population needs at least two individuals")

	// ErrInvalidEngineConfig wraps every NewEngine parameter error.
	ErrInvalidEngineConfig = errors.New("genetic: invalid engine configuration")
)

// IntegrityError reports a broken contract between the sampler, the codec and
// the population: a genotype or phenotype that does not describe the instance.
type IntegrityError struct {
	Op    string // "encode" or "decode"
	Index int    // process index the check failed on, -1 if not applicable
	Err   error  // one of the sentinel errors above
}

func (e *IntegrityError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: process %d: %v", e.Op, e.Index, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}
