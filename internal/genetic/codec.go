package genetic

import (
	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
)

// Encode converts a schedule into a genotype.
//
// Each process, in input order, is matched to the first processor queue that
// still holds an unconsumed slot of equal duration. Matched slots are tracked
// in a private mask so equal durations map to distinct slots; individual is
// only read.
func Encode(processes []float64, individual types.Phenotype) (types.Genotype, error) {
	consumed := make([][]bool, len(individual))
	slots := 0
	for i, queue := range individual {
		consumed[i] = make([]bool, len(queue))
		slots += len(queue)
	}
	if slots > len(processes) {
		return nil, &IntegrityError{Op: "encode", Index: -1, Err: ErrSurplusSlots}
	}

	genotype := make(types.Genotype, len(processes))
	for p, duration := range processes {
		processor, slot := findSlot(individual, consumed, duration)
		if processor < 0 {
			return nil, &IntegrityError{Op: "encode", Index: p, Err: ErrUnmatchedProcess}
		}
		consumed[processor][slot] = true
		genotype[p] = processor
	}
	return genotype, nil
}

func findSlot(individual types.Phenotype, consumed [][]bool, duration float64) (int, int) {
	for processor, queue := range individual {
		for slot, d := range queue {
			if d == duration && !consumed[processor][slot] {
				return processor, slot
			}
		}
	}
	return -1, -1
}

// Decode builds the schedule described by genotype. Queue order follows
// process order, so it need not match the queue order Encode was given.
func Decode(processes []float64, processorCount int, genotype types.Genotype) (types.Phenotype, error) {
	if err := checkGenotype(len(processes), processorCount, genotype); err != nil {
		return nil, err
	}

	schedule := make(types.Phenotype, processorCount)
	for i := range schedule {
		schedule[i] = []float64{}
	}
	for p, processor := range genotype {
		schedule[processor] = append(schedule[processor], processes[p])
	}
	return schedule, nil
}

func checkGenotype(processCount, processorCount int, genotype types.Genotype) error {
	if len(genotype) != processCount {
		return &IntegrityError{Op: "decode", Index: -1, Err: ErrGenotypeLength}
	}
	for p, processor := range genotype {
		if processor < 0 || processor >= processorCount {
			return &IntegrityError{Op: "decode", Index: p, Err: ErrGeneOutOfRange}
		}
	}
	return nil
}
