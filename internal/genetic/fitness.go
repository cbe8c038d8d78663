package genetic

import (
	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
)

// Fitness scores a genotype as the negated makespan of its schedule, so a
// higher value is better. It decodes on every call; nothing is cached.
func Fitness(processes []float64, processorCount int, genotype types.Genotype) (float64, error) {
	schedule, err := Decode(processes, processorCount, genotype)
	if err != nil {
		return 0, err
	}
	return -Makespan(schedule), nil
}

// Loads returns the total duration queued on each processor.
func Loads(schedule types.Phenotype) []float64 {
	loads := make([]float64, len(schedule))
	for i, queue := range schedule {
		for _, d := range queue {
			loads[i] += d
		}
	}
	return loads
}

// Makespan returns the largest processor load. Idle processors count as 0.
func Makespan(schedule types.Phenotype) float64 {
	max := 0.0
	for _, load := range Loads(schedule) {
		if load > max {
			max = load
		}
	}
	return max
}
