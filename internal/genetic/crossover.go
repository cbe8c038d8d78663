package genetic

import (
	"fmt"
	"sort"

	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
)

// ReplacementPolicy decides which slots the two crossover children overwrite.
type ReplacementPolicy string

const (
	// ReplaceSequential overwrites the least-fit slot with the first child,
	// then looks for the least-fit slot again and overwrites it with the
	// second child. If the first child is still the worst it is replaced.
	ReplaceSequential ReplacementPolicy = "sequential"

	// ReplaceDistinct picks the two worst slots before writing anything, so
	// both children always survive the generation.
	ReplaceDistinct ReplacementPolicy = "distinct"
)

// Crossover recombines two equal-length parents at a single cut point.
// The cut is len/2 rounded down: for odd lengths the second half is the
// longer one. Children never share storage with their parents.
func Crossover(a, b types.Genotype) (types.Genotype, types.Genotype) {
	mid := len(a) / 2

	childA := make(types.Genotype, 0, len(a))
	childA = append(childA, a[:mid]...)
	childA = append(childA, b[mid:]...)

	childB := make(types.Genotype, 0, len(b))
	childB = append(childB, b[:mid]...)
	childB = append(childB, a[mid:]...)

	return childA, childB
}

// ReplaceWorst writes both children into the population in place according
// to policy and returns the two slots written, in child order.
func ReplaceWorst(processes []float64, processorCount int, population types.Population, childA, childB types.Genotype, policy ReplacementPolicy) (int, int, error) {
	if len(population) < 2 {
		return 0, 0, ErrPopulationTooSmall
	}
	scores, err := scorePopulation(processes, processorCount, population)
	if err != nil {
		return 0, 0, err
	}

	switch policy {
	case ReplaceSequential, "":
		first := leastFit(scores)
		population[first] = childA
		if scores[first], err = Fitness(processes, processorCount, childA); err != nil {
			return 0, 0, err
		}
		second := leastFit(scores)
		population[second] = childB
		return first, second, nil

	case ReplaceDistinct:
		order := make([]int, len(scores))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return scores[order[i]] < scores[order[j]]
		})
		population[order[0]] = childA
		population[order[1]] = childB
		return order[0], order[1], nil

	default:
		return 0, 0, fmt.Errorf("%w: unknown replacement policy %q", ErrInvalidEngineConfig, policy)
	}
}

// leastFit returns the first slot holding the minimum score.
func leastFit(scores []float64) int {
	worst := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] < scores[worst] {
			worst = i
		}
	}
	return worst
}
