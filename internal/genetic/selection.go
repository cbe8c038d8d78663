package genetic

import (
	"sort"

	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
)

// Select returns copies of the two fittest genotypes (elitist truncation).
// The sort is stable, so among equally fit individuals the earlier slot wins.
func Select(processes []float64, processorCount int, population types.Population) (types.Genotype, types.Genotype, error) {
	if len(population) < 2 {
		return nil, nil, ErrPopulationTooSmall
	}

	scores, err := scorePopulation(processes, processorCount, population)
	if err != nil {
		return nil, nil, err
	}

	order := make([]int, len(population))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	return population[order[0]].Clone(), population[order[1]].Clone(), nil
}

func scorePopulation(processes []float64, processorCount int, population types.Population) ([]float64, error) {
	scores := make([]float64, len(population))
	for i, genotype := range population {
		f, err := Fitness(processes, processorCount, genotype)
		if err != nil {
			return nil, err
		}
		scores[i] = f
	}
	return scores, nil
}
