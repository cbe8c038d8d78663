package genetic

import (
	"math/rand"

	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
)

// Mutate visits every genotype and, with the given probability, reassigns one
// uniformly chosen gene to a uniformly chosen processor. The new processor may
// equal the old one. It returns the number of mutation events.
func Mutate(rng *rand.Rand, probability float64, processorCount int, population types.Population) int {
	events := 0
	for _, genotype := range population {
		if rng.Float64() >= probability || len(genotype) == 0 {
			continue
		}
		gene := rng.Intn(len(genotype))
		genotype[gene] = rng.Intn(processorCount)
		events++
	}
	return events
}
