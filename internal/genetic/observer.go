package genetic

// GenerationStats describes one finished generation.
type GenerationStats struct {
	Generation     int     // 1-based count of finished generations
	ParentMakespan float64 // makespan of this generation's best parent
	BestMakespan   float64 // best makespan recorded so far
	NoProgress     int     // consecutive generations without improvement
	Mutations      int     // mutation events applied to the population
	Replaced       [2]int  // slots overwritten by the two children
}

// Observer receives engine events. Calls happen on the engine goroutine, so
// implementations must return quickly.
type Observer interface {
	Generation(stats GenerationStats)
	Improved(generation int, makespan float64)
}

// Observers fans every event out in order.
type Observers []Observer

func (obs Observers) Generation(stats GenerationStats) {
	for _, o := range obs {
		o.Generation(stats)
	}
}

func (obs Observers) Improved(generation int, makespan float64) {
	for _, o := range obs {
		o.Improved(generation, makespan)
	}
}

type nopObserver struct{}

func (nopObserver) Generation(GenerationStats) {}
func (nopObserver) Improved(int, float64)      {}
