package genetic

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder keeps every event the engine emits. check, when set, runs at the
// end of every generation.
type recorder struct {
	stats        []GenerationStats
	improvements []float64
	improvedAt   []int
	check        func(GenerationStats)
}

func (r *recorder) Generation(s GenerationStats) {
	r.stats = append(r.stats, s)
	if r.check != nil {
		r.check(s)
	}
}
func (r *recorder) Improved(gen int, makespan float64) {
	r.improvedAt = append(r.improvedAt, gen)
	r.improvements = append(r.improvements, makespan)
}

// roundRobin deals processes to processors in order, rotating the start.
type roundRobin struct {
	processes  []float64
	processors int
	calls      int
}

func (s *roundRobin) Sample() (types.Phenotype, error) {
	schedule := make(types.Phenotype, s.processors)
	for i, d := range s.processes {
		q := (i + s.calls) % s.processors
		schedule[q] = append(schedule[q], d)
	}
	s.calls++
	return schedule, nil
}

type fixedSampler struct {
	schedule types.Phenotype
	err      error
}

func (s fixedSampler) Sample() (types.Phenotype, error) { return s.schedule, s.err }

func testConfig() Config {
	return Config{
		PopulationSize:      12,
		MutationProbability: 0.3,
		NoProgressBailout:   25,
		Replacement:         ReplaceSequential,
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := testConfig()
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"population of one":     func(c *Config) { c.PopulationSize = 1 },
		"negative probability":  func(c *Config) { c.MutationProbability = -0.1 },
		"probability above one": func(c *Config) { c.MutationProbability = 1.5 },
		"NaN probability":       func(c *Config) { c.MutationProbability = math.NaN() },
		"zero bailout":          func(c *Config) { c.NoProgressBailout = 0 },
		"unknown policy":        func(c *Config) { c.Replacement = "tournament" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidEngineConfig)
		})
	}
}

func TestNewEngine_ZeroProcessors(t *testing.T) {
	engine, err := NewEngine(testConfig(), []float64{1, 2}, 0, rand.New(rand.NewSource(1)))
	assert.Nil(t, engine)
	assert.ErrorIs(t, err, types.ErrNoProcessors)
}

func TestNewEngine_NilRandomSource(t *testing.T) {
	_, err := NewEngine(testConfig(), []float64{1}, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidEngineConfig)
}

func TestEngine_Seed(t *testing.T) {
	processes := []float64{4, 4, 1, 7, 3}
	engine, err := NewEngine(testConfig(), processes, 2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	sampler := &roundRobin{processes: processes, processors: 2}
	population, err := engine.Seed(sampler)
	require.NoError(t, err)

	assert.Len(t, population, 12)
	assert.Equal(t, 12, sampler.calls, "one sampler call per slot")
	assert.Equal(t, types.Genotype{0, 1, 0, 1, 0}, population[0])
	// Equal durations are interchangeable: the first unconsumed 4 wins.
	assert.Equal(t, types.Genotype{0, 1, 1, 0, 1}, population[1])
}

func TestEngine_SeedErrors(t *testing.T) {
	processes := []float64{1, 2}
	engine, err := NewEngine(testConfig(), processes, 2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	boom := errors.New("sampler exhausted")
	_, err = engine.Seed(fixedSampler{err: boom})
	assert.ErrorIs(t, err, boom)

	_, err = engine.Seed(fixedSampler{schedule: types.Phenotype{{1}, {9}}})
	var integrity *IntegrityError
	require.True(t, errors.As(err, &integrity))
	assert.ErrorIs(t, err, ErrUnmatchedProcess)
}

func TestEngine_ZeroProcesses(t *testing.T) {
	rec := &recorder{}
	engine, err := NewEngine(testConfig(), nil, 3, rand.New(rand.NewSource(1)), WithObserver(rec))
	require.NoError(t, err)

	out, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, out.Makespan)
	assert.Zero(t, out.Generations)
	assert.Empty(t, out.Genotype)
	assert.Empty(t, rec.stats, "no generation may run")
}

func TestEngine_RunInvariants(t *testing.T) {
	processes := []float64{1, 2, 4, 3, 5, 6, 7, 8, 2, 2}
	const processors = 3
	cfg := testConfig()

	var population types.Population
	checked := 0
	rec := &recorder{}
	// Size and range invariants hold after every generation.
	rec.check = func(s GenerationStats) {
		checked++
		if !assert.Len(t, population, cfg.PopulationSize, "generation %d", s.Generation) {
			return
		}
		for slot, genotype := range population {
			if !assert.Len(t, genotype, len(processes), "generation %d slot %d", s.Generation, slot) {
				continue
			}
			for _, gene := range genotype {
				assert.GreaterOrEqual(t, gene, 0, "generation %d slot %d", s.Generation, slot)
				assert.Less(t, gene, processors, "generation %d slot %d", s.Generation, slot)
			}
		}
	}
	engine, err := NewEngine(cfg, processes, processors, rand.New(rand.NewSource(42)), WithObserver(rec))
	require.NoError(t, err)

	population, err = engine.Seed(&roundRobin{processes: processes, processors: processors})
	require.NoError(t, err)

	out, err := engine.Run(context.Background(), population)
	require.NoError(t, err)
	assert.Equal(t, out.Generations, checked)

	// The first generation is always recorded as an improvement.
	require.NotEmpty(t, rec.improvements)
	assert.Equal(t, 1, rec.improvedAt[0])
	for i := 1; i < len(rec.improvements); i++ {
		assert.Less(t, rec.improvements[i], rec.improvements[i-1], "best makespan only decreases")
	}

	// Stops exactly bailout generations after the last improvement.
	last := rec.improvedAt[len(rec.improvedAt)-1]
	assert.Equal(t, last+cfg.NoProgressBailout, out.Generations)
	assert.Len(t, rec.stats, out.Generations)
	assert.Equal(t, cfg.NoProgressBailout, rec.stats[len(rec.stats)-1].NoProgress)
	assert.Equal(t, len(rec.improvements), out.Improvements)

	// Best-so-far record is self consistent and never below the lower bound.
	schedule, err := Decode(processes, processors, out.Genotype)
	require.NoError(t, err)
	assert.Equal(t, out.Makespan, Makespan(schedule))
	assert.Equal(t, rec.improvements[len(rec.improvements)-1], out.Makespan)
	assert.GreaterOrEqual(t, out.Makespan, 14.0, "sum 40 over 3 processors")

	for _, s := range rec.stats {
		assert.LessOrEqual(t, s.BestMakespan, s.ParentMakespan)
	}
}

func TestEngine_RecordsFirstParentWhenUnbounded(t *testing.T) {
	processes := []float64{math.MaxFloat64, math.MaxFloat64}
	cfg := testConfig()

	engine, err := NewEngine(cfg, processes, 1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	population, err := engine.Seed(&roundRobin{processes: processes, processors: 1})
	require.NoError(t, err)

	out, err := engine.Run(context.Background(), population)
	require.NoError(t, err)
	assert.Equal(t, types.Genotype{0, 0}, out.Genotype)
	assert.True(t, math.IsInf(out.Makespan, 1))
	assert.Equal(t, 1, out.Improvements)
	assert.Equal(t, 1+cfg.NoProgressBailout, out.Generations)
}

func TestEngine_Reproducible(t *testing.T) {
	processes := []float64{9, 3, 3, 7, 1, 4, 4, 6}

	run := func() Outcome {
		engine, err := NewEngine(testConfig(), processes, 3, rand.New(rand.NewSource(99)))
		require.NoError(t, err)
		population, err := engine.Seed(&roundRobin{processes: processes, processors: 3})
		require.NoError(t, err)
		out, err := engine.Run(context.Background(), population)
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, run(), run())
}

func TestEngine_DistinctReplacement(t *testing.T) {
	processes := []float64{5, 1, 1, 2, 8, 3}
	cfg := testConfig()
	cfg.Replacement = ReplaceDistinct

	rec := &recorder{}
	engine, err := NewEngine(cfg, processes, 2, rand.New(rand.NewSource(5)), WithObserver(rec))
	require.NoError(t, err)
	population, err := engine.Seed(&roundRobin{processes: processes, processors: 2})
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), population)
	require.NoError(t, err)
	for _, s := range rec.stats {
		assert.NotEqual(t, s.Replaced[0], s.Replaced[1])
	}
}

func TestEngine_RejectsCorruptPopulation(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 2
	engine, err := NewEngine(cfg, []float64{1, 2}, 2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), types.Population{{0, 1}, {0}})
	assert.ErrorIs(t, err, ErrGenotypeLength)

	_, err = engine.Run(context.Background(), types.Population{{0, 1}, {0, 5}})
	assert.ErrorIs(t, err, ErrGeneOutOfRange)

	_, err = engine.Run(context.Background(), types.Population{{0, 1}})
	assert.ErrorIs(t, err, ErrInvalidEngineConfig)
}

func TestEngine_ContextCancelled(t *testing.T) {
	processes := []float64{1, 2, 3}
	engine, err := NewEngine(testConfig(), processes, 2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	population, err := engine.Seed(&roundRobin{processes: processes, processors: 2})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := engine.Run(ctx, population)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, out.Generations)
}
