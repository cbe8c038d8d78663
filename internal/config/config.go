// ============================================================================
// pcmax configuration
// ============================================================================
//
// Package: internal/config
// File: config.go
// Purpose: Builds the immutable run configuration from defaults, a YAML file
// and environment variables, then validates it before any run starts.
//
// Precedence (later wins):
//   1. Default()
//   2. YAML file (configs/default.yaml unless --config is given)
//   3. Environment variables (POPULATION_SIZE, MUTATION_PROBABILITY, ...)
//   4. CLI flags (applied by internal/cli)
//
// Example YAML:
//   genetic:
//     population_size: 50
//     mutation_probability: 0.1
//     no_progress_bailout_count: 500
//     replacement: sequential
//   output:
//     verbose: false
//     show_chart: true
//     chart_width: 60
//   seed: 0            # 0 picks a time based seed
//   log:
//     level: info
//   metrics:
//     enabled: false
//     port: 9090
//   bench:
//     workers: 4
//     runs: 10
//     timeout: 30s
//
// ============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ChuLiYu/pcmax-genetic/internal/genetic"
)

// DefaultPath is read when no --config flag is given. A missing default file
// is not an error.
const DefaultPath = "configs/default.yaml"

// ErrInvalidConfig marks configuration errors, as opposed to runtime errors.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Config is the complete run configuration.
type Config struct {
	Genetic struct {
		PopulationSize         int     `yaml:"population_size" env:"POPULATION_SIZE" validate:"gte=2"`
		MutationProbability    float64 `yaml:"mutation_probability" env:"MUTATION_PROBABILITY" validate:"gte=0,lte=1"`
		NoProgressBailoutCount int     `yaml:"no_progress_bailout_count" env:"NO_PROGRESS_BAILOUT_COUNT" validate:"gte=1"`
		Replacement            string  `yaml:"replacement" env:"REPLACEMENT_POLICY" validate:"oneof=sequential distinct"`
	} `yaml:"genetic"`

	Output struct {
		Verbose    bool `yaml:"verbose" env:"VERBOSE"`
		ShowChart  bool `yaml:"show_chart" env:"SHOW_CHART"`
		ChartWidth int  `yaml:"chart_width" env:"CHART_WIDTH" validate:"gte=10,lte=400"`
	} `yaml:"output"`

	Seed int64 `yaml:"seed" env:"SEED"`

	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool `yaml:"enabled" env:"METRICS_ENABLED"`
		Port    int  `yaml:"port" env:"METRICS_PORT" validate:"gte=1,lte=65535"`
	} `yaml:"metrics"`

	Bench struct {
		Workers int           `yaml:"workers" env:"BENCH_WORKERS" validate:"gte=1"`
		Runs    int           `yaml:"runs" env:"BENCH_RUNS" validate:"gte=1"`
		Timeout time.Duration `yaml:"timeout" env:"BENCH_TIMEOUT" validate:"gte=0"`
	} `yaml:"bench"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Genetic.PopulationSize = 50
	cfg.Genetic.MutationProbability = 0.1
	cfg.Genetic.NoProgressBailoutCount = 500
	cfg.Genetic.Replacement = string(genetic.ReplaceSequential)
	cfg.Output.ChartWidth = 60
	cfg.Log.Level = "info"
	cfg.Metrics.Port = 9090
	cfg.Bench.Workers = 4
	cfg.Bench.Runs = 10
	cfg.Bench.Timeout = 30 * time.Second
	return cfg
}

// Load layers the YAML file at path and the environment over Default and
// validates the result. If path is DefaultPath and does not exist, only
// defaults and environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			// first error only, keeps the message readable
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, aggErr.Errors[0])
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field tag and reports the first failure.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: %s fails %q (got %v)", ErrInvalidConfig, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Engine returns the engine parameters.
func (c *Config) Engine() genetic.Config {
	return genetic.Config{
		PopulationSize:      c.Genetic.PopulationSize,
		MutationProbability: c.Genetic.MutationProbability,
		NoProgressBailout:   c.Genetic.NoProgressBailoutCount,
		Replacement:         genetic.ReplacementPolicy(c.Genetic.Replacement),
	}
}
