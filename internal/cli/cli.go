// ============================================================================
// pcmax CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra command tree for solving, benchmarking and generating
// P||Cmax instances
//
// Command Structure:
//   pcmax                          # Root command
//   ├── solve <instance>           # Run the genetic algorithm once
//   ├── bench <instance>...        # Independent seeded runs on a worker pool
//   ├── generate                   # Write a random instance
//   ├── config                     # Print the effective configuration
//   ├── --config, -c               # Config file (default configs/default.yaml)
//   └── --version                  # Display version information
//
// Configuration precedence:
//   built-in defaults < YAML file < environment < command flags
//
// Output:
//   stdout carries makespans, charts and tables; logs go to stderr through
//   log/slog at the configured level.
//
// Signal Handling:
//   SIGINT and SIGTERM cancel the run context. The engine checks it between
//   generations and the command returns context.Canceled.
//
// Metrics Service:
//   If metrics.enabled, /metrics is served on metrics.port for the lifetime
//   of the command from a dedicated Prometheus registry.
//
// ============================================================================

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ChuLiYu/pcmax-genetic/internal/chart"
	"github.com/ChuLiYu/pcmax-genetic/internal/config"
	"github.com/ChuLiYu/pcmax-genetic/internal/instance"
	"github.com/ChuLiYu/pcmax-genetic/internal/metrics"
	"github.com/ChuLiYu/pcmax-genetic/internal/report"
	"github.com/ChuLiYu/pcmax-genetic/internal/result"
	"github.com/ChuLiYu/pcmax-genetic/internal/solver"
	"github.com/ChuLiYu/pcmax-genetic/internal/worker"
	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
)

var configFile string

func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pcmax",
		Short: "pcmax: genetic scheduler for identical parallel machines",
		Long: `pcmax assigns independent processes to identical processors and
minimizes the makespan (P||Cmax) with a steady-state genetic algorithm:
- best-two selection and midpoint crossover
- worst-individual replacement
- per-individual mutation
- stops after a run of generations without improvement`,
		Version:      "1.0.0",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultPath, "config file path")

	rootCmd.AddCommand(buildSolveCommand())
	rootCmd.AddCommand(buildBenchCommand())
	rootCmd.AddCommand(buildGenerateCommand())
	rootCmd.AddCommand(buildConfigCommand())

	return rootCmd
}

// ============================================================================
// solve
// ============================================================================

type solveOptions struct {
	seed        int64
	verbose     bool
	showChart   bool
	output      string
	population  int
	mutation    float64
	bailout     int
	replacement string
}

func buildSolveCommand() *cobra.Command {
	var opts solveOptions

	cmd := &cobra.Command{
		Use:   "solve <instance>",
		Short: "Solve one instance and print its makespan",
		Long: `Read an instance (text format, or .yaml/.yml/.json; "-" for stdin), run
the genetic algorithm and print the best makespan found. With --verbose every
improvement is printed as it happens.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(cfg *config.Config) {
				applySolveFlags(cmd, cfg, opts)
			})
			if err != nil {
				return err
			}
			return runSolve(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, args[0], opts.output)
		},
	}

	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 picks one from the clock)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print every improved makespan")
	cmd.Flags().BoolVar(&opts.showChart, "chart", false, "draw the best schedule")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the run result as JSON to this file")
	cmd.Flags().IntVar(&opts.population, "population", 0, "population size")
	cmd.Flags().Float64Var(&opts.mutation, "mutation", 0, "mutation probability")
	cmd.Flags().IntVar(&opts.bailout, "bailout", 0, "generations without improvement before stopping")
	cmd.Flags().StringVar(&opts.replacement, "replacement", "", "replacement policy: sequential or distinct")

	return cmd
}

func applySolveFlags(cmd *cobra.Command, cfg *config.Config, opts solveOptions) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = opts.seed
	}
	if flags.Changed("verbose") {
		cfg.Output.Verbose = opts.verbose
	}
	if flags.Changed("chart") {
		cfg.Output.ShowChart = opts.showChart
	}
	if flags.Changed("population") {
		cfg.Genetic.PopulationSize = opts.population
	}
	if flags.Changed("mutation") {
		cfg.Genetic.MutationProbability = opts.mutation
	}
	if flags.Changed("bailout") {
		cfg.Genetic.NoProgressBailoutCount = opts.bailout
	}
	if flags.Changed("replacement") {
		cfg.Genetic.Replacement = opts.replacement
	}
}

func runSolve(ctx context.Context, out, errOut io.Writer, cfg *config.Config, path, output string) error {
	logger := newLogger(errOut, cfg.Log.Level)

	inst, err := instance.Load(path)
	if err != nil {
		return err
	}
	logger.Debug("instance loaded", "path", path, "processors", inst.Processors, "processes", len(inst.Durations))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := solver.New(solver.Config{Engine: cfg.Engine(), Seed: cfg.Seed},
		append(startMetrics(cfg, logger), solver.WithLogger(logger))...)

	console := report.NewConsole(out, cfg.Output.Verbose)
	res, err := s.Solve(ctx, path, inst, 0, console)
	if err != nil {
		return err
	}
	console.Final(res.Makespan)

	if cfg.Output.ShowChart {
		fmt.Fprintln(out, chart.Render(res.Schedule, cfg.Output.ChartWidth))
	}

	if output != "" {
		store := result.NewStore(output)
		if err := store.Write(res); err != nil {
			return err
		}
		logger.Info("result written", "path", store.Path())
	}
	return nil
}

// ============================================================================
// bench
// ============================================================================

type benchOptions struct {
	runs    int
	workers int
	timeout time.Duration
	seed    int64
}

func buildBenchCommand() *cobra.Command {
	var opts benchOptions

	cmd := &cobra.Command{
		Use:   "bench <instance>...",
		Short: "Run independent seeded solves and summarize makespans",
		Long: `Run every instance --runs times on a pool of --workers. Each run owns
its population and random source; run i uses seed base+i.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(cfg *config.Config) {
				flags := cmd.Flags()
				if flags.Changed("runs") {
					cfg.Bench.Runs = opts.runs
				}
				if flags.Changed("workers") {
					cfg.Bench.Workers = opts.workers
				}
				if flags.Changed("timeout") {
					cfg.Bench.Timeout = opts.timeout
				}
				if flags.Changed("seed") {
					cfg.Seed = opts.seed
				}
			})
			if err != nil {
				return err
			}
			return runBench(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, args)
		},
	}

	cmd.Flags().IntVar(&opts.runs, "runs", 0, "runs per instance")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent runs")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "per-run timeout (0 disables)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "base seed (0 picks one from the clock)")

	return cmd
}

// benchSummary aggregates the runs of one instance.
type benchSummary struct {
	name        string
	makespans   []float64
	generations int
	failed      int
	elapsed     time.Duration
}

// add counts a run. elapsed is the worker's wall time, timeout included.
func (b *benchSummary) add(r worker.Result) {
	if !r.Success() {
		b.failed++
		return
	}
	b.makespans = append(b.makespans, r.Run.Makespan)
	b.generations += r.Run.Generations
	b.elapsed += r.Duration
}

// benchSeed derives the seed of one run from the base seed. Zero asks the
// solver for a clock seed, so it is skipped.
func benchSeed(base int64, run int) int64 {
	seed := base + int64(run)
	if base < 0 && seed >= 0 {
		seed++
	}
	return seed
}

func (b *benchSummary) row() []string {
	if len(b.makespans) == 0 {
		return []string{b.name, "0", strconv.Itoa(b.failed), "-", "-", "-", "-", "-"}
	}
	sorted := append([]float64{}, b.makespans...)
	sort.Float64s(sorted)
	sum := 0.0
	for _, m := range sorted {
		sum += m
	}
	n := len(sorted)
	return []string{
		b.name,
		strconv.Itoa(n),
		strconv.Itoa(b.failed),
		report.Format(sorted[0]),
		strconv.FormatFloat(sum/float64(n), 'f', 2, 64),
		report.Format(sorted[n-1]),
		strconv.Itoa(b.generations / n),
		(b.elapsed / time.Duration(n)).Round(time.Millisecond).String(),
	}
}

func runBench(ctx context.Context, out, errOut io.Writer, cfg *config.Config, paths []string) error {
	logger := newLogger(errOut, cfg.Log.Level)

	instances := make([]types.Instance, len(paths))
	for i, path := range paths {
		inst, err := instance.Load(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := inst.Validate(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		instances[i] = inst
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := solver.New(solver.Config{Engine: cfg.Engine()},
		append(startMetrics(cfg, logger), solver.WithLogger(logger))...)

	total := len(paths) * cfg.Bench.Runs
	pool := worker.NewPool(s, total)
	pool.SetLogger(logger)
	if err := pool.Start(ctx, cfg.Bench.Workers); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	defer pool.Stop()

	baseSeed := cfg.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}
	logger.Info("bench started", "instances", len(paths), "runs", cfg.Bench.Runs,
		"workers", pool.GetWorkerCount(), "base_seed", baseSeed)

	for i, inst := range instances {
		for run := 0; run < cfg.Bench.Runs; run++ {
			task := worker.Task{
				ID:       i*cfg.Bench.Runs + run,
				Name:     paths[i],
				Instance: inst,
				Seed:     benchSeed(baseSeed, run),
				Timeout:  cfg.Bench.Timeout,
			}
			if err := pool.Submit(task); err != nil {
				return fmt.Errorf("failed to submit run: %w", err)
			}
		}
	}

	summaries := make([]*benchSummary, len(paths))
	for i, path := range paths {
		summaries[i] = &benchSummary{name: path}
	}
	var firstErr error
	for n := 0; n < total; n++ {
		r, err := pool.ReceiveResult()
		if err != nil {
			return err
		}
		if r.Err != nil && firstErr == nil {
			firstErr = r.Err
		}
		summaries[r.ID/cfg.Bench.Runs].add(r)
	}

	if errors.Is(firstErr, context.Canceled) {
		return firstErr
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("instance", "runs", "failed", "min", "mean", "max", "avg gens", "avg time")
	for _, summary := range summaries {
		t.Row(summary.row()...)
	}
	fmt.Fprintln(out, t.Render())

	if firstErr != nil {
		logger.Warn("some runs failed", "error", firstErr)
	}
	return nil
}

// ============================================================================
// generate
// ============================================================================

func buildGenerateCommand() *cobra.Command {
	var (
		processors int
		processes  int
		minDur     int
		maxDur     int
		seed       int64
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a random instance in the text format",
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))
			inst, err := instance.Generate(rng, processors, processes, minDur, maxDur)
			if err != nil {
				return err
			}

			if outPath == "" {
				return instance.Write(cmd.OutOrStdout(), inst)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create instance file: %w", err)
			}
			if err := instance.Write(f, inst); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().IntVar(&processors, "processors", 4, "processor count")
	cmd.Flags().IntVar(&processes, "processes", 20, "process count")
	cmd.Flags().IntVar(&minDur, "min", 1, "shortest duration")
	cmd.Flags().IntVar(&maxDur, "max", 100, "longest duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")

	return cmd
}

// ============================================================================
// config
// ============================================================================

func buildConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long:  "Print the configuration after defaults, config file and environment are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(nil)
			if err != nil {
				return err
			}
			return showConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

func showConfig(out io.Writer, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	fmt.Fprintf(out, "# config file: %s\n", configFile)
	if cfg.Metrics.Enabled {
		fmt.Fprintf(out, "# metrics: http://localhost:%d/metrics\n", cfg.Metrics.Port)
	} else {
		fmt.Fprintln(out, "# metrics: disabled")
	}
	_, err = out.Write(data)
	return err
}

// ============================================================================
// helpers
// ============================================================================

// loadConfig loads configFile, applies flag overrides and validates again so
// that flag values obey the same rules as file values.
func loadConfig(override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// startMetrics serves a fresh registry when metrics are enabled and returns
// the solver option that feeds it.
func startMetrics(cfg *config.Config, logger *slog.Logger) []solver.Option {
	if !cfg.Metrics.Enabled {
		return nil
	}
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	go func() {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port)
		if err := metrics.StartServer(cfg.Metrics.Port, reg); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	return []solver.Option{solver.WithRecorder(collector)}
}
