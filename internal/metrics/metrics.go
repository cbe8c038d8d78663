// ============================================================================
// pcmax metrics - Prometheus instrumentation of genetic runs
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
// Purpose: Counts engine events and exposes them for Prometheus scraping.
//
// Metrics:
//
//   1. Counters (cumulative):
//      - pcmax_generations_total: generations evaluated
//      - pcmax_improvements_total: best-makespan improvements
//      - pcmax_mutations_total: mutation events applied
//      - pcmax_runs_total{outcome}: finished runs (completed, failed, cancelled)
//
//   2. Histogram:
//      - pcmax_run_duration_seconds: wall time of one run
//
//   3. Gauges, per instance:
//      - pcmax_best_makespan{instance}: best makespan of the current run
//      - pcmax_no_progress_generations{instance}: current stagnation streak
//
// Example queries:
//
//   # generations per second during a bench
//   rate(pcmax_generations_total[1m])
//
//   # how close a run is to bailing out
//   pcmax_no_progress_generations / <no_progress_bailout_count>
//
// HTTP endpoint:
//   StartServer exposes /metrics; the CLI starts it when metrics.enabled is set.
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ChuLiYu/pcmax-genetic/internal/genetic"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Collector holds the Prometheus metrics of a process.
type Collector struct {
	generations  prometheus.Counter
	improvements prometheus.Counter
	mutations    prometheus.Counter
	runs         *prometheus.CounterVec

	runDuration prometheus.Histogram

	bestMakespan *prometheus.GaugeVec
	noProgress   *prometheus.GaugeVec
}

// NewCollector creates the metrics and registers them with reg
// (prometheus.DefaultRegisterer when nil). Registering twice on the same
// registry panics.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pcmax_generations_total",
			Help: "Total number of generations evaluated",
		}),
		improvements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pcmax_improvements_total",
			Help: "Total number of best-makespan improvements",
		}),
		mutations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pcmax_mutations_total",
			Help: "Total number of mutation events applied",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pcmax_runs_total",
			Help: "Total number of finished runs by outcome",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pcmax_run_duration_seconds",
			Help:    "Wall time of one genetic run in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		bestMakespan: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pcmax_best_makespan",
			Help: "Best makespan recorded by the current run",
		}, []string{"instance"}),
		noProgress: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pcmax_no_progress_generations",
			Help: "Consecutive generations without improvement",
		}, []string{"instance"}),
	}

	reg.MustRegister(
		c.generations,
		c.improvements,
		c.mutations,
		c.runs,
		c.runDuration,
		c.bestMakespan,
		c.noProgress,
	)

	return c
}

// ForRun returns an engine observer that labels gauges with instance.
func (c *Collector) ForRun(instance string) genetic.Observer {
	return &runObserver{c: c, instance: instance}
}

// RecordRun records a finished run.
func (c *Collector) RecordRun(outcome string, seconds float64) {
	c.runs.WithLabelValues(outcome).Inc()
	c.runDuration.Observe(seconds)
}

type runObserver struct {
	c        *Collector
	instance string
}

func (o *runObserver) Generation(stats genetic.GenerationStats) {
	o.c.generations.Inc()
	o.c.mutations.Add(float64(stats.Mutations))
	o.c.noProgress.WithLabelValues(o.instance).Set(float64(stats.NoProgress))
}

func (o *runObserver) Improved(_ int, makespan float64) {
	o.c.improvements.Inc()
	o.c.bestMakespan.WithLabelValues(o.instance).Set(makespan)
}

// StartServer serves g on :port/metrics. It blocks like http.ListenAndServe.
func StartServer(port int, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
