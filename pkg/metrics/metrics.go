// Package metrics exposes imputation progress as Prometheus metrics. A
// Recorder is an impute.Reporter; the CLI writes its registry to a textfile
// for node_exporter after each run.
package metrics

import (
	"context"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wdm0006/rangerimpute/pkg/impute"
)

type Recorder struct {
	reg          *prometheus.Registry
	runs         *prometheus.CounterVec
	passes       prometheus.Counter
	passDuration prometheus.Histogram
	runDuration  prometheus.Histogram
	aggregate    prometheus.Gauge
	columnError  *prometheus.GaugeVec
	diagnostics  *prometheus.CounterVec
}

// New registers the imputation metrics on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rangerimpute_runs_total",
			Help: "Finished imputation runs by final state",
		}, []string{"state"}),
		passes: f.NewCounter(prometheus.CounterOpts{
			Name: "rangerimpute_passes_total",
			Help: "Completed passes over the target columns",
		}),
		passDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rangerimpute_pass_duration_seconds",
			Help:    "Cumulative run time at the end of each pass",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rangerimpute_run_duration_seconds",
			Help:    "Wall time of a whole run",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		aggregate: f.NewGauge(prometheus.GaugeOpts{
			Name: "rangerimpute_aggregate_error",
			Help: "Mean normalized out-of-bag error of the latest pass",
		}),
		columnError: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rangerimpute_column_error",
			Help: "Normalized out-of-bag error of the latest pass per target column",
		}, []string{"column"}),
		diagnostics: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rangerimpute_diagnostics_total",
			Help: "Resolver diagnostics by kind",
		}, []string{"kind"}),
	}
}

// Registry returns the registry holding the metrics.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) Iteration(_ context.Context, rep impute.IterationReport) error {
	r.passes.Inc()
	r.passDuration.Observe(rep.Elapsed.Seconds())
	if !math.IsNaN(rep.Aggregate) {
		r.aggregate.Set(rep.Aggregate)
	}
	for _, c := range rep.Columns {
		if !math.IsNaN(c.Normalized) && !math.IsInf(c.Normalized, 0) {
			r.columnError.WithLabelValues(c.Column).Set(c.Normalized)
		}
	}
	return nil
}

func (r *Recorder) Finish(_ context.Context, res *impute.Result) error {
	r.runs.WithLabelValues(res.State.String()).Inc()
	r.runDuration.Observe(res.Elapsed.Seconds())
	for _, d := range res.Diagnostics {
		if d.Kind != nil {
			r.diagnostics.WithLabelValues(d.Kind.Error()).Inc()
		}
	}
	return nil
}

// WriteTextfile writes the current values in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
