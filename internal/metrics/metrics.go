// Package metrics exports run statistics in the Prometheus text format, for
// a node-exporter textfile collector or a CI artifact.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"simrun/internal/domain"
)

// Collector captures metrics for one run
type Collector struct {
	registry     *prometheus.Registry
	testsTotal   *prometheus.CounterVec
	warnings     prometheus.Counter
	phaseTotal   *prometheus.CounterVec
	testDuration *prometheus.HistogramVec
	runDuration  prometheus.Gauge
}

// NewCollector initializes a new metrics registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	collector := &Collector{
		registry: registry,
		testsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "simrun_tests_total", Help: "Tests executed, by outcome"},
			[]string{"status"},
		),
		warnings: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "simrun_tests_with_warnings_total", Help: "Tests whose output contained a warning"},
		),
		phaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "simrun_tests_final_phase_total", Help: "Tests by the last pipeline phase they reached"},
			[]string{"phase"},
		),
		testDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "simrun_test_duration_seconds",
				Help:    "Compile plus simulate time per test",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "simrun_run_duration_seconds", Help: "Wall time of the whole run"},
		),
	}

	registry.MustRegister(collector.testsTotal, collector.warnings, collector.phaseTotal, collector.testDuration, collector.runDuration)
	return collector
}

// Observe records a test outcome
func (c *Collector) Observe(r domain.RunResult) {
	status := string(r.Status)
	c.testsTotal.WithLabelValues(status).Inc()
	c.phaseTotal.WithLabelValues(string(r.Phase)).Inc()
	c.testDuration.WithLabelValues(status).Observe(r.Duration.Seconds())
	if r.Warning {
		c.warnings.Inc()
	}
}

// ObserveRun records the run's wall time
func (c *Collector) ObserveRun(meta domain.RunMeta) {
	c.runDuration.Set(meta.DurationSeconds)
}

// Write writes all metrics to a Prometheus text file
func (c *Collector) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
