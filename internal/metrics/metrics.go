// Package metrics exposes Prometheus instrumentation for the scheduling
// engine. All methods are nil-receiver safe so callers can run without
// metrics wired up.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	registry          prometheus.Registerer
	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	tasksEnabled      prometheus.Gauge
	ticksTotal        prometheus.Counter
}

// New creates and registers the engine metrics. A nil registerer uses the
// default registry.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		registry: reg,
		executionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_executions_total",
				Help:      "Total number of task executions",
			},
			[]string{"provider", "status"},
		),
		executionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_execution_duration_seconds",
				Help:      "Duration of task executions",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"provider"},
		),
		tasksEnabled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tasks_enabled",
				Help:      "Number of enabled tasks",
			},
		),
		ticksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_ticks_total",
				Help:      "Total number of scheduler due-check sweeps",
			},
		),
	}

	reg.MustRegister(m.executionsTotal, m.executionDuration, m.tasksEnabled, m.ticksTotal)
	return m
}

// RecordExecution counts one execution attempt and its duration.
func (m *Metrics) RecordExecution(provider, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.executionsTotal.WithLabelValues(provider, status).Inc()
	m.executionDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// SetEnabledTasks updates the enabled-tasks gauge.
func (m *Metrics) SetEnabledTasks(n int) {
	if m == nil {
		return
	}
	m.tasksEnabled.Set(float64(n))
}

// RecordTick counts one scheduler sweep.
func (m *Metrics) RecordTick() {
	if m == nil {
		return
	}
	m.ticksTotal.Inc()
}
