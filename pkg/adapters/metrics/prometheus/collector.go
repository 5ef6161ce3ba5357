package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	spellsSubmitted   *prometheus.CounterVec
	spellsCompleted   *prometheus.CounterVec
	spellDuration     *prometheus.HistogramVec
	nodesExecuted     *prometheus.CounterVec
	nodeDuration      *prometheus.HistogramVec
	activeExecutions  prometheus.Gauge
	workerPoolIdle    prometheus.Gauge
	workerPoolBusy    prometheus.Gauge
	workerPoolStopped prometheus.Gauge
}

// NewCollector creates a collector registered on reg.
// Pass prometheus.DefaultRegisterer to expose metrics on the default handler.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		spellsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spellforge_spells_submitted_total",
				Help: "Total number of spells submitted",
			},
			[]string{"status"},
		),
		spellsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spellforge_spells_completed_total",
				Help: "Total number of spell executions that reached a terminal state",
			},
			[]string{"status"},
		),
		spellDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spellforge_spell_duration_seconds",
				Help:    "Spell execution duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"status"},
		),
		nodesExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spellforge_nodes_executed_total",
				Help: "Total number of nodes executed",
			},
			[]string{"component", "status"},
		),
		nodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spellforge_node_duration_seconds",
				Help:    "Node execution duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"component"},
		),
		activeExecutions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spellforge_active_executions",
				Help: "Number of currently active spell executions",
			},
		),
		workerPoolIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spellforge_worker_pool_idle",
				Help: "Number of idle workers",
			},
		),
		workerPoolBusy: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spellforge_worker_pool_busy",
				Help: "Number of busy workers",
			},
		),
		workerPoolStopped: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spellforge_worker_pool_stopped",
				Help: "Number of stopped workers",
			},
		),
	}
}

// RecordSpellSubmitted counts a submission attempt by resulting status
func (c *Collector) RecordSpellSubmitted(status string) {
	c.spellsSubmitted.WithLabelValues(status).Inc()
}

// RecordSpellCompleted counts a finished execution and observes its duration
func (c *Collector) RecordSpellCompleted(status string, duration time.Duration) {
	c.spellsCompleted.WithLabelValues(status).Inc()
	c.spellDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordNodeExecuted counts a node execution and observes its duration
func (c *Collector) RecordNodeExecuted(component, status string, duration time.Duration) {
	c.nodesExecuted.WithLabelValues(component, status).Inc()
	c.nodeDuration.WithLabelValues(component).Observe(duration.Seconds())
}

// RecordWorkerPoolStatus sets the worker pool gauges
func (c *Collector) RecordWorkerPoolStatus(idle, busy, stopped int) {
	c.workerPoolIdle.Set(float64(idle))
	c.workerPoolBusy.Set(float64(busy))
	c.workerPoolStopped.Set(float64(stopped))
}

// SetActiveExecutions sets the number of currently active executions
func (c *Collector) SetActiveExecutions(count int) {
	c.activeExecutions.Set(float64(count))
}
