package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for a Pool
type Metrics struct {
	TasksSubmitted prometheus.Counter
	TasksCompleted prometheus.Counter
	TasksFailed    prometheus.Counter
	TasksCancelled prometheus.Counter
	TasksRetried   prometheus.Counter
	ActiveWorkers  prometheus.Gauge
	QueueDepth     prometheus.Gauge
	TaskLatency    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewMetrics(namespace, subsystem string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		TasksSubmitted: counter("tasks_submitted_total", "Total number of tasks accepted by the pool"),
		TasksCompleted: counter("tasks_completed_total", "Total number of tasks completed successfully"),
		TasksFailed:    counter("tasks_failed_total", "Total number of tasks that failed"),
		TasksCancelled: counter("tasks_cancelled_total", "Total number of tasks cancelled before running"),
		TasksRetried:   counter("tasks_retried_total", "Total number of task retries"),
		ActiveWorkers:  gauge("active_workers", "Current number of workers running a task"),
		QueueDepth:     gauge("queue_depth", "Current number of queued tasks"),
		TaskLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "task_latency_seconds",
			Help:      "Histogram of task execution latency",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.TasksSubmitted,
		m.TasksCompleted,
		m.TasksFailed,
		m.TasksCancelled,
		m.TasksRetried,
		m.ActiveWorkers,
		m.QueueDepth,
		m.TaskLatency,
	)
	return m
}

// The helpers below accept a nil receiver so the pool can call them
// unconditionally.

func (m *Metrics) submitted(depth int) {
	if m == nil {
		return
	}
	m.TasksSubmitted.Inc()
	m.QueueDepth.Set(float64(depth))
}

func (m *Metrics) started(depth int) {
	if m == nil {
		return
	}
	m.ActiveWorkers.Inc()
	m.QueueDepth.Set(float64(depth))
}

func (m *Metrics) finished(d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.ActiveWorkers.Dec()
	m.TaskLatency.Observe(d.Seconds())
	if failed {
		m.TasksFailed.Inc()
	} else {
		m.TasksCompleted.Inc()
	}
}

func (m *Metrics) cancelled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TasksCancelled.Add(float64(n))
}

func (m *Metrics) retried() {
	if m == nil {
		return
	}
	m.TasksRetried.Inc()
}

func (m *Metrics) queueDepth(depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(depth))
}
