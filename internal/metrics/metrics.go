// Package metrics holds the bot's Prometheus collectors and the HTTP status
// server that exposes them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "plankboat"

// Metrics is nil-safe: every method is a no-op on a nil receiver.
type Metrics struct {
	DispatchMessagesTotal *prometheus.CounterVec
	CommandsTotal         *prometheus.CounterVec
	CommandDuration       *prometheus.HistogramVec
	PoolQueueDepth        prometheus.Gauge
	PoolDroppedTotal      prometheus.Counter
	MALRequestsTotal      *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DispatchMessagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "messages_total",
				Help:      "Inbound messages by dispatch outcome",
			},
			[]string{"outcome"},
		),
		CommandsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Executed commands by result (ok or error kind)",
			},
			[]string{"command", "result"},
		),
		CommandDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Command execution time in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"command"},
		),
		PoolQueueDepth: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "queue_depth",
				Help:      "Tasks waiting for a worker",
			},
		),
		PoolDroppedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "dropped_total",
				Help:      "Queued tasks discarded by the drop-oldest policy",
			},
		),
		MALRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mal",
				Name:      "requests_total",
				Help:      "MyAnimeList searches by kind and result",
			},
			[]string{"kind", "result"},
		),
	}
}

func (m *Metrics) Dispatched(outcome string) {
	if m == nil {
		return
	}
	m.DispatchMessagesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CommandFinished(command, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(command, result).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(took.Seconds())
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.PoolQueueDepth.Set(float64(n))
}

func (m *Metrics) TaskDropped() {
	if m == nil {
		return
	}
	m.PoolDroppedTotal.Inc()
}

func (m *Metrics) MALRequest(kind, result string) {
	if m == nil {
		return
	}
	m.MALRequestsTotal.WithLabelValues(kind, result).Inc()
}
