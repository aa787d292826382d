package metrics

import (
	"github.com/crimpz/clic/internal/live"
	"github.com/prometheus/client_golang/prometheus"
)

// LiveMetrics implements live.Recorder.
type LiveMetrics struct {
	ActiveConnections prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	Delivered         *prometheus.CounterVec
	Dropped           *prometheus.CounterVec
}

var _ live.Recorder = (*LiveMetrics)(nil)

func NewLiveMetrics(reg prometheus.Registerer) *LiveMetrics {
	m := &LiveMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "active_connections",
			Help:      "Number of open live connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "connections_total",
			Help:      "Total number of accepted live connections.",
		}),
		Delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "events_delivered_total",
			Help:      "Events queued for a connected client, by event type.",
		}, []string{"type"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "events_dropped_total",
			Help:      "Events not delivered, by event type and reason.",
		}, []string{"type", "reason"}),
	}

	reg.MustRegister(m.ActiveConnections, m.ConnectionsTotal, m.Delivered, m.Dropped)
	return m
}

func (m *LiveMetrics) ConnectionOpened() {
	m.ActiveConnections.Inc()
	m.ConnectionsTotal.Inc()
}

func (m *LiveMetrics) ConnectionClosed() {
	m.ActiveConnections.Dec()
}

func (m *LiveMetrics) Delivered(eventType string) {
	m.Delivered.WithLabelValues(eventType).Inc()
}

func (m *LiveMetrics) Dropped(eventType, reason string) {
	m.Dropped.WithLabelValues(eventType, reason).Inc()
}
