package metrics

import (
	"time"

	"github.com/crimpz/clic/internal/rpc"
	"github.com/prometheus/client_golang/prometheus"
)

// RPCMetrics implements rpc.Observer.
type RPCMetrics struct {
	Commands *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

var _ rpc.Observer = (*RPCMetrics)(nil)

func NewRPCMetrics(reg prometheus.Registerer) *RPCMetrics {
	m := &RPCMetrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "commands_total",
			Help:      "Dispatched commands, by method and outcome.",
		}, []string{"method", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "command_duration_seconds",
			Help:      "Command execution time in seconds, by method.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"method"}),
	}

	reg.MustRegister(m.Commands, m.Duration)
	return m
}

func (m *RPCMetrics) ObserveCommand(method, outcome string, duration time.Duration) {
	m.Commands.WithLabelValues(method, outcome).Inc()
	m.Duration.WithLabelValues(method).Observe(duration.Seconds())
}
