package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// CacheMetrics implements redis.CacheRecorder and tracks the Redis breaker.
type CacheMetrics struct {
	Lookups            *prometheus.CounterVec
	BreakerState       prometheus.Gauge
	BreakerTransitions *prometheus.CounterVec
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "user_cache",
			Name:      "lookups_total",
			Help:      "User lookups, by the layer that answered (memory, redis, origin).",
		}, []string{"layer"}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "circuit_breaker_state",
			Help:      "Redis circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
		BreakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "circuit_breaker_transitions_total",
			Help:      "Redis circuit breaker transitions, by target state.",
		}, []string{"to"}),
	}

	reg.MustRegister(m.Lookups, m.BreakerState, m.BreakerTransitions)
	return m
}

func (m *CacheMetrics) Lookup(layer string) {
	m.Lookups.WithLabelValues(layer).Inc()
}

// BreakerChanged matches redis.StateListener.
func (m *CacheMetrics) BreakerChanged(_, to gobreaker.State) {
	m.BreakerTransitions.WithLabelValues(to.String()).Inc()
	m.BreakerState.Set(stateValue(to))
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
