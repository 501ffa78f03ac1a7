package metrics

import "github.com/prometheus/client_golang/prometheus"

// ServerListMetrics holds Prometheus metrics for server list pings.
type ServerListMetrics struct {
	Pings        *prometheus.CounterVec
	PingDuration prometheus.Histogram
	BreakerState *prometheus.GaugeVec
}

// NewServerListMetrics creates and registers server list metrics on the given registry.
func NewServerListMetrics(reg prometheus.Registerer) *ServerListMetrics {
	m := &ServerListMetrics{
		Pings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "serverlist",
			Name:      "pings_total",
			Help:      "Total number of server pings, by result.",
		}, []string{"result"}),
		PingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "serverlist",
			Name:      "ping_duration_seconds",
			Help:      "Duration of server pings in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "serverlist",
			Name:      "circuit_breaker_state",
			Help:      "Ping circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"name"}),
	}

	reg.MustRegister(m.Pings, m.PingDuration, m.BreakerState)
	return m
}
