package metrics

import "github.com/prometheus/client_golang/prometheus"

// ListenerMetrics holds Prometheus metrics for the loopback listener.
type ListenerMetrics struct {
	BindAttempts *prometheus.CounterVec
	Port         prometheus.Gauge
	Workers      prometheus.Gauge
	BusyWorkers  prometheus.Gauge
}

// NewListenerMetrics creates and registers listener metrics on the given registry.
func NewListenerMetrics(reg prometheus.Registerer) *ListenerMetrics {
	m := &ListenerMetrics{
		BindAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "bind_attempts_total",
			Help:      "Total number of bind attempts, by outcome (bound, conflict, fatal).",
		}, []string{"outcome"}),
		Port: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "port",
			Help:      "Port the listener is bound to, 0 when not running.",
		}),
		Workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "workers",
			Help:      "Maximum number of concurrently running handlers.",
		}),
		BusyWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "busy_workers",
			Help:      "Number of handlers currently running.",
		}),
	}

	reg.MustRegister(m.BindAttempts, m.Port, m.Workers, m.BusyWorkers)
	return m
}
