package metrics

import "github.com/prometheus/client_golang/prometheus"

// LiveUpdateMetrics covers the pages subscribed to /api/v1/events.
type LiveUpdateMetrics struct {
	Pages           prometheus.Gauge
	EventsPublished *prometheus.CounterVec
	EventsCoalesced *prometheus.CounterVec
	PagesEvicted    prometheus.Counter
	PingFailures    prometheus.Counter
	SendDuration    *prometheus.HistogramVec
}

func NewLiveUpdateMetrics(reg prometheus.Registerer) *LiveUpdateMetrics {
	m := &LiveUpdateMetrics{
		Pages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "liveupdate",
			Name:      "pages",
			Help:      "Pages holding the live update channel open.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liveupdate",
			Name:      "events_published_total",
			Help:      "Events published to pages, by event name.",
		}, []string{"event"}),
		EventsCoalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liveupdate",
			Name:      "events_coalesced_total",
			Help:      "Queued snapshot events replaced by a newer one before a page received them.",
		}, []string{"event"}),
		PagesEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liveupdate",
			Name:      "pages_evicted_total",
			Help:      "Pages disconnected for falling too far behind.",
		}),
		PingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liveupdate",
			Name:      "ping_failures_total",
			Help:      "Keepalive pings that could not be written.",
		}),
		SendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "liveupdate",
			Name:      "send_duration_seconds",
			Help:      "Time to write one event to a page, by event name.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
		}, []string{"event"}),
	}

	reg.MustRegister(m.Pages, m.EventsPublished, m.EventsCoalesced, m.PagesEvicted, m.PingFailures, m.SendDuration)
	return m
}
