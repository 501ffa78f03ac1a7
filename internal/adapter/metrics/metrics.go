// Package metrics defines the bridge's Prometheus metrics. Every component
// gets its own struct registered on a shared registry, so tests can build
// isolated registries and assert on single collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "themebridge"

// NewRegistry returns the registry for one bridge process. Besides the
// runtime and process collectors it exports the module's build info.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
		collectors.NewBuildInfoCollector(),
	)
	return reg
}

// Handler serves reg. A failing collector does not fail the scrape; the
// error count and scrape counts are exported on reg itself.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.InstrumentMetricHandler(reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
		Registry:      reg,
	}))
}
