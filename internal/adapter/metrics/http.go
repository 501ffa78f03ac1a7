package metrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	clientAPIPrefix = "/api/v1/client/"
	eventsPath      = "/api/v1/events"
)

// Route modules as they appear in the module label. Requests served by the
// theme fallback count as "static"; anything unmatched is "unrouted".
const (
	ModuleStatic   = "static"
	ModuleEvents   = "events"
	ModuleUnrouted = "unrouted"
)

// HTTPMetrics counts API and theme asset traffic by route-tree module.
type HTTPMetrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorResponses  *prometheus.CounterVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served, by route module, method and status class.",
		}, []string{"module", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Handler latency by route module.",
			// Loopback requests: sub-millisecond to a slow owning-thread hop.
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, 1},
		}, []string{"module"}),
		ErrorResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "error_responses_total",
			Help:      "Responses with status 400 or above, by route module and status code.",
		}, []string{"module", "code"}),
	}

	reg.MustRegister(m.Requests, m.RequestDuration, m.ErrorResponses)
	return m
}

// Module maps an Echo route path onto the route-tree module that serves it:
// the first segment below /api/v1/client, "events" for the live channel and
// "static" for the theme fallback. Health and metrics routes return "".
func Module(routePath string) string {
	switch {
	case routePath == "/metrics", strings.HasPrefix(routePath, "/health/"), routePath == "/version":
		return ""
	case routePath == eventsPath:
		return ModuleEvents
	case routePath == "/*":
		return ModuleStatic
	case strings.HasPrefix(routePath, clientAPIPrefix):
		module, _, _ := strings.Cut(strings.TrimPrefix(routePath, clientAPIPrefix), "/")
		return module
	}
	return ModuleUnrouted
}

// Middleware records every request except health, version and metrics. The
// websocket upgrade is counted but not timed, since it lasts as long as the
// page stays open.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			module := Module(c.Path())
			if module == "" {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) && !c.Response().Committed {
				status = he.Code
			}
			m.Requests.WithLabelValues(module, c.Request().Method, statusClass(status)).Inc()
			if status >= 400 {
				m.ErrorResponses.WithLabelValues(module, strconv.Itoa(status)).Inc()
			}
			if module != ModuleEvents {
				m.RequestDuration.WithLabelValues(module).Observe(time.Since(start).Seconds())
			}
			return err
		}
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
