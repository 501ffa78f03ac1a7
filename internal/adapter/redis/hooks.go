package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/pscheid92/themebridge/internal/adapter/metrics"
)

// MetricsHook records every command's outcome and latency.
type MetricsHook struct {
	m *metrics.RedisMetrics
}

var _ goredis.Hook = (*MetricsHook)(nil)

func NewMetricsHook(m *metrics.RedisMetrics) *MetricsHook {
	return &MetricsHook{m: m}
}

func (h *MetricsHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.m.ConnectionErrors.Inc()
		}
		return conn, err
	}
}

func (h *MetricsHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(cmd.Name(), err, time.Since(start))
		return err
	}
}

func (h *MetricsHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observe("pipeline", err, time.Since(start))
		return err
	}
}

func (h *MetricsHook) observe(operation string, err error, d time.Duration) {
	status := "success"
	if err != nil && !errors.Is(err, goredis.Nil) {
		status = "error"
	}
	h.m.Operations.WithLabelValues(operation, status).Inc()
	h.m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// BreakerHook fails Redis commands fast while Redis is unreachable, so a
// down Redis costs one timeout per breaker period instead of one per call.
// Cache misses (redis.Nil) count as successes.
type BreakerHook struct {
	cb *gobreaker.CircuitBreaker
}

var _ goredis.Hook = (*BreakerHook)(nil)

// NewBreakerHook trips at a 60% failure rate over at least 5 requests in a
// 10s window and half-opens after 30s. m may be nil.
func NewBreakerHook(m *metrics.RedisMetrics) *BreakerHook {
	settings := gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, goredis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			if m != nil {
				m.BreakerState.Set(breakerStateValue(to))
			}
		},
	}
	return &BreakerHook{cb: gobreaker.NewCircuitBreaker(settings)}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}

func (h *BreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := h.cb.Execute(func() (any, error) {
			return next(ctx, network, addr)
		})
		if err != nil {
			return nil, fmt.Errorf("redis dial: %w", err)
		}
		return conn.(net.Conn), nil
	}
}

func (h *BreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		_, err := h.cb.Execute(func() (any, error) {
			return nil, next(ctx, cmd)
		})
		return err
	}
}

func (h *BreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		_, err := h.cb.Execute(func() (any, error) {
			return nil, next(ctx, cmds)
		})
		return err
	}
}

// State reports the breaker state.
func (h *BreakerHook) State() gobreaker.State {
	return h.cb.State()
}
