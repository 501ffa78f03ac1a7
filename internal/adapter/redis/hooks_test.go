package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/themebridge/internal/adapter/metrics"
)

func failing(context.Context, goredis.Cmder) error { return errors.New("connection refused") }
func succeeding(context.Context, goredis.Cmder) error { return nil }
func missing(context.Context, goredis.Cmder) error { return goredis.Nil }

func TestBreakerHook_NormalOperation(t *testing.T) {
	hook := NewBreakerHook(nil)
	process := hook.ProcessHook(succeeding)
	ctx := context.Background()

	for range 10 {
		assert.NoError(t, process(ctx, goredis.NewStringCmd(ctx, "get", "key")))
	}
	assert.Equal(t, gobreaker.StateClosed, hook.State())
}

func TestBreakerHook_TransientFailures(t *testing.T) {
	hook := NewBreakerHook(nil)
	process := hook.ProcessHook(failing)
	ctx := context.Background()

	// Below the minimum request count the breaker stays closed.
	for range 4 {
		err := process(ctx, goredis.NewStringCmd(ctx, "get", "key"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	assert.Equal(t, gobreaker.StateClosed, hook.State())
}

func TestBreakerHook_OpensAfterSustainedFailures(t *testing.T) {
	m := metrics.NewRedisMetrics(prometheus.NewRegistry())
	hook := NewBreakerHook(m)
	process := hook.ProcessHook(failing)
	ctx := context.Background()

	for range 5 {
		_ = process(ctx, goredis.NewStringCmd(ctx, "get", "key"))
	}
	require.Equal(t, gobreaker.StateOpen, hook.State())
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.BreakerState), 0)

	called := false
	probe := hook.ProcessHook(func(context.Context, goredis.Cmder) error {
		called = true
		return nil
	})
	err := probe(ctx, goredis.NewStringCmd(ctx, "get", "key"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, called, "open breaker must not reach redis")
}

func TestBreakerHook_CacheMissIsSuccess(t *testing.T) {
	hook := NewBreakerHook(nil)
	process := hook.ProcessHook(missing)
	ctx := context.Background()

	for range 10 {
		err := process(ctx, goredis.NewStringCmd(ctx, "get", "key"))
		assert.ErrorIs(t, err, goredis.Nil)
	}
	assert.Equal(t, gobreaker.StateClosed, hook.State())
}

func TestMetricsHook_RecordsOutcome(t *testing.T) {
	m := metrics.NewRedisMetrics(prometheus.NewRegistry())
	hook := NewMetricsHook(m)
	ctx := context.Background()

	_ = hook.ProcessHook(succeeding)(ctx, goredis.NewStringCmd(ctx, "get", "key"))
	_ = hook.ProcessHook(missing)(ctx, goredis.NewStringCmd(ctx, "get", "key"))
	_ = hook.ProcessHook(failing)(ctx, goredis.NewStatusCmd(ctx, "set", "key", "v"))
	_ = hook.ProcessPipelineHook(func(context.Context, []goredis.Cmder) error { return nil })(ctx, nil)

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("get", "success")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("set", "error")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("pipeline", "success")), 0)
}
