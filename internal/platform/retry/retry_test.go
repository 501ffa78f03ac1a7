package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pscheid92/themebridge/internal/platform/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   1 * time.Millisecond,
	RateLimitBackoff: 5 * time.Millisecond,
}

func TestDo_PassesAttemptNumber(t *testing.T) {
	var seen []int
	val, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func(attempt int) (int, error) {
		seen = append(seen, attempt)
		if attempt < 3 {
			return 0, errors.New("transient")
		}
		return attempt * 10, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 30, val)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestDo_ZeroBackoffRetriesImmediately(t *testing.T) {
	p := retry.Policy{MaxAttempts: 50}
	start := time.Now()

	calls := 0
	_, err := retry.Do(context.Background(), p, alwaysRetry, func(int) (struct{}, error) {
		calls++
		return struct{}{}, errors.New("busy")
	})

	require.Error(t, err)
	assert.Equal(t, 50, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysStop, func(int) (struct{}, error) {
		calls++
		return struct{}{}, permanent
	})

	var permErr *retry.PermanentError
	require.ErrorAs(t, err, &permErr)
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, permErr.Attempt)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustedRetries(t *testing.T) {
	underlying := errors.New("transient")
	_, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func(int) (struct{}, error) {
		return struct{}{}, underlying
	})

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.ErrorIs(t, err, underlying)
	assert.Equal(t, fastPolicy.MaxAttempts, exhausted.Attempts)
}

func TestDo_RejectsEmptyPolicy(t *testing.T) {
	_, err := retry.Do(context.Background(), retry.Policy{}, alwaysRetry, func(int) (struct{}, error) {
		t.Fatal("operation must not run")
		return struct{}{}, nil
	})
	require.Error(t, err)
}

func TestDo_RateLimitBackoff(t *testing.T) {
	var observed time.Duration
	p := retry.Policy{
		MaxAttempts:      2,
		InitialBackoff:   1 * time.Millisecond,
		RateLimitBackoff: 5 * time.Millisecond,
		OnRetry: func(_ int, _ error, backoff time.Duration) {
			observed = backoff
		},
	}

	_, _ = retry.Do(context.Background(), p, func(error) retry.Action { return retry.After }, func(int) (struct{}, error) {
		return struct{}{}, errors.New("rate limited")
	})

	assert.Equal(t, 5*time.Millisecond, observed)
}

func TestDo_ContextCancellationDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retry.Policy{MaxAttempts: 3, InitialBackoff: 10 * time.Second}

	calls := 0
	_, err := retry.Do(ctx, p, alwaysRetry, func(int) (struct{}, error) {
		calls++
		cancel()
		return struct{}{}, errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoVoid_PropagatesError(t *testing.T) {
	underlying := errors.New("fail")
	err := retry.DoVoid(context.Background(), fastPolicy, alwaysStop, func(int) error {
		return underlying
	})

	var permErr *retry.PermanentError
	assert.ErrorAs(t, err, &permErr)
	assert.ErrorIs(t, err, underlying)
}

func alwaysRetry(error) retry.Action { return retry.Retry }
func alwaysStop(error) retry.Action  { return retry.Stop }
