package retry

import (
	"context"
	"fmt"
	"time"
)

type Action int

const (
	Stop  Action = iota // permanent error, abort immediately
	Retry               // transient error, use normal backoff
	After               // rate-limited, use longer backoff
)

// Policy configures Do. A zero InitialBackoff retries immediately, which is
// what sequential port probing wants.
type Policy struct {
	MaxAttempts      int
	InitialBackoff   time.Duration
	RateLimitBackoff time.Duration
	OnRetry          func(attempt int, err error, backoff time.Duration)
}

type Classify func(err error) Action

// Operation receives the 1-based attempt number so callers can derive the
// input of each attempt (for example the port to bind).
type Operation[T any] func(attempt int) (T, error)
type VoidOperation func(attempt int) error

func Do[T any](ctx context.Context, p Policy, classify Classify, op Operation[T]) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		return zero, fmt.Errorf("retry policy needs at least one attempt, got %d", p.MaxAttempts)
	}

	backoff := p.InitialBackoff

	for attempt := 1; ; attempt++ {
		val, err := op(attempt)
		if err == nil {
			return val, nil
		}

		action := classify(err)
		if action == Stop {
			return zero, &PermanentError{Err: err, Attempt: attempt}
		}

		if attempt == p.MaxAttempts {
			return zero, &ExhaustedError{Err: err, Attempts: attempt}
		}

		if action == After {
			backoff = p.RateLimitBackoff
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, backoff)
		}

		if backoff <= 0 {
			if ctx.Err() != nil {
				return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
			}
			continue
		}

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
}

func DoVoid(ctx context.Context, p Policy, classify Classify, op VoidOperation) error {
	_, err := Do(ctx, p, classify, func(attempt int) (struct{}, error) { return struct{}{}, op(attempt) })
	return err
}

// PermanentError is returned when classify said Stop.
type PermanentError struct {
	Err     error
	Attempt int
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Err      error
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}
func (e *ExhaustedError) Unwrap() error { return e.Err }
