// Package mainthread marshals work onto the goroutine that owns the host's
// single-threaded state. Handlers never touch that state directly; they hand
// a function to the Executor and the owning loop runs it on its next tick.
package mainthread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var ErrStopped = errors.New("main thread executor stopped")

type task struct {
	fn   func() error
	done chan error
}

type Executor struct {
	clock clockwork.Clock

	mu      sync.Mutex
	queue   []task
	stopped bool
}

func NewExecutor(clock clockwork.Clock) *Executor {
	return &Executor{clock: clock}
}

// Run queues fn and blocks until the owning loop has run it or ctx is done.
func (e *Executor) Run(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if err := e.enqueue(task{fn: fn, done: done}); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule queues fn without waiting for it.
func (e *Executor) Schedule(fn func()) error {
	return e.enqueue(task{fn: func() error { fn(); return nil }})
}

func (e *Executor) enqueue(t task) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.queue = append(e.queue, t)
	return nil
}

// Drain runs every queued task on the calling goroutine. The host calls it
// once per tick from its own loop. Tasks queued while draining wait for the
// next call.
func (e *Executor) Drain() int {
	e.mu.Lock()
	pending := e.queue
	e.queue = nil
	e.mu.Unlock()

	for _, t := range pending {
		err := runTask(t.fn)
		if t.done != nil {
			t.done <- err
		}
	}
	return len(pending)
}

func runTask(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Main thread task panicked", "panic", r)
			err = fmt.Errorf("main thread task panicked: %v", r)
		}
	}()
	return fn()
}

// Loop drains on every tick until ctx is done. It stands in for the host
// loop when the process has none.
func (e *Executor) Loop(ctx context.Context, interval time.Duration) {
	ticker := e.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			e.Drain()
		case <-ctx.Done():
			return
		}
	}
}

// Stop rejects new work and fails everything still queued.
func (e *Executor) Stop() {
	e.mu.Lock()
	pending := e.queue
	e.queue = nil
	e.stopped = true
	e.mu.Unlock()

	for _, t := range pending {
		if t.done != nil {
			t.done <- ErrStopped
		}
	}
}
