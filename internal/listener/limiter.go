package listener

import (
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/pscheid92/themebridge/internal/adapter/metrics"
)

// WorkerLimiter bounds how many handlers run at once. Requests beyond the
// limit wait for a free worker; they are not rejected.
type WorkerLimiter struct {
	slots   chan struct{}
	current atomic.Int64
	metrics *metrics.ListenerMetrics
}

func NewWorkerLimiter(workers int, m *metrics.ListenerMetrics) *WorkerLimiter {
	if workers < 1 {
		workers = 1
	}
	if m != nil {
		m.Workers.Set(float64(workers))
	}
	return &WorkerLimiter{slots: make(chan struct{}, workers), metrics: m}
}

// TryAcquire takes a worker if one is free.
func (l *WorkerLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.track(1)
		return true
	default:
		return false
	}
}

// Acquire waits for a worker. It returns false when done closes first.
func (l *WorkerLimiter) Acquire(done <-chan struct{}) bool {
	select {
	case l.slots <- struct{}{}:
		l.track(1)
		return true
	case <-done:
		return false
	}
}

func (l *WorkerLimiter) Release() {
	<-l.slots
	l.track(-1)
}

func (l *WorkerLimiter) Current() int64 { return l.current.Load() }

func (l *WorkerLimiter) Max() int { return cap(l.slots) }

func (l *WorkerLimiter) track(delta int64) {
	n := l.current.Add(delta)
	if l.metrics != nil {
		l.metrics.BusyWorkers.Set(float64(n))
	}
}

// Wrap runs next on a worker. WebSocket upgrades bypass the limiter since
// they hold their connection for the lifetime of the page.
func (l *WorkerLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			next.ServeHTTP(w, r)
			return
		}
		if !l.Acquire(r.Context().Done()) {
			return
		}
		defer l.Release()
		next.ServeHTTP(w, r)
	})
}
