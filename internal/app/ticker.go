package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/themebridge/internal/platform/correlation"
	"github.com/pscheid92/themebridge/internal/protocol"
)

const DefaultTickInterval = 50 * time.Millisecond

// ReadFunc samples a piece of native state. It is called from the ticker's
// goroutine, so it must marshal onto the owning thread itself if needed.
type ReadFunc func(ctx context.Context) (any, error)

// DataTicker samples tracked sources every tick and publishes the ones whose
// wire form changed since the last publish. Pages get tick-driven data such
// as player stats without polling.
type DataTicker struct {
	clock     clockwork.Clock
	interval  time.Duration
	table     *protocol.Table
	publisher Publisher

	mu      sync.Mutex
	sources map[string]ReadFunc
	last    map[string][]byte
}

func NewDataTicker(clock clockwork.Clock, interval time.Duration, table *protocol.Table, publisher Publisher) *DataTicker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &DataTicker{
		clock:     clock,
		interval:  interval,
		table:     table,
		publisher: publisher,
		sources:   make(map[string]ReadFunc),
		last:      make(map[string][]byte),
	}
}

// Track publishes read's value as event name whenever it changes.
func (t *DataTicker) Track(name string, read ReadFunc) {
	t.mu.Lock()
	t.sources[name] = read
	delete(t.last, name)
	t.mu.Unlock()
}

func (t *DataTicker) Untrack(name string) {
	t.mu.Lock()
	delete(t.sources, name)
	delete(t.last, name)
	t.mu.Unlock()
}

// Run refreshes on every tick until ctx is cancelled.
func (t *DataTicker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.refresh(ctx)
		}
	}
}

func (t *DataTicker) refresh(ctx context.Context) {
	t.mu.Lock()
	sources := make(map[string]ReadFunc, len(t.sources))
	for name, read := range t.sources {
		sources[name] = read
	}
	t.mu.Unlock()

	for name, read := range sources {
		tickCtx := correlation.WithID(ctx, correlation.NewID())

		v, err := read(tickCtx)
		if err != nil {
			slog.DebugContext(tickCtx, "Ticker: read failed", "event", name, "error", err)
			continue
		}

		payload := t.table.Serialize(v)
		encoded, err := json.Marshal(payload)
		if err != nil {
			slog.WarnContext(tickCtx, "Ticker: encode failed", "event", name, "error", err)
			continue
		}

		t.mu.Lock()
		_, tracked := t.sources[name]
		unchanged := bytes.Equal(t.last[name], encoded)
		if tracked && !unchanged {
			t.last[name] = encoded
		}
		t.mu.Unlock()
		if !tracked || unchanged {
			continue
		}

		if err := t.publisher.Publish(name, payload); err != nil {
			slog.WarnContext(tickCtx, "Ticker: publish failed", "event", name, "error", err)
		}
	}
}
