package liveupdate

import (
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/themebridge/internal/adapter/metrics"
)

const (
	writeDeadline = 5 * time.Second
	pingInterval  = 30 * time.Second
	pongDeadline  = 60 * time.Second

	// pendingLimit bounds the events queued for one page. A snapshot event
	// replaces its queued predecessor, so it never occupies two slots.
	pendingLimit = 16
)

type outbound struct {
	name     string
	data     []byte
	snapshot bool
}

// page delivers events to one browser page. The hub only enqueues; the
// page's goroutine does the writing.
type page struct {
	conn    *websocket.Conn
	clock   clockwork.Clock
	metrics *metrics.LiveUpdateMetrics
	events  map[string]bool // nil subscribes to everything

	mu      sync.Mutex
	pending []outbound
	wake    chan struct{}

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newPage(conn *websocket.Conn, clock clockwork.Clock, m *metrics.LiveUpdateMetrics, events []string) *page {
	p := &page{
		conn:    conn,
		clock:   clock,
		metrics: m,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if len(events) > 0 {
		p.events = make(map[string]bool, len(events))
		for _, name := range events {
			p.events[name] = true
		}
	}
	p.keepAlive()
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *page) subscribed(name string) bool {
	return p.events == nil || p.events[name]
}

// enqueue queues ev for writing and reports false when the page has fallen
// pendingLimit events behind.
func (p *page) enqueue(ev outbound) bool {
	if !p.subscribed(ev.name) {
		return true
	}

	p.mu.Lock()
	if ev.snapshot {
		i := slices.IndexFunc(p.pending, func(o outbound) bool { return o.name == ev.name })
		if i >= 0 {
			p.pending = slices.Delete(p.pending, i, i+1)
			p.metrics.EventsCoalesced.WithLabelValues(ev.name).Inc()
		}
	}
	if len(p.pending) >= pendingLimit {
		p.mu.Unlock()
		return false
	}
	p.pending = append(p.pending, ev)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return true
}

func (p *page) drain() []outbound {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch := p.pending
	p.pending = nil
	return batch
}

func (p *page) run() {
	ticker := p.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer p.wg.Done()

	for {
		select {
		case <-p.wake:
			for _, ev := range p.drain() {
				if !p.write(ev) {
					return
				}
			}
		case <-ticker.Chan():
			p.extendWrite()
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				p.metrics.PingFailures.Inc()
				return
			}
		case <-p.done:
			return
		}
	}
}

func (p *page) write(ev outbound) bool {
	start := p.clock.Now()
	p.extendWrite()
	if err := p.conn.WriteMessage(websocket.TextMessage, ev.data); err != nil {
		return false
	}
	p.metrics.SendDuration.WithLabelValues(ev.name).Observe(p.clock.Since(start).Seconds())
	return true
}

// close drops the connection without a close frame, for pages that went
// away or fell behind.
func (p *page) close() {
	p.stopOnce.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
	p.wg.Wait()
}

// closeWithReason tells the page why it is being disconnected.
func (p *page) closeWithReason(reason string) {
	p.stopOnce.Do(func() {
		close(p.done)
		// No concurrent writer may exist while the close frame goes out.
		p.wg.Wait()

		p.extendWrite()
		_ = p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
		_ = p.conn.Close()
	})
}

// keepAlive expects a pong within pongDeadline of every ping.
func (p *page) keepAlive() {
	p.extendRead()
	p.conn.SetPongHandler(func(string) error {
		p.extendRead()
		return nil
	})
}

func (p *page) extendWrite() { _ = p.conn.SetWriteDeadline(p.clock.Now().Add(writeDeadline)) }
func (p *page) extendRead()  { _ = p.conn.SetReadDeadline(p.clock.Now().Add(pongDeadline)) }
