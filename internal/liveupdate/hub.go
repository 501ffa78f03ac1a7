package liveupdate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/themebridge/internal/adapter/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
	commandBuffer  = 256
)

// Event is the envelope every message is sent in.
type Event struct {
	Name  string `json:"name"`
	Event any    `json:"event"`
}

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	id           uuid.UUID
	connection   *websocket.Conn
	events       []string
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	id uuid.UUID
}

type publishCmd struct {
	baseHubCmd
	event outbound
}

type pageCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

type Hub struct {
	cmdCh       chan hubCmd
	clock       clockwork.Clock
	metrics     *metrics.LiveUpdateMetrics
	pages       map[uuid.UUID]*page
	maxPages    int
	snapshots   map[string]bool
	done        chan struct{}
	stopTimeout time.Duration
}

type Option func(*Hub)

// WithSnapshotEvents names events whose payload is the complete current
// state, such as the component list. A page that has not yet received one
// gets only the newest.
func WithSnapshotEvents(names ...string) Option {
	return func(h *Hub) {
		for _, name := range names {
			h.snapshots[name] = true
		}
	}
}

// NewHub starts the hub goroutine. maxPages bounds concurrent pages.
func NewHub(clock clockwork.Clock, m *metrics.LiveUpdateMetrics, maxPages int, opts ...Option) *Hub {
	h := &Hub{
		cmdCh:       make(chan hubCmd, commandBuffer),
		clock:       clock,
		metrics:     m,
		pages:       make(map[uuid.UUID]*page),
		maxPages:    maxPages,
		snapshots:   make(map[string]bool),
		done:        make(chan struct{}),
		stopTimeout: stopTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.run()
	return h
}

// Register hands conn to the hub and returns the page's id. A non-empty
// events list limits the page to those event names.
func (h *Hub) Register(conn *websocket.Conn, events []string) (uuid.UUID, error) {
	id := uuid.New()
	errCh := make(chan error, 1)
	h.cmdCh <- registerCmd{id: id, connection: conn, events: events, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return id, err
	case <-timer.Chan():
		return id, fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

func (h *Hub) Unregister(id uuid.UUID) {
	h.cmdCh <- unregisterCmd{id: id}
}

// Publish sends {"name": name, "event": payload} to every page subscribed to
// name.
func (h *Hub) Publish(name string, payload any) error {
	data, err := json.Marshal(Event{Name: name, Event: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", name, err)
	}
	h.cmdCh <- publishCmd{event: outbound{name: name, data: data, snapshot: h.snapshots[name]}}
	return nil
}

// PageCount returns the number of connected pages, or -1 on timeout.
func (h *Hub) PageCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- pageCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("PageCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop closes every page and waits for the hub goroutine to exit.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timeout := h.clock.NewTimer(h.stopTimeout)
	defer timeout.Stop()

	select {
	case <-h.done:
		slog.Info("Live update hub stopped gracefully")
	case <-timeout.Chan():
		slog.Error("Live update hub stop timeout exceeded", "timeout", h.stopTimeout, "pages", len(h.pages))
	}
}

func (h *Hub) run() {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Live update hub panic recovered", "panic", r)
			h.closeAll("hub panic")
		}
	}()

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.id)
		case publishCmd:
			h.handlePublish(c)
		case pageCountCmd:
			c.replyChannel <- len(h.pages)
		case stopCmd:
			slog.Info("Live update hub shutting down", "pages", len(h.pages))
			h.closeAll("Server shutting down")
			return
		default:
			slog.Warn("Live update hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.pages) >= h.maxPages {
		slog.Warn("Rejecting page: max pages reached", "max_pages", h.maxPages)
		_ = c.connection.Close()
		c.errorChannel <- fmt.Errorf("max pages (%d) reached", h.maxPages)
		return
	}

	h.pages[c.id] = newPage(c.connection, h.clock, h.metrics, c.events)
	h.metrics.Pages.Set(float64(len(h.pages)))

	slog.Debug("Page subscribed", "page_id", c.id.String(), "events", c.events, "pages", len(h.pages))
	c.errorChannel <- nil
}

func (h *Hub) handleUnregister(id uuid.UUID) {
	p, exists := h.pages[id]
	if !exists {
		return
	}

	p.close()
	delete(h.pages, id)
	h.metrics.Pages.Set(float64(len(h.pages)))
	slog.Debug("Page unsubscribed", "page_id", id.String(), "pages", len(h.pages))
}

func (h *Hub) handlePublish(c publishCmd) {
	h.metrics.EventsPublished.WithLabelValues(c.event.name).Inc()

	var behind []uuid.UUID
	for id, p := range h.pages {
		if !p.enqueue(c.event) {
			behind = append(behind, id)
		}
	}

	for _, id := range behind {
		slog.Warn("Disconnecting page that fell behind", "page_id", id.String(), "event", c.event.name)
		h.metrics.PagesEvicted.Inc()
		h.handleUnregister(id)
	}
}

func (h *Hub) closeAll(reason string) {
	for id, p := range h.pages {
		p.closeWithReason(reason)
		delete(h.pages, id)
	}
	h.metrics.Pages.Set(0)
}
