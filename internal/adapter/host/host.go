// Package host stands in for the native application when the bridge runs as
// a standalone process: browser surfaces and server connections are logged
// instead of driving a real embedded browser or game client.
package host

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/themebridge/internal/domain"
)

// Browser records the URL each surface shows.
type Browser struct {
	mu       sync.Mutex
	surfaces []*Surface
}

var _ domain.Browser = (*Browser)(nil)

func NewBrowser() *Browser {
	return &Browser{}
}

func (b *Browser) CreateTab(url string) (domain.BrowserSurface, error) {
	return b.open(url, nil), nil
}

func (b *Browser) CreateInputAwareTab(url string, takesInput func() bool) (domain.BrowserSurface, error) {
	return b.open(url, takesInput), nil
}

func (b *Browser) open(url string, takesInput func() bool) *Surface {
	s := &Surface{url: url, takesInput: takesInput}
	b.mu.Lock()
	b.surfaces = append(b.surfaces, s)
	b.mu.Unlock()

	slog.Info("Browser surface opened", "url", url, "input_aware", takesInput != nil)
	return s
}

// Surfaces returns every surface that is still open.
func (b *Browser) Surfaces() []*Surface {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Surface, 0, len(b.surfaces))
	for _, s := range b.surfaces {
		if !s.Closed() {
			out = append(out, s)
		}
	}
	return out
}

type Surface struct {
	mu         sync.Mutex
	url        string
	closed     bool
	takesInput func() bool
}

func (s *Surface) LoadURL(url string) {
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()
	slog.Info("Browser surface navigated", "url", url)
}

func (s *Surface) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Surface) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *Surface) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Connector logs connection requests and remembers the last one.
type Connector struct {
	mu   sync.Mutex
	last *domain.ServerEntry
}

var _ domain.Connector = (*Connector)(nil)

func (c *Connector) Connect(entry domain.ServerEntry) {
	c.mu.Lock()
	c.last = &entry
	c.mu.Unlock()
	slog.Info("Connecting to server", "name", entry.Name, "address", entry.Address)
}

// Last is the most recent connection target.
func (c *Connector) Last() (domain.ServerEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return domain.ServerEntry{}, false
	}
	return *c.last, true
}

// Session is the tick-driven state a standalone host can report: how long
// it has been up and where it is connected.
type Session struct {
	clock     clockwork.Clock
	started   time.Time
	connector *Connector
}

func NewSession(clock clockwork.Clock, connector *Connector) *Session {
	return &Session{clock: clock, started: clock.Now(), connector: connector}
}

type sessionState struct {
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Server        string `json:"server,omitempty"`
}

// Read samples the session. It matches app.ReadFunc.
func (s *Session) Read(context.Context) (any, error) {
	state := sessionState{UptimeSeconds: int64(s.clock.Since(s.started).Seconds())}
	if entry, ok := s.connector.Last(); ok {
		state.Server = entry.Address
	}
	return state, nil
}
