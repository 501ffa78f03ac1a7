package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pscheid92/themebridge/internal/app"
	"github.com/pscheid92/themebridge/internal/domain"
	"github.com/pscheid92/themebridge/internal/overlay"
	"github.com/pscheid92/themebridge/internal/protocol"
	"github.com/pscheid92/themebridge/internal/serverlist"
	"github.com/pscheid92/themebridge/internal/theme"
)

// --- Themes ---

type fakeThemes struct {
	mu     sync.Mutex
	dir    string
	def    *theme.Theme
	active *theme.Theme
	themes map[string]*theme.Theme
}

func newFakeThemes(t *testing.T) *fakeThemes {
	t.Helper()
	dir := t.TempDir()
	def := &theme.Theme{Name: theme.DefaultName, Folder: dir, Metadata: theme.Metadata{
		Name: theme.DefaultName, Supports: []string{"title"},
	}}
	neon := &theme.Theme{Name: "neon", Folder: dir, Metadata: theme.Metadata{
		Name: "neon", Author: "someone", Supports: []string{"clickgui"}, Overlays: []string{"hud"},
	}}
	return &fakeThemes{
		dir:    dir,
		def:    def,
		active: def,
		themes: map[string]*theme.Theme{def.Name: def, neon.Name: neon},
	}
}

func (f *fakeThemes) ThemeFolder(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.themes[name]; ok {
		return t.Folder, true
	}
	return "", false
}

func (f *fakeThemes) ActiveFolder() string { return f.Active().Folder }

func (f *fakeThemes) Active() *theme.Theme {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeThemes) List() ([]*theme.Theme, error) {
	return []*theme.Theme{f.themes[theme.DefaultName], f.themes["neon"]}, nil
}

func (f *fakeThemes) SetActive(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.themes[name]
	if !ok {
		return fmt.Errorf("%w: %s", theme.ErrThemeNotFound, name)
	}
	f.active = t
	return nil
}

func (f *fakeThemes) Unset(context.Context) {
	f.mu.Lock()
	f.active = f.def
	f.mu.Unlock()
}

func (f *fakeThemes) Route(screen *domain.Screen, markStatic bool) (theme.Route, error) {
	active := f.Active()
	var chosen *theme.Theme
	switch {
	case screen == nil || active.Accepts(screen.String()):
		chosen = active
	case f.def.Accepts(screen.String()):
		chosen = f.def
	default:
		return theme.Route{}, fmt.Errorf("%w %s", theme.ErrNoThemeSupports, screen.String())
	}
	return theme.Route{Theme: chosen, URL: chosen.URL("http://127.0.0.1:15000", screen, markStatic)}, nil
}

// --- Servers ---

type fakeServers struct {
	mu        sync.Mutex
	entries   []domain.ServerEntry
	connected []string
	err       error
}

func (f *fakeServers) List(context.Context) []serverlist.Indexed {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]serverlist.Indexed, len(f.entries))
	for i, e := range f.entries {
		e.Online, e.Ping = true, domain.PingPending
		out[i] = serverlist.Indexed{Index: i, Entry: e}
	}
	return out
}

func (f *fakeServers) Connect(address string) (domain.ServerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.ServerEntry{}, f.err
	}
	f.connected = append(f.connected, address)
	for _, e := range f.entries {
		if strings.EqualFold(e.Address, address) {
			return e, nil
		}
	}
	return domain.ServerEntry{Name: serverlist.UnknownServerName, Address: address}, nil
}

func (f *fakeServers) Add(_ context.Context, name, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, domain.ServerEntry{Name: name, Address: address})
	return nil
}

func (f *fakeServers) Remove(_ context.Context, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.entries) {
		return fmt.Errorf("%w: %d", domain.ErrIndexOutOfRange, index)
	}
	f.entries = append(f.entries[:index], f.entries[index+1:]...)
	return nil
}

func (f *fakeServers) Edit(_ context.Context, index int, name, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.entries) {
		return fmt.Errorf("%w: %d", domain.ErrIndexOutOfRange, index)
	}
	f.entries[index].Name, f.entries[index].Address = name, address
	return nil
}

func (f *fakeServers) Swap(_ context.Context, from, to int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.entries)
	if from < 0 || from >= n || to < 0 || to >= n {
		return domain.ErrIndexOutOfRange
	}
	f.entries[from], f.entries[to] = f.entries[to], f.entries[from]
	return nil
}

func (f *fakeServers) Reorder(_ context.Context, order []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(order) != len(f.entries) {
		return domain.ErrInvalidOrder
	}
	next := make([]domain.ServerEntry, len(order))
	for i, idx := range order {
		next[i] = f.entries[idx]
	}
	f.entries = next
	return nil
}

// --- Integration ---

type fakeIntegration struct {
	mu        sync.Mutex
	resets    int
	overrides []string
}

func (f *fakeIntegration) Menu() []app.MenuEntry {
	return []app.MenuEntry{{Screen: domain.ScreenTitle, Theme: theme.DefaultName, URL: "http://127.0.0.1:15000/default/#/title"}}
}

func (f *fakeIntegration) Reset(context.Context) error {
	f.mu.Lock()
	f.resets++
	f.mu.Unlock()
	return nil
}

func (f *fakeIntegration) Override(_ context.Context, url string) error {
	f.mu.Lock()
	f.overrides = append(f.overrides, url)
	f.mu.Unlock()
	return nil
}

// --- Server under test ---

type testServer struct {
	*Server
	themes      *fakeThemes
	servers     *fakeServers
	integration *fakeIntegration
	overlay     *overlay.State
	notified    int
}

type testServerOption func(*Deps, *[]HealthCheck)

func withHealthChecks(checks ...HealthCheck) testServerOption {
	return func(_ *Deps, hc *[]HealthCheck) {
		*hc = checks
	}
}

func withServers(entries ...domain.ServerEntry) testServerOption {
	return func(d *Deps, _ *[]HealthCheck) {
		d.Servers.(*fakeServers).entries = entries
	}
}

func newTestServer(t *testing.T, opts ...testServerOption) *testServer {
	t.Helper()

	ts := &testServer{
		themes:      newFakeThemes(t),
		servers:     &fakeServers{},
		integration: &fakeIntegration{},
	}
	ts.overlay = overlay.NewState(func([]*overlay.Component) { ts.notified++ })

	deps := Deps{
		Themes:      ts.themes,
		Servers:     ts.servers,
		Integration: ts.integration,
		Overlay:     ts.overlay,
		Protocol:    protocol.New(),
	}
	var checks []HealthCheck
	for _, opt := range opts {
		opt(&deps, &checks)
	}

	ts.Server = NewServer(deps, checks)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	require.NotNil(t, rec)
	return rec
}
