package theme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pscheid92/themebridge/internal/configurable"
	"github.com/pscheid92/themebridge/internal/domain"
	"github.com/pscheid92/themebridge/internal/platform/logging"
	"github.com/pscheid92/themebridge/internal/protocol"
)

const configName = "theme"

// Route is a resolved screen: the theme serving it and the URL to load.
type Route struct {
	Theme *Theme
	URL   string
}

// Observer is called after the active theme changed.
type Observer func(active *Theme)

// Manager owns the active theme. The active theme is never nil; it starts as
// the default theme.
type Manager struct {
	themesDir string
	baseURL   func() string
	store     domain.ConfigStore
	table     *protocol.Table

	mu        sync.RWMutex
	def       *Theme
	active    *Theme
	observers []Observer
}

// NewManager extracts the default theme if needed and activates it. store
// may be nil, in which case the active theme is not persisted.
func NewManager(themesDir string, baseURL func() string, store domain.ConfigStore) (*Manager, error) {
	if err := EnsureDefault(themesDir); err != nil {
		return nil, err
	}
	def, err := Load(themesDir, DefaultName)
	if err != nil {
		return nil, fmt.Errorf("failed to load default theme: %w", err)
	}

	return &Manager{
		themesDir: themesDir,
		baseURL:   baseURL,
		store:     store,
		table:     protocol.NewStripped(),
		def:       def,
		active:    def,
	}, nil
}

// OnChange registers an observer. Observers run on the goroutine that
// switched the theme, after the switch is visible.
func (m *Manager) OnChange(obs Observer) {
	m.mu.Lock()
	m.observers = append(m.observers, obs)
	m.mu.Unlock()
}

func (m *Manager) Active() *Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

func (m *Manager) Default() *Theme {
	return m.def
}

// Route resolves screen to a theme and URL. A nil screen is the theme's
// root page and always resolves to the active theme.
func (m *Manager) Route(screen *domain.Screen, markStatic bool) (Route, error) {
	m.mu.RLock()
	active, def := m.active, m.def
	m.mu.RUnlock()

	if active != def && !active.Exists() {
		slog.Warn("Active theme folder is gone, routing to default", "theme", active.Name)
		active = def
	}

	var chosen *Theme
	switch {
	case screen == nil || active.Accepts(screen.String()):
		chosen = active
	case def.Accepts(screen.String()):
		chosen = def
	default:
		return Route{}, fmt.Errorf("%w %s", ErrNoThemeSupports, screen.String())
	}

	if !chosen.Exists() {
		return Route{}, fmt.Errorf("%w: %s", ErrThemeNotFound, chosen.Name)
	}
	return Route{Theme: chosen, URL: chosen.URL(m.baseURL(), screen, markStatic)}, nil
}

// SetActive switches to the theme called name. When it cannot be loaded the
// previous theme stays active.
func (m *Manager) SetActive(ctx context.Context, name string) error {
	t, err := Load(m.themesDir, name)
	if err != nil {
		slog.WarnContext(ctx, "Unable to set theme, theme does not exist", "theme", name, "error", err)
		return err
	}
	m.activate(ctx, t)
	return nil
}

// Unset returns to the default theme.
func (m *Manager) Unset(ctx context.Context) {
	m.activate(ctx, m.def)
}

func (m *Manager) activate(ctx context.Context, t *Theme) {
	m.mu.Lock()
	m.active = t
	observers := append([]Observer(nil), m.observers...)
	m.mu.Unlock()

	logging.WithTheme(t.Name).InfoContext(ctx, "Theme activated")

	if err := m.persist(ctx, t.Name); err != nil {
		slog.WarnContext(ctx, "Failed to persist active theme", "theme", t.Name, "error", err)
	}
	for _, obs := range observers {
		obs(t)
	}
}

// Restore re-activates the persisted theme. Failures are logged and the
// default theme stays active.
func (m *Manager) Restore(ctx context.Context) {
	if m.store == nil {
		return
	}

	data, err := m.store.Load(ctx, configName)
	if errors.Is(err, domain.ErrConfigNotFound) {
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to load persisted theme", "error", err)
		return
	}

	doc, name := themeDocument("")
	if err := configurable.Decode(doc, data); err != nil {
		slog.WarnContext(ctx, "Failed to decode persisted theme", "error", err)
		return
	}
	if name.Text() == "" || name.Text() == m.Active().Name {
		return
	}
	_ = m.SetActive(ctx, name.Text())
}

func (m *Manager) persist(ctx context.Context, name string) error {
	if m.store == nil {
		return nil
	}
	doc, _ := themeDocument(name)
	data, err := m.table.Marshal(doc)
	if err != nil {
		return err
	}
	return m.store.Store(ctx, configName, data)
}

func themeDocument(name string) (*configurable.Configurable, *configurable.Value) {
	active := configurable.NewText("Active", name)
	return configurable.New(configName, active), active
}

// List returns every usable theme in the themes folder.
func (m *Manager) List() ([]*Theme, error) {
	entries, err := os.ReadDir(m.themesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read themes folder: %w", err)
	}

	themes := make([]*Theme, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		t, err := Load(m.themesDir, e.Name())
		if err != nil {
			slog.Debug("Skipping theme folder", "folder", filepath.Join(m.themesDir, e.Name()), "error", err)
			continue
		}
		themes = append(themes, t)
	}
	return themes, nil
}

// ThemeFolder returns the folder of a usable theme.
func (m *Manager) ThemeFolder(name string) (string, bool) {
	if active := m.Active(); active.Name == name {
		return active.Folder, true
	}
	t, err := Load(m.themesDir, name)
	if err != nil {
		return "", false
	}
	return t.Folder, true
}

// ActiveFolder is where assets outside any theme prefix are served from.
func (m *Manager) ActiveFolder() string {
	return m.Active().Folder
}
