package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pscheid92/themebridge/internal/domain"
	"github.com/pscheid92/themebridge/internal/mainthread"
	"github.com/pscheid92/themebridge/internal/overlay"
	"github.com/pscheid92/themebridge/internal/protocol"
	"github.com/pscheid92/themebridge/internal/theme"
)

// Live event names.
const (
	EventThemeChanged      = "themeChanged"
	EventComponentsUpdated = "componentsUpdated"
	EventIntegrationReset  = "integrationReset"
)

// Publisher pushes a named event to every connected page.
type Publisher interface {
	Publish(name string, payload any) error
}

// MenuEntry is one screen the page can open and where it lives.
type MenuEntry struct {
	Screen domain.Screen `json:"screen"`
	Theme  string        `json:"theme"`
	URL    string        `json:"url"`
}

type Deps struct {
	Themes      *theme.Manager
	Overlay     *overlay.State
	Persistence *overlay.Persistence
	Publisher   Publisher
	Browser     domain.Browser
	Executor    *mainthread.Executor
	Protocol    *protocol.Protocol
}

// Integration keeps the browser surfaces in step with native state. It owns
// two surfaces: the integration page, which shows whatever screen the host
// asks for, and the HUD overlay. Theme switches reload both; component
// changes are pushed to the overlay without a reload.
type Integration struct {
	d Deps

	mu          sync.Mutex
	integration domain.BrowserSurface
	hud         domain.BrowserSurface
	override    string
}

func NewIntegration(d Deps) *Integration {
	i := &Integration{d: d}
	d.Themes.OnChange(i.themeChanged)
	d.Overlay.SetNotifier(i.componentsChanged)
	return i
}

// Open restores the stored component list, falling back to the active
// theme's components, and opens the browser surfaces on the owning thread.
func (i *Integration) Open(ctx context.Context) error {
	stored, err := i.d.Persistence.Load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to restore components, using theme components", "error", err)
	}
	if stored != nil {
		i.d.Overlay.Restore(stored)
	} else {
		i.d.Overlay.Replace(i.d.Themes.Active().Components())
	}

	integrationURL, err := i.integrationURL()
	if err != nil {
		return err
	}
	hudURL, hudErr := i.hudURL()

	return i.d.Executor.Run(ctx, func() error {
		tab, err := i.d.Browser.CreateInputAwareTab(integrationURL, func() bool { return true })
		if err != nil {
			return fmt.Errorf("failed to open integration surface: %w", err)
		}

		var hud domain.BrowserSurface
		if hudErr == nil {
			hud, err = i.d.Browser.CreateTab(hudURL)
			if err != nil {
				tab.Close()
				return fmt.Errorf("failed to open hud surface: %w", err)
			}
		} else {
			slog.Warn("No theme renders the hud, overlay disabled", "error", hudErr)
		}

		i.mu.Lock()
		i.integration, i.hud = tab, hud
		i.mu.Unlock()
		return nil
	})
}

// Close closes the browser surfaces on the owning thread.
func (i *Integration) Close(ctx context.Context) error {
	i.mu.Lock()
	tab, hud := i.integration, i.hud
	i.integration, i.hud = nil, nil
	i.mu.Unlock()

	return i.d.Executor.Run(ctx, func() error {
		if tab != nil {
			tab.Close()
		}
		if hud != nil {
			hud.Close()
		}
		return nil
	})
}

// Menu lists every screen that some installed theme can render.
func (i *Integration) Menu() []MenuEntry {
	var out []MenuEntry
	for _, s := range domain.Screens {
		r, err := i.d.Themes.Route(&s, false)
		if err != nil {
			continue
		}
		out = append(out, MenuEntry{Screen: s, Theme: r.Theme.Name, URL: r.URL})
	}
	return out
}

// Override points the integration surface at url until the next Reset.
func (i *Integration) Override(ctx context.Context, url string) error {
	i.mu.Lock()
	i.override = url
	i.mu.Unlock()

	slog.InfoContext(ctx, "Integration overridden", "url", url)
	return i.reload()
}

// Reset drops any override and reloads the active theme's root page.
func (i *Integration) Reset(ctx context.Context) error {
	i.mu.Lock()
	i.override = ""
	i.mu.Unlock()

	if err := i.reload(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Integration reset")
	i.publish(EventIntegrationReset, struct{}{})
	return nil
}

func (i *Integration) themeChanged(active *theme.Theme) {
	i.d.Overlay.Replace(active.Components())

	if err := i.reload(); err != nil {
		slog.Error("Failed to reload browser after theme change", "theme", active.Name, "error", err)
	}
	i.publish(EventThemeChanged, map[string]string{"name": active.Name})
}

func (i *Integration) componentsChanged(components []*overlay.Component) {
	i.publish(EventComponentsUpdated, i.d.Protocol.Serialize(components, protocol.Full))

	if err := i.d.Persistence.Save(context.Background(), components); err != nil {
		slog.Error("Failed to persist components", "error", err)
	}
}

func (i *Integration) publish(name string, payload any) {
	if i.d.Publisher == nil {
		return
	}
	if err := i.d.Publisher.Publish(name, payload); err != nil {
		slog.Warn("Failed to publish live event", "event", name, "error", err)
	}
}

// reload schedules both surfaces to load their current URLs.
func (i *Integration) reload() error {
	integrationURL, err := i.integrationURL()
	if err != nil {
		return err
	}
	hudURL, hudErr := i.hudURL()

	i.mu.Lock()
	tab, hud := i.integration, i.hud
	i.mu.Unlock()

	return i.d.Executor.Schedule(func() {
		if tab != nil {
			tab.LoadURL(integrationURL)
		}
		if hud != nil && hudErr == nil {
			hud.LoadURL(hudURL)
		}
	})
}

func (i *Integration) integrationURL() (string, error) {
	i.mu.Lock()
	override := i.override
	i.mu.Unlock()
	if override != "" {
		return override, nil
	}

	r, err := i.d.Themes.Route(nil, false)
	if err != nil {
		return "", fmt.Errorf("failed to resolve integration page: %w", err)
	}
	return r.URL, nil
}

func (i *Integration) hudURL() (string, error) {
	hud := domain.ScreenHUD
	r, err := i.d.Themes.Route(&hud, false)
	if err != nil {
		return "", err
	}
	return r.URL, nil
}
