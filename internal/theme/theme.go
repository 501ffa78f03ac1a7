// Package theme resolves which packaged web UI serves a screen.
//
// A theme is a directory under the themes folder holding metadata.json and
// static assets. The built-in "default" theme ships embedded and is extracted
// on first start. Resolution prefers the active theme, falls back to the
// default theme, and fails when neither declares the screen.
package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pscheid92/themebridge/internal/configurable"
	"github.com/pscheid92/themebridge/internal/domain"
	"github.com/pscheid92/themebridge/internal/overlay"
	"github.com/pscheid92/themebridge/internal/protocol"
)

const (
	DefaultName  = "default"
	metadataFile = "metadata.json"
)

var (
	ErrThemeNotFound   = errors.New("theme not found")
	ErrNoThemeSupports = errors.New("no theme supports the route")
	ErrInvalidMetadata = errors.New("invalid theme metadata")
)

type Metadata struct {
	Name          string            `json:"name"`
	Author        string            `json:"author"`
	Version       string            `json:"version"`
	Supports      []string          `json:"supports"`
	Overlays      []string          `json:"overlays"`
	RawComponents []json.RawMessage `json:"components"`
}

type Theme struct {
	Name     string
	Folder   string
	Metadata Metadata
}

// Load opens the theme called name. It fails when the folder or its metadata
// file is missing or unreadable.
func Load(themesDir, name string) (*Theme, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: invalid name %q", ErrThemeNotFound, name)
	}

	folder := filepath.Join(themesDir, name)
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrThemeNotFound, name)
	}

	data, err := os.ReadFile(filepath.Join(folder, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s does not contain a metadata file", ErrThemeNotFound, name)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMetadata, name, err)
	}

	return &Theme{Name: name, Folder: folder, Metadata: meta}, nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}

// WireFields is the theme as the page sees it. The folder is a local path
// and stays out of the wire form.
func (t *Theme) WireFields() []protocol.Field {
	return []protocol.Field{
		protocol.F("name", t.Name),
		protocol.F("author", t.Metadata.Author),
		protocol.F("version", t.Metadata.Version),
		protocol.F("supports", t.Metadata.Supports),
		protocol.F("overlays", t.Metadata.Overlays),
		protocol.Exclude("folder", t.Folder),
	}
}

// Exists reports whether the backing folder is still present.
func (t *Theme) Exists() bool {
	info, err := os.Stat(t.Folder)
	return err == nil && info.IsDir()
}

func (t *Theme) Supports(screen string) bool {
	return screen != "" && slices.Contains(t.Metadata.Supports, screen)
}

func (t *Theme) Overlays(screen string) bool {
	return screen != "" && slices.Contains(t.Metadata.Overlays, screen)
}

// Accepts reports whether the theme renders screen, either as a full page or
// as an overlay.
func (t *Theme) Accepts(screen string) bool {
	return t.Supports(screen) || t.Overlays(screen)
}

// URL is <base>/<name>/#/<screen>, with "?static" appended when the page
// must not open live channels.
func (t *Theme) URL(base string, screen *domain.Screen, markStatic bool) string {
	url := base + "/" + t.Name + "/#/"
	if screen != nil {
		url += screen.String()
	}
	if markStatic {
		url += "?static"
	}
	return url
}

// Components builds the overlay components the theme ships with. Entries
// with an unknown type are skipped; entries whose settings fail to decode
// keep their defaults for the failing settings.
func (t *Theme) Components() []*overlay.Component {
	components := make([]*overlay.Component, 0, len(t.Metadata.RawComponents))
	seen := make(map[overlay.Type]int)
	for _, raw := range t.Metadata.RawComponents {
		var head struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			slog.Error("Failed to read theme component", "theme", t.Name, "error", err)
			continue
		}

		typ, err := overlay.ParseType(head.Name)
		if err != nil {
			slog.Error("Failed to create theme component", "theme", t.Name, "component", head.Name, "error", err)
			continue
		}

		seen[typ]++
		name := typ.DisplayName()
		if n := seen[typ]; n > 1 {
			name = fmt.Sprintf("%s %d", name, n)
		}

		c, err := overlay.New(typ, name)
		if err != nil {
			slog.Error("Failed to create theme component", "theme", t.Name, "component", head.Name, "error", err)
			continue
		}
		if err := configurable.Decode(c.Configurable, raw); err != nil {
			slog.Error("Failed to deserialize theme component", "theme", t.Name, "component", head.Name, "error", err)
		}
		components = append(components, c.FromTheme())
	}
	return components
}
