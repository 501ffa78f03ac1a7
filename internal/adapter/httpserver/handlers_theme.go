package httpserver

import (
	"errors"
	"strings"

	"github.com/pscheid92/themebridge/internal/domain"
	apperrors "github.com/pscheid92/themebridge/internal/platform/errors"
	"github.com/pscheid92/themebridge/internal/protocol"
	"github.com/pscheid92/themebridge/internal/route"
	"github.com/pscheid92/themebridge/internal/theme"
)

type setThemeRequest struct {
	Name string `json:"name"`
}

func (s *Server) registerThemeRoutes(n *route.Node) {
	n.Get("", s.handleGetThemes)
	n.Put("set", s.handleSetTheme)
	n.Put("unset", s.handleUnsetTheme)
	n.Get("route", s.handleRouteTheme)
}

func (s *Server) handleGetThemes(req *route.Request) (*route.Response, error) {
	themes, err := s.deps.Themes.List()
	if err != nil {
		return nil, apperrors.InternalError("failed to list themes", err)
	}

	table := s.deps.Protocol.Table(protocol.Stripped)
	out := protocol.NewObject()
	table.Put(out, "active", s.deps.Themes.Active())
	table.Put(out, "themes", themes)
	return route.OK(out)
}

func (s *Server) handleSetTheme(req *route.Request) (*route.Response, error) {
	body, err := route.Decode[setThemeRequest](req)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return route.BadRequest("name is required")
	}

	if err := s.deps.Themes.SetActive(req.Context, name); err != nil {
		if errors.Is(err, theme.ErrThemeNotFound) {
			return nil, apperrors.NotFoundError("theme not found").WithField("theme", name)
		}
		return nil, classify(err)
	}
	return route.Empty()
}

func (s *Server) handleUnsetTheme(req *route.Request) (*route.Response, error) {
	s.deps.Themes.Unset(req.Context)
	return route.Empty()
}

// handleRouteTheme resolves ?screen= to a theme and URL. Without a screen the
// active theme's root page is returned. ?static marks the URL static.
func (s *Server) handleRouteTheme(req *route.Request) (*route.Response, error) {
	var screen *domain.Screen
	if name := req.Query.Get("screen"); name != "" {
		parsed, err := domain.ParseScreen(name)
		if err != nil {
			return nil, apperrors.ValidationError("unknown screen").WithField("screen", name)
		}
		screen = &parsed
	}
	_, markStatic := req.Query["static"]

	resolved, err := s.deps.Themes.Route(screen, markStatic)
	if err != nil {
		structured := classify(err)
		if se, ok := structured.(*apperrors.Error); ok && screen != nil {
			return nil, se.WithField("screen", screen.String())
		}
		return nil, structured
	}

	out := protocol.NewObject()
	table := s.deps.Protocol.Table(protocol.Stripped)
	table.Put(out, "theme", resolved.Theme)
	out.Set("url", resolved.URL)
	return route.OK(out)
}
