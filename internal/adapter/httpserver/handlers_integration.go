package httpserver

import (
	"net/url"
	"strings"

	"github.com/pscheid92/themebridge/internal/route"
)

type overrideRequest struct {
	URL string `json:"url"`
}

func (s *Server) registerIntegrationRoutes(n *route.Node) {
	n.Get("", s.handleIntegrationMenu)
	n.Post("reset", s.handleIntegrationReset)
	n.Post("override", s.handleIntegrationOverride)
}

func (s *Server) handleIntegrationMenu(req *route.Request) (*route.Response, error) {
	return route.OK(s.deps.Integration.Menu())
}

func (s *Server) handleIntegrationReset(req *route.Request) (*route.Response, error) {
	if err := s.deps.Integration.Reset(req.Context); err != nil {
		return nil, classify(err)
	}
	return route.Empty()
}

func (s *Server) handleIntegrationOverride(req *route.Request) (*route.Response, error) {
	body, err := route.Decode[overrideRequest](req)
	if err != nil {
		return nil, err
	}
	target := strings.TrimSpace(body.URL)
	if u, err := url.Parse(target); err != nil || u.Scheme == "" {
		return route.BadRequest("url must be absolute")
	}

	if err := s.deps.Integration.Override(req.Context, target); err != nil {
		return nil, classify(err)
	}
	return route.Empty()
}
