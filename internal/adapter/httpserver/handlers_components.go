package httpserver

import (
	"encoding/json"
	"strings"

	"github.com/pscheid92/themebridge/internal/configurable"
	"github.com/pscheid92/themebridge/internal/overlay"
	apperrors "github.com/pscheid92/themebridge/internal/platform/errors"
	"github.com/pscheid92/themebridge/internal/protocol"
	"github.com/pscheid92/themebridge/internal/route"
)

type addComponentRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type removeComponentRequest struct {
	Name string `json:"name"`
}

// updateComponentRequest optionally carries new settings for one component.
// An empty body only re-broadcasts the list.
type updateComponentRequest struct {
	Name     string          `json:"name"`
	Settings json.RawMessage `json:"settings"`
}

func (s *Server) registerComponentRoutes(n *route.Node) {
	n.Get("", s.handleListComponents)
	n.Get("settings", s.handleComponentSettings)
	n.Put("add", s.handleAddComponent)
	n.Delete("remove", s.handleRemoveComponent)
	n.Post("clear", s.handleClearComponents)
	n.Post("update", s.handleUpdateComponents)
}

func (s *Server) handleListComponents(req *route.Request) (*route.Response, error) {
	return route.OK(s.deps.Protocol.Serialize(s.deps.Overlay.List(), protocol.Full))
}

func (s *Server) handleComponentSettings(req *route.Request) (*route.Response, error) {
	return route.OK(s.deps.Protocol.Serialize(s.deps.Overlay.List(), protocol.Stripped))
}

func (s *Server) handleAddComponent(req *route.Request) (*route.Response, error) {
	body, err := route.Decode[addComponentRequest](req)
	if err != nil {
		return nil, err
	}
	typ, err := overlay.ParseType(body.Type)
	if err != nil {
		return nil, classify(err)
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = s.deps.Overlay.NextName(typ)
	}
	c, err := overlay.New(typ, name)
	if err != nil {
		return nil, classify(err)
	}
	if err := s.deps.Overlay.Add(c); err != nil {
		return nil, classify(err)
	}

	return route.OK(s.deps.Protocol.Serialize(c, protocol.Full))
}

func (s *Server) handleRemoveComponent(req *route.Request) (*route.Response, error) {
	body, err := route.Decode[removeComponentRequest](req)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Overlay.Remove(body.Name); err != nil {
		return nil, componentError(classify(err), body.Name)
	}
	return route.Empty()
}

func (s *Server) handleClearComponents(req *route.Request) (*route.Response, error) {
	s.deps.Overlay.Clear()
	return route.Empty()
}

func (s *Server) handleUpdateComponents(req *route.Request) (*route.Response, error) {
	if len(req.Body) == 0 {
		s.deps.Overlay.Update()
		return route.Empty()
	}

	body, err := route.Decode[updateComponentRequest](req)
	if err != nil {
		return nil, err
	}
	if body.Name != "" && len(body.Settings) > 0 {
		c, ok := s.deps.Overlay.Get(body.Name)
		if !ok {
			return nil, apperrors.NotFoundError("component not found").WithField("component", body.Name)
		}
		doc, err := json.Marshal(map[string]json.RawMessage{"settings": body.Settings})
		if err != nil {
			return nil, apperrors.ValidationError("invalid settings")
		}
		if err := configurable.Decode(c.Configurable, doc); err != nil {
			// Valid settings were still applied; push them before reporting.
			s.deps.Overlay.Update()
			return nil, apperrors.ValidationError(err.Error()).WithField("component", c.Name())
		}
	}

	s.deps.Overlay.Update()
	return route.Empty()
}

func componentError(err error, name string) error {
	if structured, ok := err.(*apperrors.Error); ok {
		return structured.WithField("component", name)
	}
	return err
}
