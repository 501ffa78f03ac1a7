package httpserver

import (
	"strings"

	"github.com/pscheid92/themebridge/internal/protocol"
	apperrors "github.com/pscheid92/themebridge/internal/platform/errors"
	"github.com/pscheid92/themebridge/internal/route"
)

type connectRequest struct {
	Address string `json:"address"`
}

type addServerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type removeServerRequest struct {
	Index int `json:"index"`
}

type editServerRequest struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type swapServerRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type reorderServerRequest struct {
	Order []int `json:"order"`
}

func (s *Server) registerServerRoutes(n *route.Node) {
	n.Get("", s.handleListServers)
	n.Post("connect", s.handleConnectServer)
	n.Put("add", s.handleAddServer)
	n.Delete("remove", s.handleRemoveServer)
	n.Put("edit", s.handleEditServer)
	n.Post("swap", s.handleSwapServers)
	n.Post("order", s.handleReorderServers)
}

func (s *Server) handleListServers(req *route.Request) (*route.Response, error) {
	entries := s.deps.Servers.List(req.Context)
	table := s.deps.Protocol.Table(protocol.Full)

	out := make([]any, 0, len(entries))
	for _, e := range entries {
		wire := table.Serialize(e.Entry)
		if obj, ok := wire.(*protocol.Object); ok {
			obj.Set("index", e.Index)
		}
		out = append(out, wire)
	}
	return route.OK(out)
}

func (s *Server) handleConnectServer(req *route.Request) (*route.Response, error) {
	body, err := route.Decode[connectRequest](req)
	if err != nil {
		return nil, err
	}
	address := strings.TrimSpace(body.Address)
	if address == "" {
		return route.BadRequest("address is required")
	}

	if _, err := s.deps.Servers.Connect(address); err != nil {
		return nil, classify(err)
	}
	return route.Empty()
}

func (s *Server) handleAddServer(req *route.Request) (*route.Response, error) {
	body, err := route.Decode[addServerRequest](req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body.Address) == "" {
		return route.BadRequest("address is required")
	}

	if err := s.deps.Servers.Add(req.Context, body.Name, strings.TrimSpace(body.Address)); err != nil {
		return nil, classify(err)
	}
	return route.Empty()
}

func (s *Server) handleRemoveServer(req *route.Request) (*route.Response, error) {
	body, err := route.Decode[removeServerRequest](req)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Servers.Remove(req.Context, body.Index); err != nil {
		return nil, indexError(classify(err), body.Index)
	}
	return route.Empty()
}

func (s *Server) handleEditServer(req *route.Request) (*route.Response, error) {
	body, err := route.Decode[editServerRequest](req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body.Address) == "" {
		return route.BadRequest("address is required")
	}

	if err := s.deps.Servers.Edit(req.Context, body.Index, body.Name, strings.TrimSpace(body.Address)); err != nil {
		return nil, indexError(classify(err), body.Index)
	}
	return route.Empty()
}

func (s *Server) handleSwapServers(req *route.Request) (*route.Response, error) {
	body, err := route.Decode[swapServerRequest](req)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Servers.Swap(req.Context, body.From, body.To); err != nil {
		return nil, classify(err)
	}
	return route.Empty()
}

func (s *Server) handleReorderServers(req *route.Request) (*route.Response, error) {
	body, err := route.Decode[reorderServerRequest](req)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Servers.Reorder(req.Context, body.Order); err != nil {
		return nil, classify(err)
	}
	return route.Empty()
}

func indexError(err error, index int) error {
	if structured, ok := err.(*apperrors.Error); ok && structured.Type == apperrors.TypeValidation {
		return structured.WithField("index", index)
	}
	return err
}
