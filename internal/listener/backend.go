package listener

import (
	"context"
	"net"
)

// backend opens the listening socket. The choice is made once at startup
// and is invisible to handlers.
type backend interface {
	Name() string
	Listen(ctx context.Context, addr string) (net.Listener, error)
}

type portableBackend struct{}

func (portableBackend) Name() string { return "portable" }

func (portableBackend) Listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", addr)
}
