//go:build linux

package listener

import (
	"context"
	"log/slog"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

const fastOpenQueue = 256

func platformBackend() backend { return nativeBackend{} }

// nativeBackend tunes the socket for many short loopback requests: accept
// only wakes once data arrived, and repeat clients may send data in the SYN.
type nativeBackend struct{}

func (nativeBackend) Name() string { return "native" }

func (nativeBackend) Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: func(_, _ string, c syscall.RawConn) error {
		return c.Control(func(fd uintptr) {
			if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_DEFER_ACCEPT, 1); err != nil {
				slog.Debug("TCP_DEFER_ACCEPT unavailable", "error", err)
			}
			if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_FASTOPEN, fastOpenQueue); err != nil {
				slog.Debug("TCP_FASTOPEN unavailable", "error", err)
			}
		})
	}}
	return lc.Listen(ctx, "tcp", addr)
}
