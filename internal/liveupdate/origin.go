package liveupdate

import (
	"log/slog"
	"net/http"
	"net/url"
)

// CheckOrigin accepts connections from pages served by this process:
// requests without an Origin header and loopback origins.
func CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || isLoopbackOrigin(origin) {
		return true
	}

	slog.Warn("WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
	return false
}

func isLoopbackOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
