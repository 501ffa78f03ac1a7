package liveupdate

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     CheckOrigin,
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the page goes away. Pages only listen; anything they send is discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	events := subscription(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("WebSocket upgrade failed", "error", err)
		return
	}

	id, err := h.Register(conn, events)
	if err != nil {
		slog.Warn("Failed to subscribe page", "error", err)
		_ = conn.Close()
		return
	}
	defer h.Unregister(id)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// subscription reads the comma separated ?events= list. Empty means every
// event.
func subscription(r *http.Request) []string {
	var events []string
	for name := range strings.SplitSeq(r.URL.Query().Get("events"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			events = append(events, name)
		}
	}
	return events
}
