package domain

import "context"

// Ping sentinels shown by the server list page.
const (
	PingPending int64 = -2
	PingFailed  int64 = -1
)

type PlayerCount struct {
	Max    int
	Online int
}

// ServerEntry is a network peer descriptor in the server list.
type ServerEntry struct {
	Name    string
	Address string
	Icon    []byte

	// Status fields are refreshed by the pinger and never persisted.
	Online           bool
	Ping             int64
	Label            string
	PlayerCountLabel string
	Version          string
	ProtocolVersion  int
	Players          *PlayerCount
	PlayerList       []string
}

// ServerRepository persists the ordered server list.
type ServerRepository interface {
	LoadAll(ctx context.Context) ([]ServerEntry, error)
	SaveAll(ctx context.Context, entries []ServerEntry) error
}

// Connector starts a connection to a server. It touches native state and is
// only ever called on the owning thread.
type Connector interface {
	Connect(entry ServerEntry)
}
