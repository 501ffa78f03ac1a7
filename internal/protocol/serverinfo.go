package protocol

import (
	"github.com/pscheid92/themebridge/internal/domain"
)

func serializeServerEntry(t *Table, v any) any {
	e := deref[domain.ServerEntry](v)

	var counts domain.PlayerCount
	if e.Players != nil {
		counts = *e.Players
	}
	players := t.fields([]Field{
		Nullable("max", counts.Max, e.Players != nil),
		Nullable("online", counts.Online, e.Players != nil),
	})

	playerList := e.PlayerList
	if playerList == nil {
		playerList = []string{}
	}

	return t.fields([]Field{
		F("name", e.Name),
		F("address", e.Address),
		F("online", e.Online),
		F("playerList", playerList),
		F("label", e.Label),
		F("playerCountLabel", e.PlayerCountLabel),
		F("version", e.Version),
		F("protocolVersion", e.ProtocolVersion),
		F("protocolVersionMatches", e.ProtocolVersion == t.protocolVersion),
		F("ping", e.Ping),
		F("players", players),
		Optional("icon", e.Icon, len(e.Icon) > 0),
	})
}
