package host

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/themebridge/internal/domain"
	"github.com/pscheid92/themebridge/internal/protocol"
)

func TestBrowser_TracksSurfaces(t *testing.T) {
	b := NewBrowser()

	tab, err := b.CreateTab("http://127.0.0.1:15000/default/#/hud")
	require.NoError(t, err)
	input, err := b.CreateInputAwareTab("http://127.0.0.1:15000/default/#/", func() bool { return true })
	require.NoError(t, err)

	input.LoadURL("http://127.0.0.1:15000/neon/#/")
	assert.Equal(t, "http://127.0.0.1:15000/neon/#/", input.(*Surface).URL())

	tab.Close()
	surfaces := b.Surfaces()
	require.Len(t, surfaces, 1)
	assert.Same(t, input.(*Surface), surfaces[0])
}

func TestSession_Read(t *testing.T) {
	clock := clockwork.NewFakeClock()
	connector := &Connector{}
	s := NewSession(clock, connector)

	clock.Advance(90 * time.Second)
	v, err := s.Read(t.Context())
	require.NoError(t, err)
	assert.Equal(t, sessionState{UptimeSeconds: 90}, v)

	connector.Connect(domain.ServerEntry{Name: "Hub", Address: "hub.example"})
	v, err = s.Read(t.Context())
	require.NoError(t, err)
	assert.Equal(t, sessionState{UptimeSeconds: 90, Server: "hub.example"}, v)
}

func TestSession_SerializesThroughProtocol(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewSession(clock, &Connector{})
	clock.Advance(5 * time.Second)

	v, err := s.Read(t.Context())
	require.NoError(t, err)

	data, err := protocol.NewFull().Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"uptimeSeconds":5}`, string(data))
}
