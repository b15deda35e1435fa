package integration_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KumudBhatt/Code-Nexus/internal/models"
	"github.com/KumudBhatt/Code-Nexus/internal/services"
	"github.com/KumudBhatt/Code-Nexus/tests/helpers"
)

// startServer runs a hub behind a plain websocket endpoint, the same accept
// path the HTTP handler uses, minus the framework plumbing.
func startServer(t *testing.T) (*httptest.Server, *services.Registry) {
	t.Helper()

	metrics := services.NewMetrics()
	registry := services.NewRegistry(metrics)
	hub := services.NewHub(registry, metrics)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			return
		}
		client := services.NewClient(conn, hub)
		hub.Attach(client)
		client.Start()
	}))
	t.Cleanup(srv.Close)

	return srv, registry
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestCollab_EditBroadcastSkipsSender(t *testing.T) {
	srv, _ := startServer(t)

	a := helpers.NewWSClient()
	require.NoError(t, a.Connect(wsURL(srv)))
	defer a.Close()
	b := helpers.NewWSClient()
	require.NoError(t, b.Connect(wsURL(srv)))
	defer b.Close()

	require.NoError(t, a.SendJoin("r1", "alice"))
	require.NotNil(t, a.WaitForMessageType(models.MsgTypeRoomState, 2*time.Second))

	require.NoError(t, b.SendJoin("r1", "bob"))
	require.NotNil(t, b.WaitForMessageType(models.MsgTypeRoomState, 2*time.Second))

	a.ClearMessages()
	b.ClearMessages()

	require.NoError(t, a.SendCodeUpdate("r1", "x=1"))

	got := b.WaitForMessageType(models.MsgTypeCodeUpdate, 2*time.Second)
	require.NotNil(t, got, "the other participant must receive the update")
	require.NotNil(t, got.Code)
	assert.Equal(t, "x=1", *got.Code)
	assert.Equal(t, "alice", got.Username)

	// The sender must never see its own update echoed back.
	assert.Nil(t, a.WaitForMessageType(models.MsgTypeCodeUpdate, 300*time.Millisecond))
}

func TestCollab_JoinDeliversSnapshotAndRoster(t *testing.T) {
	srv, _ := startServer(t)

	a := helpers.NewWSClient()
	require.NoError(t, a.Connect(wsURL(srv)))
	defer a.Close()

	require.NoError(t, a.SendJoin("r1", "alice"))
	require.NotNil(t, a.WaitForMessageType(models.MsgTypeRoomState, 2*time.Second))
	require.NoError(t, a.SendCodeUpdate("r1", "shared text"))

	b := helpers.NewWSClient()
	require.NoError(t, b.Connect(wsURL(srv)))
	defer b.Close()

	require.NoError(t, b.SendJoin("r1", "bob"))
	snapshot := b.WaitForMessageType(models.MsgTypeRoomState, 2*time.Second)
	require.NotNil(t, snapshot)
	require.NotNil(t, snapshot.Code)
	assert.Equal(t, "shared text", *snapshot.Code)

	roster := b.WaitForMessageType(models.MsgTypeClientUpdate, 2*time.Second)
	require.NotNil(t, roster)
	usernames := make([]string, 0, len(roster.Clients))
	for _, ci := range roster.Clients {
		usernames = append(usernames, ci.Username)
	}
	assert.ElementsMatch(t, []string{"alice", "bob"}, usernames)
}

func TestCollab_EndSessionDisbandsRoom(t *testing.T) {
	srv, registry := startServer(t)

	a := helpers.NewWSClient()
	require.NoError(t, a.Connect(wsURL(srv)))
	defer a.Close()
	b := helpers.NewWSClient()
	require.NoError(t, b.Connect(wsURL(srv)))
	defer b.Close()

	require.NoError(t, a.SendJoin("r1", "alice"))
	require.NotNil(t, a.WaitForMessageType(models.MsgTypeRoomState, 2*time.Second))
	require.NoError(t, b.SendJoin("r1", "bob"))
	require.NotNil(t, b.WaitForMessageType(models.MsgTypeRoomState, 2*time.Second))

	require.NoError(t, a.SendEndSession("r1"))

	require.NotNil(t, a.WaitForMessageType(models.MsgTypeRoomDisbanded, 2*time.Second))
	require.NotNil(t, b.WaitForMessageType(models.MsgTypeRoomDisbanded, 2*time.Second))

	assert.Eventually(t, func() bool {
		return !registry.HasRoom("r1")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCollab_DisconnectUpdatesRoster(t *testing.T) {
	srv, registry := startServer(t)

	a := helpers.NewWSClient()
	require.NoError(t, a.Connect(wsURL(srv)))
	b := helpers.NewWSClient()
	require.NoError(t, b.Connect(wsURL(srv)))
	defer b.Close()

	require.NoError(t, a.SendJoin("r1", "alice"))
	require.NotNil(t, a.WaitForMessageType(models.MsgTypeRoomState, 2*time.Second))
	require.NoError(t, b.SendJoin("r1", "bob"))
	require.NotNil(t, b.WaitForMessageType(models.MsgTypeRoomState, 2*time.Second))

	b.ClearMessages()

	// Drop alice's transport without a leaveRoom event.
	a.Close()

	roster := b.WaitForMessageType(models.MsgTypeClientUpdate, 3*time.Second)
	require.NotNil(t, roster)
	require.Len(t, roster.Clients, 1)
	assert.Equal(t, "bob", roster.Clients[0].Username)

	assert.Eventually(t, func() bool {
		return registry.ParticipantCount("r1") == 1
	}, 2*time.Second, 20*time.Millisecond)
}
