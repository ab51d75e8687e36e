package notifications

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveHub exposes hub on ws://<addr>/ws, registering every connection as userID.
func serveHub(t *testing.T, hub *Hub, userID uint) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", fiberws.New(func(conn *fiberws.Conn) {
		client, err := hub.Register(userID, conn)
		if err != nil {
			return
		}
		go client.WritePump()
		client.ReadPump()
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return ln.Addr().String()
}

func TestHub_ShutdownWithLiveClient(t *testing.T) {
	hub := NewHub()
	addr := serveHub(t, hub, 3)

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.IsOnline(3) }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.BroadcastEvent(3, Event{Type: EventFriendAdded}))

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.Count())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), EventFriendAdded)

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	_, err = hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_PeerDisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()
	addr := serveHub(t, hub, 4)

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.IsOnline(4) }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()

	assert.Eventually(t, func() bool { return !hub.IsOnline(4) }, 2*time.Second, 10*time.Millisecond)
}
