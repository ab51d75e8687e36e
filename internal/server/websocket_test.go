package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"socialblog/internal/config"
	"socialblog/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T, env *testEnv) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.Shutdown() })
	return ln.Addr().String()
}

func dialWS(t *testing.T, addr, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	return dialer.Dial("ws://"+addr+"/api/ws", header)
}

func TestWebsocketReceivesCommentNotification(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser("alice")
	bob := env.createUser("bob")
	post := env.createPost(alice, "Ping me")
	addr := listen(t, env)

	conn, _, err := dialWS(t, addr, env.token(alice.ID))
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.srv.hub.IsOnline(alice.ID) }, 2*time.Second, 10*time.Millisecond)

	resp := env.browser(bob).postForm(fmt.Sprintf("/post/%d/comment/new", post.ID), url.Values{"content": {"hello alice"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev notifications.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, notifications.EventCommentCreated, ev.Type)
	assert.EqualValues(t, post.ID, ev.Payload["post_id"])
	assert.EqualValues(t, bob.ID, ev.Payload["user_id"])
}

func TestWebsocketRejectsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	addr := listen(t, env)

	_, resp, err := dialWS(t, addr, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWebsocketDisabledByFlag(t *testing.T) {
	env := newTestEnvWithConfig(t, &config.Config{FeatureFlags: "realtime_notifications=off"})
	alice := env.createUser("alice")
	addr := listen(t, env)

	_, resp, err := dialWS(t, addr, env.token(alice.ID))
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
