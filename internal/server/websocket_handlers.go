package server

import (
	"errors"

	"socialblog/internal/featureflags"
	"socialblog/internal/middleware"
	"socialblog/internal/notifications"
	"socialblog/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const localWSUserID = "ws_user_id"

// WebsocketUpgrade admits authenticated websocket upgrades on /api/ws.
func (s *Server) WebsocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	if !s.featureFlags.Enabled(featureflags.RealtimeNotifications, userID) {
		return fiber.NewError(fiber.StatusNotFound, "Realtime notifications are disabled")
	}
	c.Locals(localWSUserID, userID)
	return c.Next()
}

// WebsocketHandler streams the user's notification events until either side
// closes the socket.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(localWSUserID).(uint)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			reason := "register_failed"
			switch {
			case errors.Is(err, notifications.ErrServerFull):
				reason = "server_full"
			case errors.Is(err, notifications.ErrUserFull):
				reason = "user_full"
			}
			observability.WebSocketBackpressureDrops.WithLabelValues(s.hub.Name(), reason).Inc()
			middleware.Logger.Warn("websocket rejected", "user_id", userID, "reason", reason)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, reason))
			_ = conn.Close()
			return
		}
		middleware.Logger.Debug("websocket connected", "user_id", userID)

		go client.WritePump()
		client.ReadPump()
	})
}
