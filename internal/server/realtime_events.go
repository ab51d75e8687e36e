package server

import (
	"socialblog/internal/featureflags"
	"socialblog/internal/middleware"
	"socialblog/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// publishUserEvent delivers an event to userID's open sockets. With Redis it
// goes through pub/sub so every process sees it; without, only local
// connections receive it.
func (s *Server) publishUserEvent(c *fiber.Ctx, userID uint, eventType string, payload map[string]any) {
	if !s.featureFlags.Enabled(featureflags.RealtimeNotifications, userID) {
		return
	}
	ev := notifications.Event{Type: eventType, Payload: payload}
	ctx := c.UserContext()

	if !s.notifier.Enabled() {
		s.hub.BroadcastEvent(userID, ev)
		return
	}
	if err := s.notifier.PublishEvent(ctx, userID, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			"type", eventType, "target_user_id", userID, "error", err)
		s.hub.BroadcastEvent(userID, ev)
	}
}
