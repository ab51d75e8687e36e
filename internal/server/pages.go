package server

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"socialblog/internal/middleware"
	"socialblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

const flashCookie = "flash"

// Flash levels.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashDanger  = "danger"
)

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// addFlash queues a message for the next page render, usually after a redirect.
func (s *Server) addFlash(c *fiber.Ctx, level, text string) {
	flashes := pendingFlashes(c)
	flashes = append(flashes, Flash{Level: level, Text: text})
	c.Locals(flashCookie, flashes)

	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   s.secureCookies(),
	})
}

// pendingFlashes returns flashes queued earlier in this request, falling back
// to the ones carried over in the cookie.
func pendingFlashes(c *fiber.Ctx) []Flash {
	if queued, ok := c.Locals(flashCookie).([]Flash); ok {
		return queued
	}
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}

// takeFlashes returns and clears pending flashes.
func (s *Server) takeFlashes(c *fiber.Ctx) []Flash {
	flashes := pendingFlashes(c)
	if len(flashes) > 0 || c.Cookies(flashCookie) != "" {
		c.Locals(flashCookie, []Flash{})
		c.Cookie(&fiber.Cookie{
			Name:     flashCookie,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   s.secureCookies(),
		})
	}
	return flashes
}

// render executes a page template inside the base layout. data may be nil.
func (s *Server) render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	userID, _ := middleware.CurrentUserID(c)
	var current *models.User
	if userID != 0 {
		if u, err := s.userService.GetUserByID(c.UserContext(), userID); err == nil {
			current = u
		} else {
			middleware.Logger.WarnContext(c.UserContext(), "failed to load session user", "error", err)
		}
	}
	data["CurrentUser"] = current
	data["CurrentUserID"] = userID
	data["Flashes"] = s.takeFlashes(c)
	if _, ok := data["Searched"]; !ok {
		data["Searched"] = ""
	}
	if _, ok := data["Title"]; !ok {
		data["Title"] = ""
	}
	return c.Status(status).Render(name, data)
}

// seeOther redirects with 303 so the browser follows with a GET.
func seeOther(c *fiber.Ctx, location string) error {
	return c.Redirect(location, fiber.StatusSeeOther)
}

func (s *Server) secureCookies() bool {
	return s.config.Env == "production"
}
