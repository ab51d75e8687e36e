package server

import (
	"errors"
	"time"

	"socialblog/internal/forms"
	"socialblog/internal/middleware"
	"socialblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LoginPage handles GET /login
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if _, ok := middleware.CurrentUserID(c); ok {
		return seeOther(c, safeNext(c.Query("next")))
	}
	return s.render(c, fiber.StatusOK, "login", fiber.Map{
		"Title":  "Log In",
		"Form":   forms.LoginForm{Next: c.Query("next")},
		"Errors": forms.Errors{},
	})
}

// Login handles POST /login. On success the session cookie is set and the
// browser is sent to the local "next" path, or the feed.
func (s *Server) Login(c *fiber.Ctx) error {
	var form forms.LoginForm
	if err := forms.Bind(c, &form); err != nil {
		return fiber.ErrBadRequest
	}
	errs := forms.Validate(form)
	if errs.Valid() {
		user, err := s.userService.Authenticate(c.UserContext(), form.Username, form.Password)
		if err != nil {
			var appErr *models.AppError
			if !errors.As(err, &appErr) || appErr.Code != models.CodeUnauthorized {
				return err
			}
			errs.Add(forms.NonField, appErr.Message)
		} else {
			if err := s.startSession(c, user.ID); err != nil {
				return err
			}
			middleware.Logger.InfoContext(c.UserContext(), "user logged in", "login_user_id", user.ID)
			return seeOther(c, safeNext(form.Next))
		}
	}

	form.Password = ""
	return s.render(c, fiber.StatusUnprocessableEntity, "login", fiber.Map{
		"Title":  "Log In",
		"Form":   form,
		"Errors": errs,
	})
}

// Logout handles POST /logout. The token is blacklisted until it would have
// expired, so a copied cookie stops working too.
func (s *Server) Logout(c *fiber.Ctx) error {
	if jti, ok := c.Locals(middleware.LocalTokenID).(string); ok && jti != "" && s.redis != nil {
		ttl := time.Until(expiryOf(c))
		if ttl > 0 {
			if err := s.redis.Set(c.UserContext(), blacklistPrefix+jti, "1", ttl).Err(); err != nil {
				middleware.Logger.WarnContext(c.UserContext(), "failed to revoke session", "error", err)
			}
		}
	}
	s.clearSession(c)
	s.addFlash(c, FlashInfo, "You have been logged out.")
	return seeOther(c, loginPath)
}

// APILogin handles POST /api/auth/login
// @Summary Log in
// @Description Exchange credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) APILogin(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil || req.Username == "" || req.Password == "" {
		return models.NewValidationError("username and password are required")
	}
	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	token, claims, err := s.sessions.IssueToken(user.ID, s.sessionTTL)
	if err != nil {
		return models.NewInternalError(err)
	}
	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": claims.ExpiresAt,
		"user":       user,
	})
}

func (s *Server) startSession(c *fiber.Ctx, userID uint) error {
	token, claims, err := s.sessions.IssueToken(userID, s.sessionTTL)
	if err != nil {
		return models.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   s.secureCookies(),
	})
	return nil
}

func (s *Server) clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   s.secureCookies(),
	})
}

func expiryOf(c *fiber.Ctx) time.Time {
	if exp, ok := c.Locals(middleware.LocalTokenExpiry).(time.Time); ok {
		return exp
	}
	return time.Now().Add(defaultSessionTTL)
}
