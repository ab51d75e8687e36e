package server

import (
	"errors"
	"strings"

	"socialblog/internal/middleware"
	"socialblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

var statusMessages = map[int]string{
	fiber.StatusBadRequest:   "The request could not be understood.",
	fiber.StatusUnauthorized: "You need to log in to see this page.",
	fiber.StatusForbidden:    "You do not have permission to do that.",
	fiber.StatusNotFound:     "The page you are looking for does not exist.",
}

// ErrorHandler maps handler errors to a status and renders either the error
// page or, under /api, the JSON error body.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(), "path", c.Path(), "error", err.Error())
	}

	if strings.HasPrefix(c.Path(), "/api") {
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				err = &models.AppError{Code: codeForStatus(status), Message: fe.Message}
			} else {
				err = models.NewInternalError(err)
			}
		}
		return models.RespondWithError(c, status, err)
	}

	message := statusMessages[status]
	var fe *fiber.Error
	if message == "" && errors.As(err, &fe) && status < fiber.StatusInternalServerError {
		message = fe.Message
	}
	if message == "" {
		message = "Something went wrong on our side. Please try again later."
	}

	if renderErr := s.render(c, status, "error", fiber.Map{
		"Title":   "Error",
		"Status":  status,
		"Message": message,
	}); renderErr != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to render error page", "error", renderErr.Error())
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(status).SendString(message)
	}
	return nil
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return models.CodeValidation
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return models.CodeInternal
	}
}
