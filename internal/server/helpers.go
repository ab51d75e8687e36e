package server

import (
	"errors"
	"net/url"
	"strings"

	"socialblog/internal/forms"
	"socialblog/internal/models"
	"socialblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}

// pathID parses a numeric route parameter. Page routes only match positive
// integers, so anything else is a 404.
func pathID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// apiID parses a numeric route parameter for JSON endpoints.
func apiID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid " + param)
	}
	return uint(id), nil
}

// safeNext accepts only same-site absolute paths as post-login targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return next
}

// applyServiceError moves a field-bound validation error into errs. Other
// errors are returned for the error handler.
func applyServiceError(errs forms.Errors, err error) error {
	if field, msg, ok := service.FieldOf(err); ok {
		errs.Add(field, msg)
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeValidation {
		errs.Add(forms.NonField, appErr.Message)
		return nil
	}
	return err
}
