package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"socialblog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, models.CodeNotFound, codeForStatus(fiber.StatusNotFound))
	assert.Equal(t, models.CodeForbidden, codeForStatus(fiber.StatusForbidden))
	assert.Equal(t, models.CodeUnauthorized, codeForStatus(fiber.StatusUnauthorized))
	assert.Equal(t, models.CodeInternal, codeForStatus(fiber.StatusInternalServerError))
}

func TestErrorPageRendersHTML(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(httptest.NewRequest(http.MethodGet, "/no/such/page", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), fiber.MIMETextHTML)
	assert.Contains(t, readBody(t, resp), "The page you are looking for does not exist.")
}
