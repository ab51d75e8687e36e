package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"socialblog/internal/cache"
	"socialblog/internal/config"
	"socialblog/internal/models"
	"socialblog/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// newRedisTestEnv is newTestEnv backed by miniredis, with the package cache enabled.
func newRedisTestEnv(t *testing.T) (*testEnv, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.OpenSQLite(t)
	cfg := &config.Config{
		Env:       "test",
		JWTSecret: "test-secret-that-is-long-enough-1234",
		MediaRoot: t.TempDir(),
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	srv.userService.SetHashCost(bcrypt.MinCost)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &testEnv{t: t, srv: srv, app: srv.App(), db: db}, mr
}

func TestPostDetailReflectsPublisherRenameWithCache(t *testing.T) {
	env, mr := newRedisTestEnv(t)
	alice := env.createUser("alice")
	bob := env.createUser("bob")
	post := env.createPost(alice, "Cached post")
	postPath := fmt.Sprintf("/post/%d", post.ID)

	resp := env.do(httptest.NewRequest(http.MethodGet, postPath, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "alice")
	require.True(t, mr.Exists(cache.PostKey(post.ID)))

	owner := env.browser(alice)
	resp = owner.postForm(fmt.Sprintf("/profile/%d", alice.ID), url.Values{
		"username": {"alicia"},
		"email":    {"alice@example.com"},
		"bio":      {"renamed"},
	})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	body := readBody(t, env.browser(bob).get(postPath))
	assert.Contains(t, body, "alicia")
	assert.NotContains(t, body, ">alice<")

	resp = env.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var apiBody struct {
		Post models.PostResponse `json:"post"`
	}
	decodeJSON(t, resp, &apiBody)
	assert.Equal(t, "alicia", apiBody.Post.User.Username)
	assert.Equal(t, "renamed", apiBody.Post.User.Bio)
}

func TestLogoutRevokesTokenWithRedis(t *testing.T) {
	env, mr := newRedisTestEnv(t)
	alice := env.createUser("alice")
	token := env.token(alice.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, fiber.StatusOK, env.do(req).StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, fiber.StatusSeeOther, env.do(req).StatusCode)
	revoked := 0
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, blacklistPrefix) {
			revoked++
		}
	}
	assert.Equal(t, 1, revoked)

	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	assert.Equal(t, fiber.StatusUnauthorized, env.do(req).StatusCode)
}
