package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"socialblog/internal/middleware"
	"socialblog/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	ctx, span := observability.StartRedisSpan(ctx, "get")
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		observability.EndSpan(span, nil)
		return false, nil
	}
	observability.EndSpan(span, err)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, span := observability.StartRedisSpan(ctx, "set")
	err = client.Set(ctx, key, b, ttl).Err()
	observability.EndSpan(span, err)
	return err
}

// Aside tries Redis first; on a miss (or a Redis failure) it calls fetch,
// which must populate dest, and stores the result with ttl. Cache errors
// never fail the read.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}
