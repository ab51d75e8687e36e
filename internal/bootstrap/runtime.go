// Package bootstrap connects the runtime dependencies shared by the server
// and the command-line tools.
package bootstrap

import (
	"fmt"
	"strings"

	"socialblog/internal/cache"
	"socialblog/internal/config"
	"socialblog/internal/database"
	"socialblog/internal/middleware"
	"socialblog/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedPreset names an embedded fixture to load after connecting. It is
	// only honoured in development.
	SeedPreset string
}

// InitRuntime connects to DB and Redis and optionally loads a seed preset.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if err := seedDevelopment(cfg, db, opts.SeedPreset); err != nil {
		return nil, nil, err
	}
	return db, rdb, nil
}

func seedDevelopment(cfg *config.Config, db *gorm.DB, preset string) error {
	preset = strings.TrimSpace(preset)
	if preset == "" {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") {
		middleware.Logger.Warn("ignoring SEED_PRESET outside development", "env", cfg.Env, "preset", preset)
		return nil
	}
	if err := seed.NewSeeder(db, seed.Options{}).ApplyPreset(preset); err != nil {
		return fmt.Errorf("seed preset %s: %w", preset, err)
	}
	middleware.Logger.Info("seed preset applied", "preset", preset)
	return nil
}
