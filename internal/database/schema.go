package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"socialblog/internal/config"
	"socialblog/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes selected by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan is what ApplySchema does for a configuration.
type SchemaPlan struct {
	Mode        string
	SQL         bool
	AutoMigrate bool
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// PlanSchema resolves DB_SCHEMA_MODE for the configured driver and environment.
//
//	sql     embedded SQL migrations only
//	auto    gorm AutoMigrate only; prod-like envs need DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE
//	hybrid  SQL migrations, then AutoMigrate on postgres outside prod-like envs
//
// On sqlite the SQL schema is authoritative in hybrid mode.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	plan := SchemaPlan{Mode: mode}
	prodLike := isProdLikeEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.AutoMigrate = true
	case SchemaModeHybrid:
		plan.SQL = true
		plan.AutoMigrate = !prodLike && cfg.DBDriver != "sqlite"
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
	return plan, nil
}

// ApplySchema brings db up to date according to PlanSchema.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		migrator, err := NewMigrator(db)
		if err != nil {
			return err
		}
		ran, err := migrator.Up(ctx)
		if err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
		middleware.Logger.Info("SQL migrations checked", slog.Int("applied", len(ran)))
	}

	if plan.AutoMigrate {
		if plan.Mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("AutoMigrate allowed in a prod-like environment; review schema diffs")
		}
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", plan.Mode), slog.String("env", cfg.Env))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}
