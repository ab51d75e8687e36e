package main

import (
	"bytes"
	"context"
	"testing"

	"socialblog/internal/config"
	"socialblog/internal/database"
	"socialblog/internal/models"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setup returns an empty in-memory database.
func setup(t *testing.T, env string) (*gorm.DB, connectFunc) {
	t.Helper()
	color.NoColor = true
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db, func() (*gorm.DB, *config.Config, error) {
		return db, &config.Config{Env: env, DBDriver: "sqlite"}, nil
	}
}

func run(t *testing.T, connect connectFunc, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(connect)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUpStatusDown(t *testing.T) {
	db, connect := setup(t, "development")

	out, err := run(t, connect, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "mode=hybrid env=development run_sql=true run_auto=false")
	assert.Contains(t, out, "pending")

	out, err = run(t, connect, "up")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 000001_init")
	assert.True(t, db.Migrator().HasTable(&models.Post{}))

	out, err = run(t, connect, "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")

	out, err = run(t, connect, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "applied")
	assert.NotContains(t, out, "pending")

	out, err = run(t, connect, "down")
	require.NoError(t, err)
	assert.Contains(t, out, "reverted 000001_init")
	assert.False(t, db.Migrator().HasTable(&models.Post{}))

	out, err = run(t, connect, "down")
	require.NoError(t, err)
	assert.Contains(t, out, "No migrations to revert")
}

func TestStatusFlagsDrift(t *testing.T) {
	db, connect := setup(t, "development")
	_, err := run(t, connect, "up")
	require.NoError(t, err)
	require.NoError(t, db.Model(&database.MigrationRecord{}).Where("version = ?", 1).Update("checksum", "stale").Error)

	out, err := run(t, connect, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "drifted")

	_, err = run(t, connect, "up")
	assert.ErrorContains(t, err, "changed after it was applied")
}

func TestAutoRefusedInProduction(t *testing.T) {
	db, connect := setup(t, "production")
	_, err := run(t, connect, "auto")
	assert.ErrorContains(t, err, "DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE")
	assert.False(t, db.Migrator().HasTable(&models.User{}))
}

func TestAutoMigratesModels(t *testing.T) {
	db, connect := setup(t, "development")
	out, err := run(t, connect, "auto")
	require.NoError(t, err)
	assert.Contains(t, out, "automigrations applied")
	assert.True(t, db.Migrator().HasTable(&models.Friendship{}))
}

func TestRejectsArguments(t *testing.T) {
	_, connect := setup(t, "development")
	_, err := run(t, connect, "down", "3")
	assert.Error(t, err)
}
