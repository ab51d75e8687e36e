package database

import (
	"context"
	"testing"
	"time"

	"socialblog/internal/config"
	"socialblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: NewGormLogger(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openMemoryDB(t)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConfigurePool_Defaults(t *testing.T) {
	db := openMemoryDB(t)
	require.NoError(t, configurePool(db, &config.Config{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: "sqlite", DBSQLitePath: "x.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = Dialector(&config.Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestPostgresDSN_DefaultsSSLMode(t *testing.T) {
	dsn := postgresDSN("h", "5432", "u", "p", "n", "")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "dbname=n")
}

func TestGetReadDB_FallsBackToPrimary(t *testing.T) {
	prevDB, prevRead := DB, ReadDB
	t.Cleanup(func() { DB, ReadDB = prevDB, prevRead })

	primary := openMemoryDB(t)
	DB, ReadDB = primary, nil
	assert.Same(t, primary, GetReadDB())

	replica := openMemoryDB(t)
	ReadDB = replica
	assert.Same(t, replica, GetReadDB())
}

func TestApplySchema_SQLiteRunsSQLMigrations(t *testing.T) {
	db := openMemoryDB(t)
	cfg := &config.Config{DBDriver: "sqlite", DBSchemaMode: "hybrid", Env: "development"}

	require.NoError(t, ApplySchema(context.Background(), db, cfg))
	require.NoError(t, ApplySchema(context.Background(), db, cfg), "second run is a no-op")

	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m), "%T table should exist", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Friendship{}, "idx_friendship_users"))

	var records []MigrationRecord
	require.NoError(t, db.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, "init", records[0].Name)
}

func TestApplySchema_SQLiteAutoMode(t *testing.T) {
	db := openMemoryDB(t)
	cfg := &config.Config{DBDriver: "sqlite", DBSchemaMode: "auto", Env: "test"}

	require.NoError(t, ApplySchema(context.Background(), db, cfg))
	assert.True(t, db.Migrator().HasTable(&models.Post{}))
	assert.False(t, db.Migrator().HasTable(&MigrationRecord{}))
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		sql     bool
		auto    bool
		wantErr bool
	}{
		{"hybrid dev", config.Config{Env: "development"}, true, true, false},
		{"hybrid prod", config.Config{Env: "production", DBSchemaMode: "hybrid"}, true, false, false},
		{"hybrid sqlite", config.Config{Env: "development", DBDriver: "sqlite"}, true, false, false},
		{"sql only", config.Config{Env: "development", DBSchemaMode: "sql"}, true, false, false},
		{"sql on sqlite", config.Config{Env: "production", DBDriver: "sqlite", DBSchemaMode: "SQL "}, true, false, false},
		{"auto dev", config.Config{Env: "development", DBSchemaMode: "auto"}, false, true, false},
		{"auto prod refused", config.Config{Env: "production", DBSchemaMode: "auto"}, false, false, true},
		{"auto staging refused", config.Config{Env: "Staging", DBSchemaMode: "auto"}, false, false, true},
		{"auto prod allowed", config.Config{Env: "production", DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, false, true, false},
		{"unknown mode", config.Config{DBSchemaMode: "yolo"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			plan, err := PlanSchema(&cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sql, plan.SQL)
			assert.Equal(t, tt.auto, plan.AutoMigrate)
		})
	}
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	base := NewGormLogger(logger.Warn)
	quiet := base.LogMode(logger.Silent).(*CustomGormLogger)

	assert.Equal(t, logger.Warn, base.Config.LogLevel)
	assert.Equal(t, logger.Silent, quiet.Config.LogLevel)
	assert.Equal(t, 200*time.Millisecond, quiet.Config.SlowThreshold)
}
