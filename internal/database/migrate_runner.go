package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"socialblog/internal/middleware"

	"gorm.io/gorm"
)

// MigrationRecord is one applied migration.
type MigrationRecord struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

// MigrationState is a known migration and whether it has been applied.
type MigrationState struct {
	Migration
	Applied   bool
	AppliedAt time.Time
	// Drifted marks an applied migration whose up script no longer matches
	// the recorded checksum.
	Drifted bool
}

// Migrator applies SQL migrations in version order and records them in
// schema_migrations. Each migration runs in its own transaction.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator uses the embedded migrations for db's dialect.
func NewMigrator(db *gorm.DB) (*Migrator, error) {
	ms, err := EmbeddedMigrations(db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	return NewMigratorWith(db, ms), nil
}

// NewMigratorWith uses ms instead of the embedded set.
func NewMigratorWith(db *gorm.DB, ms []Migration) *Migrator {
	sorted := append([]Migration(nil), ms...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return &Migrator{db: db, migrations: sorted}
}

// Status lists every known migration in order. A database that has applied
// versions this binary does not know is an error.
func (m *Migrator) Status(ctx context.Context) ([]MigrationState, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&MigrationRecord{}); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}
	var records []MigrationRecord
	if err := m.db.WithContext(ctx).Order("version ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}

	applied := make(map[int]MigrationRecord, len(records))
	for _, r := range records {
		applied[r.Version] = r
	}

	states := make([]MigrationState, 0, len(m.migrations))
	for _, mig := range m.migrations {
		st := MigrationState{Migration: mig}
		if r, ok := applied[mig.Version]; ok {
			st.Applied = true
			st.AppliedAt = r.AppliedAt
			st.Drifted = r.Checksum != mig.Checksum
			delete(applied, mig.Version)
		}
		states = append(states, st)
	}

	if len(applied) > 0 {
		unknown := make([]string, 0, len(applied))
		for _, r := range applied {
			unknown = append(unknown, fmt.Sprintf("%06d_%s", r.Version, r.Name))
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("database has migrations this build does not know: %s", strings.Join(unknown, ", "))
	}
	return states, nil
}

// Up applies every pending migration and returns the ones it ran. Nothing
// runs while an applied migration has drifted.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	states, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range states {
		if st.Drifted {
			return nil, fmt.Errorf("migration %s changed after it was applied", st.Migration)
		}
	}

	var ran []Migration
	for _, st := range states {
		if st.Applied {
			continue
		}
		mig := st.Migration
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{Version: mig.Version, Name: mig.Name, Checksum: mig.Checksum}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("apply %s: %w", mig, err)
		}
		middleware.Logger.Info("migration applied", slog.String("migration", mig.String()))
		ran = append(ran, mig)
	}
	return ran, nil
}

// Down reverts the most recently applied migration. It returns nil when
// nothing has been applied.
func (m *Migrator) Down(ctx context.Context) (*Migration, error) {
	states, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(states) - 1; i >= 0; i-- {
		if !states[i].Applied {
			continue
		}
		mig := states[i].Migration
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Down).Error; err != nil {
				return err
			}
			return tx.Delete(&MigrationRecord{}, mig.Version).Error
		})
		if err != nil {
			return nil, fmt.Errorf("revert %s: %w", mig, err)
		}
		middleware.Logger.Info("migration reverted", slog.String("migration", mig.String()))
		return &mig, nil
	}
	return nil, nil
}
