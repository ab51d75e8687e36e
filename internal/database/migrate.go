package database

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
)

// Migration is one versioned schema change for a single SQL dialect.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
	// Checksum is the hex SHA-256 of Up, recorded when the migration is applied.
	Checksum string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// migrations/<dialect>/NNNNNN_name.{up,down}.sql
//
//go:embed migrations
var migrationFS embed.FS

var migrationFile = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.(up|down)\.sql$`)

// EmbeddedMigrations returns the migrations compiled into the binary for a
// gorm dialector name ("postgres" or "sqlite").
func EmbeddedMigrations(dialect string) ([]Migration, error) {
	return LoadMigrations(migrationFS, dialect)
}

// LoadMigrations reads migrations/<dialect> from fsys. Every version needs
// both an up and a down script.
func LoadMigrations(fsys fs.FS, dialect string) ([]Migration, error) {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("no %s migrations: %w", dialect, err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		parts := migrationFile.FindStringSubmatch(entry.Name())
		if parts == nil {
			return nil, fmt.Errorf("unexpected file %s in %s", entry.Name(), dir)
		}
		version, _ := strconv.Atoi(parts[1])
		body, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: parts[2]}
			byVersion[version] = m
		} else if m.Name != parts[2] {
			return nil, fmt.Errorf("version %06d is used by both %q and %q", version, m.Name, parts[2])
		}
		if parts[3] == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("migration %s needs both up and down scripts", m)
		}
		sum := sha256.Sum256([]byte(m.Up))
		m.Checksum = hex.EncodeToString(sum[:])
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
