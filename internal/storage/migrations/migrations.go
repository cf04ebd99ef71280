// Package migrations applies the embedded schema to SQL backends using
// golang-migrate. Each dialect keeps its own directory of numbered
// up/down files; the dialect name selects both the directory and the
// golang-migrate database driver.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationsFS embed.FS

// Dialect names a directory of migrations inside migrationsFS.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// SQLiteURL turns a filesystem path into the URL form golang-migrate's
// sqlite3 driver expects.
func SQLiteURL(path string) string {
	return "sqlite3://" + path
}

// NewMigrator builds a migrate instance for dialect against databaseURL.
// The caller owns the returned value and must Close it.
func NewMigrator(dialect Dialect, databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, string(dialect))
	if err != nil {
		return nil, fmt.Errorf("migrations: create source for %s: %w", dialect, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("migrations: create migrator: %w", err)
	}

	return m, nil
}

// Up applies every pending migration. Running it against an up-to-date
// schema is not an error.
func Up(dialect Dialect, databaseURL string) error {
	m, err := NewMigrator(dialect, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: up: %w", err)
	}

	return nil
}
