// Package migrations holds the embedded snapshot schema migrations and
// applies them with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

const migrationDir = "files"

var (
	ErrNoSchema     = errors.New("database has no schema version")
	ErrDirty        = errors.New("database schema is dirty")
	ErrSchemaBehind = errors.New("database schema is behind")
	ErrSchemaAhead  = errors.New("database schema is newer than this binary")
)

// Status describes where a database sits relative to the embedded migrations.
type Status struct {
	Current uint // 0 when no migration has been applied
	Latest  uint
	Dirty   bool
}

// Err returns nil when the database is usable as is, or the reason it is not.
func (s Status) Err() error {
	switch {
	case s.Current == 0:
		return fmt.Errorf("%w (needs migration to version %d)", ErrNoSchema, s.Latest)
	case s.Dirty:
		return fmt.Errorf("%w at version %d (a migration failed part way)", ErrDirty, s.Current)
	case s.Current < s.Latest:
		return fmt.Errorf("%w: at version %d, latest is %d", ErrSchemaBehind, s.Current, s.Latest)
	case s.Current > s.Latest:
		return fmt.Errorf("%w: at version %d, binary knows %d", ErrSchemaAhead, s.Current, s.Latest)
	}
	return nil
}

// ReadStatus reports the schema version recorded in db.
func ReadStatus(db *sql.DB) (Status, error) {
	latest, err := LatestVersion()
	if err != nil {
		return Status{}, err
	}
	st := Status{Latest: latest}

	m, err := newMigrate(db)
	if err != nil {
		return st, err
	}
	// m is not closed: closing it would close db, which belongs to the caller.

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("reading schema version: %w", err)
	}
	st.Current = version
	st.Dirty = dirty
	return st, nil
}

// CheckDBMigrationStatus returns nil when db is at the newest embedded migration.
func CheckDBMigrationStatus(db *sql.DB) error {
	st, err := ReadStatus(db)
	if err != nil {
		return err
	}
	return st.Err()
}

// LatestVersion is the highest migration version embedded in the binary.
func LatestVersion() (uint, error) {
	entries, err := fs.ReadDir(migrationFiles, migrationDir)
	if err != nil {
		return 0, fmt.Errorf("listing migrations: %w", err)
	}

	var latest uint
	for _, e := range entries {
		mig, err := source.Parse(e.Name())
		if err != nil {
			return 0, fmt.Errorf("parsing migration name %q: %w", e.Name(), err)
		}
		latest = max(latest, mig.Version)
	}
	if latest == 0 {
		return 0, errors.New("no migrations embedded")
	}
	return latest, nil
}

// MigrateUp applies every pending migration. An already current database is not an error.
func MigrateUp(db *sql.DB) error {
	return run(db, (*migrate.Migrate).Up)
}

// MigrateDown reverts every applied migration, dropping the snapshot tables.
func MigrateDown(db *sql.DB) error {
	return run(db, (*migrate.Migrate).Down)
}

func run(db *sql.DB, step func(*migrate.Migrate) error) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, migrationDir)
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating sqlite3 migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}
