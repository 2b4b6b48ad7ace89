package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"snapstore/internal/database/migrations"
	"snapstore/internal/snap"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements snap.Store on a single SQLite connection.
//
// All statements run under mu, so at most one read or write touches the
// database at a time and version IDs are assigned in commit order.
type SQLiteDatabase struct {
	mu    sync.Mutex
	db    *sql.DB
	clock snap.Clock
	path  string
}

// NewSQLiteDatabase opens a SQLite database and applies any pending migrations.
// path can be a file path or ":memory:" for an in-memory database.
// A nil clock means the real clock.
func NewSQLiteDatabase(path string, clock snap.Clock) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrating schema: %w", snap.ErrStorageUnavailable, err)
	}

	return newSQLiteDatabase(db, clock, path), nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured
// and the schema is in place.
func NewSQLiteDatabaseFromDB(db *sql.DB, clock snap.Clock) *SQLiteDatabase {
	return newSQLiteDatabase(db, clock, "")
}

func newSQLiteDatabase(db *sql.DB, clock snap.Clock, path string) *SQLiteDatabase {
	if clock == nil {
		clock = snap.RealClock{}
	}
	return &SQLiteDatabase{
		db:    db,
		clock: clock,
		path:  path,
	}
}

// OpenConnection opens and configures a SQLite connection.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	// Foreign keys are off by default in SQLite; the DSN flag applies it to
	// every connection the driver opens.
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", snap.ErrStorageUnavailable, err)
	}

	// One shared handle. For ":memory:" a second connection would also be a
	// second, empty database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to connect to database: %w", snap.ErrStorageUnavailable, err)
	}

	return db, nil
}

// Snapshot operations

type initialSnapshotDetails struct {
	ProjectName string `json:"project_name"`
	FilesCount  int    `json:"files_count"`
}

type subsequentSnapshotDetails struct {
	ParentVersion int64  `json:"parent_version"`
	FilesCount    int    `json:"files_count"`
	Description   string `json:"description"`
}

// snapshotWrite is everything one snapshot transaction inserts.
type snapshotWrite struct {
	parentID    sql.NullInt64
	description string
	files       []snap.FileEntry
	opType      snap.OperationType
	target      string
	details     any
}

func (s *SQLiteDatabase) CreateRootSnapshot(ctx context.Context, projectName string, files []snap.FileEntry) (int64, error) {
	return s.createSnapshot(ctx, snapshotWrite{
		description: snap.RootDescription(projectName),
		files:       files,
		opType:      snap.OpSnapshotInitial,
		target:      projectName,
		details: initialSnapshotDetails{
			ProjectName: projectName,
			FilesCount:  len(files),
		},
	})
}

func (s *SQLiteDatabase) CreateChildSnapshot(ctx context.Context, parentID int64, description string, files []snap.FileEntry) (int64, error) {
	return s.createSnapshot(ctx, snapshotWrite{
		parentID:    sql.NullInt64{Int64: parentID, Valid: true},
		description: description,
		files:       files,
		opType:      snap.OpSnapshotSubsequent,
		target:      "project",
		details: subsequentSnapshotDetails{
			ParentVersion: parentID,
			FilesCount:    len(files),
			Description:   description,
		},
	})
}

// createSnapshot inserts the version row, its file rows and the log row in one
// transaction:
//  1. Verify the parent exists (child snapshots only).
//  2. Insert the ProjectVersions row and take its ID.
//  3. Insert one VersionFiles row per entry.
//  4. Insert the OperationLog row referencing the new version.
//
// The transaction ignores cancellation of ctx: once started it either commits
// or rolls back, never stopping halfway because the caller went away.
func (s *SQLiteDatabase) createSnapshot(ctx context.Context, w snapshotWrite) (int64, error) {
	details, err := json.Marshal(w.details)
	if err != nil {
		return 0, fmt.Errorf("encoding operation details: %w", err)
	}

	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return 0, fmt.Errorf("%w: database is closed", snap.ErrStorageUnavailable)
	}

	timestamp := formatTimestamp(s.clock.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", classify(err))
	}
	defer tx.Rollback()

	// 1. Parent must exist. The foreign key would catch this too, but checking
	// first gives callers a precise error.
	if w.parentID.Valid {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM ProjectVersions WHERE version_id = ?", w.parentID.Int64).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %d", snap.ErrParentNotFound, w.parentID.Int64)
		}
		if err != nil {
			return 0, fmt.Errorf("checking parent version: %w", classify(err))
		}
	}

	// 2. Version row.
	res, err := tx.ExecContext(ctx,
		"INSERT INTO ProjectVersions (parent_version_id, timestamp, description) VALUES (?, ?, ?)",
		w.parentID, timestamp, w.description)
	if err != nil {
		return 0, fmt.Errorf("inserting version: %w", classify(err))
	}
	versionID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading version id: %w", classify(err))
	}

	// 3. File rows.
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO VersionFiles (project_version_id, file_path, content_hash, file_size) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing file insert: %w", classify(err))
	}
	defer stmt.Close()

	for _, f := range w.files {
		if _, err := stmt.ExecContext(ctx, versionID, f.Path, f.Hash, f.Size); err != nil {
			return 0, fmt.Errorf("inserting file %q: %w", f.Path, classify(err))
		}
	}

	// 4. Log row.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO OperationLog (linked_project_version_id, timestamp, operation_type, target_entity, details_json)
		 VALUES (?, ?, ?, ?, ?)`,
		versionID, timestamp, string(w.opType), w.target, string(details))
	if err != nil {
		return 0, fmt.Errorf("inserting operation log: %w", classify(err))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", classify(err))
	}

	return versionID, nil
}

// Version reads

const selectVersion = "SELECT version_id, parent_version_id, timestamp, description FROM ProjectVersions"

func (s *SQLiteDatabase) ListVersions(ctx context.Context) ([]*snap.VersionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, fmt.Errorf("%w: database is closed", snap.ErrStorageUnavailable)
	}

	rows, err := s.db.QueryContext(ctx, selectVersion+" ORDER BY version_id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", classify(err))
	}
	defer rows.Close()

	versions := make([]*snap.VersionSummary, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing versions: %w", classify(err))
	}

	return versions, nil
}

func (s *SQLiteDatabase) GetVersion(ctx context.Context, versionID int64) (*snap.VersionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, fmt.Errorf("%w: database is closed", snap.ErrStorageUnavailable)
	}

	row := s.db.QueryRowContext(ctx, selectVersion+" WHERE version_id = ?", versionID)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *SQLiteDatabase) ListVersionFiles(ctx context.Context, versionID int64) ([]*snap.VersionFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, fmt.Errorf("%w: database is closed", snap.ErrStorageUnavailable)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT version_file_id, project_version_id, file_path, content_hash, file_size
		 FROM VersionFiles WHERE project_version_id = ? ORDER BY file_path`, versionID)
	if err != nil {
		return nil, fmt.Errorf("listing version files: %w", classify(err))
	}
	defer rows.Close()

	files := make([]*snap.VersionFile, 0)
	for rows.Next() {
		var f snap.VersionFile
		if err := rows.Scan(&f.ID, &f.VersionID, &f.Path, &f.Hash, &f.Size); err != nil {
			return nil, fmt.Errorf("scanning version file: %w", classify(err))
		}
		files = append(files, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing version files: %w", classify(err))
	}

	return files, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*snap.VersionSummary, error) {
	var (
		v           snap.VersionSummary
		parentID    sql.NullInt64
		timestamp   string
		description sql.NullString
	)
	if err := row.Scan(&v.VersionID, &parentID, &timestamp, &description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning version: %w", classify(err))
	}

	if parentID.Valid {
		id := parentID.Int64
		v.ParentVersionID = &id
	}

	ts, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp of version %d: %w", v.VersionID, err)
	}
	v.Timestamp = ts

	v.Description = snap.DefaultDescription
	if description.Valid {
		v.Description = description.String
	}

	return &v, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return fmt.Errorf("%w: database is closed", snap.ErrStorageUnavailable)
	}
	return migrations.CheckDBMigrationStatus(s.db)
}

// SchemaStatus reports the applied and embedded schema versions.
func (s *SQLiteDatabase) SchemaStatus() (migrations.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return migrations.Status{}, fmt.Errorf("%w: database is closed", snap.ErrStorageUnavailable)
	}
	return migrations.ReadStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
// It runs under the lock, so the copy reflects a committed prefix of writes.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return fmt.Errorf("%w: database is closed", snap.ErrStorageUnavailable)
	}
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", classify(err))
	}
	return nil
}

// Close closes the database connection. Later calls fail with snap.ErrStorageUnavailable.
func (s *SQLiteDatabase) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Compile-time check that SQLiteDatabase implements the snap.Store interface
var _ snap.Store = (*SQLiteDatabase)(nil)
