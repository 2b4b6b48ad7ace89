package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"snapstore/internal/config"
	"snapstore/internal/database"
	"snapstore/internal/database/migrations"
	"snapstore/internal/fs"
	"snapstore/internal/snap"
)

// SnapApp is the application layer between the CLI or HTTP server and
// SnapshotService. It constructs all dependencies from config and manages
// the DB lifecycle on Close.
type SnapApp struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	service *snap.SnapshotService
	logger  *slog.Logger
	run     *Run
	logFile *os.File
}

// NewSnapApp creates a fully wired SnapApp from the given config.
// command identifies the CLI command being run (e.g. "serve", "snapshot init").
// The caller must call Close when done.
func NewSnapApp(cfg *config.Config, command string) (*SnapApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstanceID, snap.RealClock{})
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	run := NewRun(command, time.Now())
	logger, logFile, err := newLogger(cfg.LogDir, run.ID, cfg.Level())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger.Debug("run started", "command", command, "instance", cfg.InstanceID, "database", db.Path())

	svc := snap.NewSnapshotService(db, &slogAdapter{l: logger})

	return &SnapApp{
		cfg:     cfg,
		db:      db,
		service: svc,
		logger:  logger,
		run:     run,
		logFile: logFile,
	}, nil
}

// Service returns the snapshot service, for handing to the HTTP layer.
func (a *SnapApp) Service() *snap.SnapshotService {
	return a.service
}

// Logger returns the run's structured logger.
func (a *SnapApp) Logger() *slog.Logger {
	return a.logger
}

// Config returns the config the app was built from.
func (a *SnapApp) Config() *config.Config {
	return a.cfg
}

// CreateRootSnapshot starts a new project history.
func (a *SnapApp) CreateRootSnapshot(ctx context.Context, projectName string, files []snap.FileEntry) (int64, error) {
	id, err := a.service.CreateRootSnapshot(ctx, projectName, files)
	return id, a.track(err)
}

// CreateChildSnapshot records a new version under parentID.
func (a *SnapApp) CreateChildSnapshot(ctx context.Context, parentID int64, description string, files []snap.FileEntry) (int64, error) {
	id, err := a.service.CreateChildSnapshot(ctx, parentID, description, files)
	return id, a.track(err)
}

// ListVersions returns every version, newest first.
func (a *SnapApp) ListVersions(ctx context.Context) ([]*snap.VersionSummary, error) {
	versions, err := a.service.ListVersions(ctx)
	return versions, a.track(err)
}

// ListVersionFiles returns the files recorded at versionID.
func (a *SnapApp) ListVersionFiles(ctx context.Context, versionID int64) ([]*snap.VersionFile, error) {
	files, err := a.service.ListVersionFiles(ctx, versionID)
	return files, a.track(err)
}

// ScanDirectory lists the files under dir using the configured ignore patterns.
func (a *SnapApp) ScanDirectory(dir string) ([]snap.FileEntry, error) {
	files, err := fs.NewScanner(a.cfg.Scanner.Ignore).Scan(dir)
	if err != nil {
		return nil, a.track(fmt.Errorf("scanning %s: %w", dir, err))
	}
	a.logger.Debug("directory scanned", "dir", dir, "files", len(files))
	return files, nil
}

// BackupDatabase writes a consistent copy of the database to destPath.
func (a *SnapApp) BackupDatabase(destPath string) error {
	if err := a.db.BackupTo(destPath); err != nil {
		return a.track(err)
	}
	a.logger.Info("database backed up", "dest", destPath)
	return nil
}

// SchemaStatus reports the database's schema version against the embedded migrations.
func (a *SnapApp) SchemaStatus() (migrations.Status, error) {
	st, err := a.db.SchemaStatus()
	return st, a.track(err)
}

// DatabasePath is the database file in use, or ":memory:".
func (a *SnapApp) DatabasePath() string {
	return a.db.Path()
}

func (a *SnapApp) track(err error) error {
	if err != nil {
		a.run.Fail()
	}
	return err
}

// Close logs the run outcome and closes the database and log file.
func (a *SnapApp) Close() error {
	var firstErr error

	a.logger.Info("run finished", "command", a.run.Command, "status", a.run.Status,
		"elapsed", time.Since(a.run.Started).Round(time.Millisecond))

	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}

	return firstErr
}
