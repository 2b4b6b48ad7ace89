package database

import (
	"fmt"
	"os"
	"path/filepath"

	"snapstore/internal/config"
	"snapstore/internal/snap"
)

// NewDatabaseFromConfig creates a SQLiteDatabase based on the database config type.
// The sqlite type stores one file per instance: <data_dir>/<instanceID>.db.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, instanceID string, clock snap.Clock) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if instanceID == "" {
			return nil, fmt.Errorf("instance_id required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("%w: creating data directory: %w", snap.ErrStorageUnavailable, err)
		}
		dbPath := filepath.Join(cfg.DataDir, instanceID+".db")
		return NewSQLiteDatabase(dbPath, clock)
	case "memory":
		return NewSQLiteDatabase(":memory:", clock)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
