package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"snapstore/internal/snap"
)

// classify maps a SQLite error onto the snap error categories.
// Constraint failures become snap.ErrIntegrity; every other engine error
// (busy, locked, I/O, closed handle, ...) becomes snap.ErrStorageUnavailable.
// Errors already carrying a category are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, snap.ErrIntegrity) || errors.Is(err, snap.ErrStorageUnavailable) {
		return err
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s", snap.ErrIntegrity, constraintKind(sqliteErr))
	}
	return fmt.Errorf("%w: %w", snap.ErrStorageUnavailable, err)
}

func constraintKind(err sqlite3.Error) string {
	switch err.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return "duplicate entry: " + err.Error()
	case sqlite3.ErrConstraintForeignKey:
		return "missing referenced row: " + err.Error()
	default:
		return err.Error()
	}
}
