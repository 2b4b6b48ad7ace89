package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{"ProjectVersions", "VersionFiles", "OperationLog", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestLatestVersion(t *testing.T) {
	latest, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if latest != 1 {
		t.Errorf("LatestVersion() = %d, want 1", latest)
	}
}

func TestReadStatus(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	st, err := ReadStatus(db)
	if err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if st.Current != 0 || st.Latest != 1 {
		t.Errorf("fresh status = %+v, want Current 0, Latest 1", st)
	}
	if !errors.Is(st.Err(), ErrNoSchema) {
		t.Errorf("fresh Err() = %v, want ErrNoSchema", st.Err())
	}
	if err := CheckDBMigrationStatus(db); !errors.Is(err, ErrNoSchema) {
		t.Errorf("CheckDBMigrationStatus() = %v, want ErrNoSchema", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	st, err = ReadStatus(db)
	if err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if st.Current != 1 || st.Dirty {
		t.Errorf("migrated status = %+v, want Current 1, clean", st)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestStatus_Err(t *testing.T) {
	tests := []struct {
		name string
		st   Status
		want error
	}{
		{"current", Status{Current: 3, Latest: 3}, nil},
		{"never migrated", Status{Latest: 3}, ErrNoSchema},
		{"dirty", Status{Current: 3, Latest: 3, Dirty: true}, ErrDirty},
		{"behind", Status{Current: 1, Latest: 3}, ErrSchemaBehind},
		{"ahead", Status{Current: 4, Latest: 3}, ErrSchemaAhead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.st.Err()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Err() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Err() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}

	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if err := MigrateDown(db); err != nil {
		t.Fatalf("MigrateDown() failed: %v", err)
	}

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('ProjectVersions', 'VersionFiles', 'OperationLog')").Scan(&count)
	if err != nil {
		t.Fatalf("counting tables: %v", err)
	}
	if count != 0 {
		t.Errorf("%d snapshot tables remain after MigrateDown(), want 0", count)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	t.Run("version with unknown parent is rejected", func(t *testing.T) {
		_, err := db.Exec(`
			INSERT INTO ProjectVersions (parent_version_id, timestamp, description)
			VALUES (999, '2024-01-15T10:30:00Z', 'orphan')
		`)
		if err == nil {
			t.Error("Expected foreign key constraint violation, but insert succeeded")
		}
	})

	t.Run("file row for unknown version is rejected", func(t *testing.T) {
		_, err := db.Exec(`
			INSERT INTO VersionFiles (project_version_id, file_path, content_hash, file_size)
			VALUES (999, 'a.txt', 'h1', 10)
		`)
		if err == nil {
			t.Error("Expected foreign key constraint violation, but insert succeeded")
		}
	})
}

func TestSchema_VersionFilePathUnique(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if _, err := db.Exec("INSERT INTO ProjectVersions (timestamp, description) VALUES ('2024-01-15T10:30:00Z', 'root')"); err != nil {
		t.Fatalf("Failed to insert version: %v", err)
	}

	_, err := db.Exec("INSERT INTO VersionFiles (project_version_id, file_path, content_hash, file_size) VALUES (1, 'a.txt', 'h1', 10)")
	if err != nil {
		t.Fatalf("Failed to insert first file: %v", err)
	}

	_, err = db.Exec("INSERT INTO VersionFiles (project_version_id, file_path, content_hash, file_size) VALUES (1, 'a.txt', 'h2', 12)")
	if err == nil {
		t.Error("Expected unique constraint violation for duplicate path, but insert succeeded")
	}
}

func TestSchema_CascadeDelete(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	stmts := []string{
		"INSERT INTO ProjectVersions (version_id, timestamp) VALUES (1, '2024-01-15T10:30:00Z')",
		"INSERT INTO ProjectVersions (version_id, parent_version_id, timestamp) VALUES (2, 1, '2024-01-15T10:31:00Z')",
		"INSERT INTO VersionFiles (project_version_id, file_path, content_hash, file_size) VALUES (2, 'a.txt', 'h1', 1)",
		"INSERT INTO OperationLog (linked_project_version_id, timestamp, operation_type) VALUES (2, '2024-01-15T10:31:00Z', 'PROJECT_SNAPSHOT_SUBSEQUENT')",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Exec(%q) error: %v", stmt, err)
		}
	}

	if _, err := db.Exec("DELETE FROM ProjectVersions WHERE version_id = 1"); err != nil {
		t.Fatalf("deleting root: %v", err)
	}

	for _, table := range []string{"ProjectVersions", "VersionFiles", "OperationLog"} {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatalf("counting %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s has %d rows after cascade, want 0", table, count)
		}
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	return db
}
