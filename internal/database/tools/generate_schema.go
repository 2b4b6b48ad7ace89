//go:build ignore

// generate_schema applies the embedded migrations to an in-memory database
// and dumps the resulting DDL to internal/database/schema.sql.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"snapstore/internal/database"
	"snapstore/internal/database/migrations"
)

func main() {
	out := flag.String("out", "internal/database/schema.sql", "file to write")
	flag.Parse()
	log.SetFlags(0)

	db, err := database.OpenConnection(":memory:")
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		log.Fatalf("migrating: %v", err)
	}
	version, err := migrations.LatestVersion()
	if err != nil {
		log.Fatalf("reading migrations: %v", err)
	}

	stmts, err := dumpDDL(db)
	if err != nil {
		log.Fatalf("dumping schema: %v", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- Generated from internal/database/migrations/files (version %d).\n", version)
	b.WriteString("-- Do not edit. Run 'go generate ./internal/database' after adding a migration.\n\n")
	for _, stmt := range stmts {
		b.WriteString(stmt)
		b.WriteString(";\n\n")
	}

	if err := os.WriteFile(*out, []byte(b.String()), 0644); err != nil {
		log.Fatalf("writing %s: %v", *out, err)
	}
	fmt.Printf("wrote %s (%d statements)\n", *out, len(stmts))
}

// dumpDDL returns table then index definitions, leaving out SQLite's own
// objects and golang-migrate's bookkeeping table.
func dumpDDL(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT sql FROM sqlite_master
		WHERE sql IS NOT NULL
		  AND type IN ('table', 'index')
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY type = 'index', name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stmts []string
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, rows.Err()
}
