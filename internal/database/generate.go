package database

// schema.sql mirrors the migrations so tests can build a database with one Exec.

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
