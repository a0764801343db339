// Package db opens the SQLite files the trial corpora live in.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with trialrag-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// OpenReadOnly opens an existing SQLite database without write access.
// A missing file is an error rather than a new empty database.
func OpenReadOnly(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving database path: %w", err)
	}
	sqlDB, err := sql.Open("sqlite", "file:"+filepath.ToSlash(abs)+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database %s: %w", path, err)
	}

	return &DB{DB: sqlDB, path: path}, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string {
	return d.path
}

// Tables lists the user tables in the database, sorted by name.
func (d *DB) Tables(ctx context.Context) ([]string, error) {
	rows, err := d.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// HasTable reports whether the database contains the named table.
func (d *DB) HasTable(ctx context.Context, name string) (bool, error) {
	var n int
	err := d.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking for table %s: %w", name, err)
	}
	return n > 0, nil
}
