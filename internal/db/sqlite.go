package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/tordrt/tapmeta/internal/cursor"
)

// SQLite driver names accepted by NewSQLiteClient.
const (
	// DriverSQLite3 is github.com/mattn/go-sqlite3 (cgo).
	DriverSQLite3 = "sqlite3"
	// DriverSQLite is modernc.org/sqlite (pure Go).
	DriverSQLite = "sqlite"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient opens the database file at path with the given driver.
// An empty driver selects DriverSQLite3.
func NewSQLiteClient(ctx context.Context, path, driver string) (*SQLiteClient, error) {
	switch driver {
	case "":
		driver = DriverSQLite3
	case DriverSQLite3, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported SQLite driver %q (want %s or %s)", driver, DriverSQLite3, DriverSQLite)
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: an open row source blocks every other query
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// DB returns the underlying database handle
func (c *SQLiteClient) DB() *sql.DB {
	return c.db
}

// Query runs sql and returns its result as a row source. The caller must
// close the source before issuing another query.
func (c *SQLiteClient) Query(ctx context.Context, query string, args ...any) (cursor.RowSource, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	return cursor.NewSQLSource(rows), nil
}
