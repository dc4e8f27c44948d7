package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/tordrt/tapmeta/internal/cursor"
)

// MySQLClient manages the connection to MySQL
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient opens a MySQL connection pool and checks it
func NewMySQLClient(ctx context.Context, dsn string) (*MySQLClient, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MySQLClient{db: db}, nil
}

// Close closes the database connection
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// DB returns the underlying database handle
func (c *MySQLClient) DB() *sql.DB {
	return c.db
}

// Query runs sql and returns its result as a row source.
func (c *MySQLClient) Query(ctx context.Context, query string, args ...any) (cursor.RowSource, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	return cursor.NewSQLSource(rows), nil
}

// ParseDatabaseName returns the database named in a go-sql-driver DSN
// ("user:pass@tcp(host:3306)/dbname?parseTime=true").
func ParseDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("MySQL DSN names no database")
	}
	return cfg.DBName, nil
}
