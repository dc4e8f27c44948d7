package db

import (
	"context"
	"fmt"

	"github.com/tordrt/tapmeta/internal/cursor"
)

// Engine identifies a database engine.
type Engine string

// Supported engines.
const (
	EnginePostgres Engine = "postgres"
	EngineMySQL    Engine = "mysql"
	EngineSQLite   Engine = "sqlite"
)

// Source is an open database that can describe its catalog and run queries.
type Source interface {
	Extractor
	Query(ctx context.Context, query string, args ...any) (cursor.RowSource, error)
	Close(ctx context.Context) error
}

// SourceConfig says which database to open.
type SourceConfig struct {
	Engine Engine
	// DSN is the driver connection string; a file path for SQLite.
	DSN string
	// Schema to extract. PostgreSQL defaults to "public", MySQL to the
	// database named in the DSN. Ignored for SQLite.
	Schema string
	// SQLiteDriver is DriverSQLite3 (default) or DriverSQLite.
	SQLiteDriver string
}

// Open connects to the configured database.
func Open(ctx context.Context, cfg SourceConfig, opts ...ExtractorOption) (Source, error) {
	switch cfg.Engine {
	case EnginePostgres:
		client, err := NewPostgresClient(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		schema := cfg.Schema
		if schema == "" {
			schema = "public"
		}
		return &postgresSource{client, NewPostgresExtractor(client, schema, opts...)}, nil

	case EngineMySQL:
		schema := cfg.Schema
		if schema == "" {
			var err error
			if schema, err = ParseDatabaseName(cfg.DSN); err != nil {
				return nil, fmt.Errorf("failed to determine database name: %w (please specify a schema)", err)
			}
		}
		client, err := NewMySQLClient(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		return &mysqlSource{client, NewMySQLExtractor(client, schema, opts...)}, nil

	case EngineSQLite:
		client, err := NewSQLiteClient(ctx, cfg.DSN, cfg.SQLiteDriver)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}
		return &sqliteSource{client, NewSQLiteExtractor(client, opts...)}, nil

	default:
		return nil, fmt.Errorf("unsupported database type %q (must be postgres, mysql or sqlite)", cfg.Engine)
	}
}

type postgresSource struct {
	*PostgresClient
	*PostgresExtractor
}

type mysqlSource struct {
	*MySQLClient
	*MySQLExtractor
}

func (s *mysqlSource) Close(context.Context) error { return s.MySQLClient.Close() }

type sqliteSource struct {
	*SQLiteClient
	*SQLiteExtractor
}

func (s *sqliteSource) Close(context.Context) error { return s.SQLiteClient.Close() }
