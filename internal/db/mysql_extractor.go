package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tordrt/tapmeta/internal/metadata"
)

// MySQLExtractor handles schema extraction from MySQL
type MySQLExtractor struct {
	client   *MySQLClient
	database string
	cfg      extractorConfig
}

// NewMySQLExtractor creates an extractor for the named MySQL database
func NewMySQLExtractor(client *MySQLClient, database string, opts ...ExtractorOption) *MySQLExtractor {
	return &MySQLExtractor{
		client:   client,
		database: database,
		cfg:      newExtractorConfig(opts),
	}
}

// ExtractSchema implements Extractor. The database becomes the schema.
func (e *MySQLExtractor) ExtractSchema(ctx context.Context, tables []string) (*metadata.Schema, error) {
	cat := newCatalog()

	steps := []struct {
		name string
		read func(context.Context, *catalog) error
	}{
		{"tables", e.readTables},
		{"columns", e.readColumns},
		{"indexes", e.readIndexes},
		{"foreign keys", e.readForeignKeys},
	}
	for _, step := range steps {
		if err := step.read(ctx, cat); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", step.name, err)
		}
	}

	return cat.build(e.database, tables, e.cfg.logger)
}

func (e *MySQLExtractor) readTables(ctx context.Context, cat *catalog) error {
	query := `
		SELECT table_name, table_type, COALESCE(table_comment, '')
		FROM information_schema.tables
		WHERE table_schema = ?
		ORDER BY table_name
	`

	return eachRow(ctx, e.client.DB(), query, []any{e.database}, func(rows *sql.Rows) error {
		var t catalogTable
		var tableType string
		if err := rows.Scan(&t.name, &tableType, &t.comment); err != nil {
			return err
		}
		t.view = tableType == "VIEW"
		if t.view && t.comment == "VIEW" {
			// MySQL fills the comment of every view with its type
			t.comment = ""
		}
		cat.tables = append(cat.tables, t)
		return nil
	})
}

func (e *MySQLExtractor) readColumns(ctx context.Context, cat *catalog) error {
	// column_type carries the modifiers: "varchar(32)", "int unsigned"
	query := `
		SELECT table_name, column_name, column_type, COALESCE(column_comment, '')
		FROM information_schema.columns
		WHERE table_schema = ?
		ORDER BY table_name, ordinal_position
	`

	return eachRow(ctx, e.client.DB(), query, []any{e.database}, func(rows *sql.Rows) error {
		var col catalogColumn
		if err := rows.Scan(&col.table, &col.name, &col.dbType, &col.comment); err != nil {
			return err
		}
		cat.columns = append(cat.columns, col)
		return nil
	})
}

func (e *MySQLExtractor) readIndexes(ctx context.Context, cat *catalog) error {
	query := `
		SELECT table_name, column_name, index_name = 'PRIMARY'
		FROM information_schema.statistics
		WHERE table_schema = ?
		ORDER BY table_name, index_name, seq_in_index
	`

	return eachRow(ctx, e.client.DB(), query, []any{e.database}, func(rows *sql.Rows) error {
		var table, column string
		var primary bool
		if err := rows.Scan(&table, &column, &primary); err != nil {
			return err
		}
		cat.addIndexed(table, column)
		if primary {
			cat.addPrimary(table, column)
		}
		return nil
	})
}

func (e *MySQLExtractor) readForeignKeys(ctx context.Context, cat *catalog) error {
	query := `
		SELECT constraint_name, table_name, referenced_table_schema, referenced_table_name,
			column_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND referenced_table_name IS NOT NULL
		ORDER BY table_name, constraint_name, ordinal_position
	`

	return eachRow(ctx, e.client.DB(), query, []any{e.database}, func(rows *sql.Rows) error {
		var name, table, refSchema, refTable, local, remote string
		if err := rows.Scan(&name, &table, &refSchema, &refTable, &local, &remote); err != nil {
			return err
		}
		if refSchema != e.database {
			refTable = refSchema + "." + refTable
		}
		cat.addKeyColumn(table, name, refTable, local, remote)
		return nil
	})
}
