package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tordrt/tapmeta/internal/metadata"
)

// SQLiteSchemaName is the schema every SQLite table is extracted into.
const SQLiteSchemaName = "main"

// userObjects restricts sqlite_master to user tables and views.
const userObjects = `m.type IN ('table', 'view') AND m.name NOT LIKE 'sqlite_%'`

// SQLiteExtractor handles schema extraction from SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
	cfg    extractorConfig
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient, opts ...ExtractorOption) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
		cfg:    newExtractorConfig(opts),
	}
}

// ExtractSchema implements Extractor. SQLite has no comments, so tables and
// columns carry no description.
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*metadata.Schema, error) {
	cat := newCatalog()

	steps := []struct {
		name string
		read func(context.Context, *catalog) error
	}{
		{"tables", e.readTables},
		{"columns", e.readColumns},
		{"primary keys", e.readPrimaryKeys},
		{"indexes", e.readIndexes},
		{"foreign keys", e.readForeignKeys},
	}
	for _, step := range steps {
		if err := step.read(ctx, cat); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", step.name, err)
		}
	}

	return cat.build(SQLiteSchemaName, tables, e.cfg.logger)
}

func (e *SQLiteExtractor) readTables(ctx context.Context, cat *catalog) error {
	query := `SELECT m.name, m.type FROM sqlite_master m WHERE ` + userObjects + ` ORDER BY m.name`

	return eachRow(ctx, e.client.DB(), query, nil, func(rows *sql.Rows) error {
		var t catalogTable
		var kind string
		if err := rows.Scan(&t.name, &kind); err != nil {
			return err
		}
		t.view = kind == "view"
		cat.tables = append(cat.tables, t)
		return nil
	})
}

// readColumns also marks primary key columns as indexed. An INTEGER PRIMARY
// KEY aliases the rowid and has no index entry.
func (e *SQLiteExtractor) readColumns(ctx context.Context, cat *catalog) error {
	query := `
		SELECT m.name, p.name, p.type, p.pk
		FROM sqlite_master m, pragma_table_info(m.name) p
		WHERE ` + userObjects + `
		ORDER BY m.name, p.cid
	`

	return eachRow(ctx, e.client.DB(), query, nil, func(rows *sql.Rows) error {
		var col catalogColumn
		var pk int
		if err := rows.Scan(&col.table, &col.name, &col.dbType, &pk); err != nil {
			return err
		}
		cat.columns = append(cat.columns, col)
		if pk > 0 {
			cat.addIndexed(col.table, col.name)
		}
		return nil
	})
}

// readPrimaryKeys records key columns in key order, which differs from
// column order for a composite key such as PRIMARY KEY (b, a).
func (e *SQLiteExtractor) readPrimaryKeys(ctx context.Context, cat *catalog) error {
	query := `
		SELECT m.name, p.name
		FROM sqlite_master m, pragma_table_info(m.name) p
		WHERE ` + userObjects + ` AND p.pk > 0
		ORDER BY m.name, p.pk
	`

	return eachRow(ctx, e.client.DB(), query, nil, func(rows *sql.Rows) error {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return err
		}
		cat.addPrimary(table, column)
		return nil
	})
}

func (e *SQLiteExtractor) readIndexes(ctx context.Context, cat *catalog) error {
	query := `
		SELECT m.name, ii.name
		FROM sqlite_master m, pragma_index_list(m.name) il, pragma_index_info(il.name) ii
		WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' AND ii.name IS NOT NULL
		ORDER BY m.name, il.name, ii.seqno
	`

	return eachRow(ctx, e.client.DB(), query, nil, func(rows *sql.Rows) error {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return err
		}
		cat.addIndexed(table, column)
		return nil
	})
}

// readForeignKeys names keys after their table and pragma id. A reference
// without columns targets the primary key of the referenced table, so it
// must run after readPrimaryKeys.
func (e *SQLiteExtractor) readForeignKeys(ctx context.Context, cat *catalog) error {
	query := `
		SELECT m.name, f.id, f.seq, f."table", f."from", f."to"
		FROM sqlite_master m, pragma_foreign_key_list(m.name) f
		WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
		ORDER BY m.name, f.id, f.seq
	`

	return eachRow(ctx, e.client.DB(), query, nil, func(rows *sql.Rows) error {
		var table, refTable, local string
		var id, seq int
		var remote sql.NullString
		if err := rows.Scan(&table, &id, &seq, &refTable, &local, &remote); err != nil {
			return err
		}
		to := remote.String
		if !remote.Valid || to == "" {
			if pk := cat.primary[refTable]; seq < len(pk) {
				to = pk[seq]
			}
		}
		cat.addKeyColumn(table, fmt.Sprintf("fk_%s_%d", table, id), refTable, local, to)
		return nil
	})
}
