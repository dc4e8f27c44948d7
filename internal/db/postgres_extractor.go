package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/tapmeta/internal/metadata"
)

// PostgresExtractor handles schema extraction from PostgreSQL
type PostgresExtractor struct {
	client *PostgresClient
	schema string
	cfg    extractorConfig
}

// NewPostgresExtractor creates an extractor for the named PostgreSQL schema
func NewPostgresExtractor(client *PostgresClient, schemaName string, opts ...ExtractorOption) *PostgresExtractor {
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
		cfg:    newExtractorConfig(opts),
	}
}

// ExtractSchema implements Extractor
func (e *PostgresExtractor) ExtractSchema(ctx context.Context, tables []string) (*metadata.Schema, error) {
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

	return cat.build(e.schema, tables, e.cfg.logger)
}

// eachRow runs query and calls fn after scanning each row into scans
func (e *PostgresExtractor) eachRow(ctx context.Context, query string, scans []any, fn func() error) error {
	rows, err := e.client.Conn().Query(ctx, query, e.schema)
	if err != nil {
		return err
	}
	_, err = pgx.ForEachRow(rows, scans, fn)
	return err
}

func (e *PostgresExtractor) readTables(ctx context.Context, cat *catalog) error {
	query := `
		SELECT c.relname, c.relkind IN ('v', 'm'), COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relkind IN ('r', 'p', 'v', 'm')
		ORDER BY c.relname
	`

	var t catalogTable
	return e.eachRow(ctx, query, []any{&t.name, &t.view, &t.comment}, func() error {
		cat.tables = append(cat.tables, t)
		return nil
	})
}

func (e *PostgresExtractor) readColumns(ctx context.Context, cat *catalog) error {
	// format_type renders modifiers, e.g. "character varying(32)"
	query := `
		SELECT c.relname, a.attname, format_type(a.atttypid, a.atttypmod),
			COALESCE(col_description(c.oid, a.attnum), '')
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
			AND c.relkind IN ('r', 'p', 'v', 'm')
			AND a.attnum > 0
			AND NOT a.attisdropped
		ORDER BY c.relname, a.attnum
	`

	var col catalogColumn
	return e.eachRow(ctx, query, []any{&col.table, &col.name, &col.dbType, &col.comment}, func() error {
		cat.columns = append(cat.columns, col)
		return nil
	})
}

func (e *PostgresExtractor) readIndexes(ctx context.Context, cat *catalog) error {
	query := `
		SELECT t.relname, a.attname, ix.indisprimary
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = $1
		ORDER BY t.relname, array_position(ix.indkey, a.attnum)
	`

	var (
		table, column string
		primary       bool
	)
	return e.eachRow(ctx, query, []any{&table, &column, &primary}, func() error {
		cat.addIndexed(table, column)
		if primary {
			cat.addPrimary(table, column)
		}
		return nil
	})
}

func (e *PostgresExtractor) readForeignKeys(ctx context.Context, cat *catalog) error {
	query := `
		SELECT con.conname, src.relname, dn.nspname, dst.relname, sa.attname, da.attname
		FROM pg_constraint con
		JOIN pg_class src ON src.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = src.relnamespace
		JOIN pg_class dst ON dst.oid = con.confrelid
		JOIN pg_namespace dn ON dn.oid = dst.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(src_attnum, dst_attnum, pos)
		JOIN pg_attribute sa ON sa.attrelid = src.oid AND sa.attnum = k.src_attnum
		JOIN pg_attribute da ON da.attrelid = dst.oid AND da.attnum = k.dst_attnum
		WHERE con.contype = 'f' AND n.nspname = $1
		ORDER BY src.relname, con.conname, k.pos
	`

	var name, table, refSchema, refTable, local, remote string
	return e.eachRow(ctx, query, []any{&name, &table, &refSchema, &refTable, &local, &remote}, func() error {
		if refSchema != e.schema {
			refTable = refSchema + "." + refTable
		}
		cat.addKeyColumn(table, name, refTable, local, remote)
		return nil
	})
}
