package db

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/tordrt/tapmeta/internal/metadata"
)

// Extractor reads the catalog of a database into a metadata graph
type Extractor interface {
	// ExtractSchema extracts the named tables, or every table and view of
	// the schema when tables is empty.
	ExtractSchema(ctx context.Context, tables []string) (*metadata.Schema, error)
}

// ExtractorOption configures an extractor
type ExtractorOption func(*extractorConfig)

type extractorConfig struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for skipped catalog entries
func WithLogger(logger *zap.Logger) ExtractorOption {
	return func(c *extractorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newExtractorConfig(opts []ExtractorOption) extractorConfig {
	cfg := extractorConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

type catalogTable struct {
	name    string
	view    bool
	comment string
}

type catalogColumn struct {
	table   string
	name    string
	dbType  string
	length  int
	comment string
}

type catalogKey struct {
	name     string
	table    string
	refTable string
	pairs    []metadata.ColumnPair
}

// catalog accumulates the rows of every catalog query. Queries run one
// after the other; the graph is only built once all of them are done.
type catalog struct {
	tables  []catalogTable
	columns []catalogColumn
	primary map[string][]string
	indexed map[string][]string
	keys    []*catalogKey
}

func newCatalog() *catalog {
	return &catalog{
		primary: make(map[string][]string),
		indexed: make(map[string][]string),
	}
}

func (c *catalog) addPrimary(table, column string) {
	c.primary[table] = append(c.primary[table], column)
}

func (c *catalog) addIndexed(table, column string) {
	c.indexed[table] = append(c.indexed[table], column)
}

// addKeyColumn appends a column pair to a foreign key, starting a new key
// whenever the table or constraint name changes. Rows must be ordered by
// table, constraint and position.
func (c *catalog) addKeyColumn(table, name, refTable, local, remote string) {
	if n := len(c.keys); n > 0 {
		last := c.keys[n-1]
		if last.table == table && last.name == name {
			last.pairs = append(last.pairs, metadata.ColumnPair{Local: local, Remote: remote})
			return
		}
	}
	c.keys = append(c.keys, &catalogKey{
		name:     name,
		table:    table,
		refTable: refTable,
		pairs:    []metadata.ColumnPair{{Local: local, Remote: remote}},
	})
}

// selectTables returns the catalog tables to extract, in requested order
func (c *catalog) selectTables(requested []string) ([]catalogTable, error) {
	if len(requested) == 0 {
		return c.tables, nil
	}

	byName := make(map[string]catalogTable, len(c.tables))
	for _, t := range c.tables {
		byName[t.name] = t
	}

	selected := make([]catalogTable, 0, len(requested))
	for _, name := range requested {
		t, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("table %s not found", name)
		}
		selected = append(selected, t)
	}
	return selected, nil
}

// build turns the catalog into a schema named schemaName
func (c *catalog) build(schemaName string, requested []string, logger *zap.Logger) (*metadata.Schema, error) {
	s, err := metadata.NewSchema(schemaName)
	if err != nil {
		return nil, err
	}

	selected, err := c.selectTables(requested)
	if err != nil {
		return nil, err
	}

	tables := make(map[string]*metadata.Table, len(selected))
	for _, ct := range selected {
		opts := []metadata.TableOption{
			metadata.WithTableDescription(ct.comment),
			metadata.WithTableDBName(ct.name),
		}
		if ct.view {
			opts = append(opts, metadata.WithTableType(metadata.TableTypeView))
		}
		t, err := s.AddNewTable(ct.name, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to add table %s: %w", ct.name, err)
		}
		tables[ct.name] = t
	}

	for _, cc := range c.columns {
		t, ok := tables[cc.table]
		if !ok {
			continue
		}
		if _, err := t.AddNewColumn(cc.name,
			metadata.WithDataType(metadata.ResolveDBType(cc.dbType, cc.length)),
			metadata.WithDescription(cc.comment),
		); err != nil {
			return nil, fmt.Errorf("failed to add column %s.%s: %w", cc.table, cc.name, err)
		}
	}

	for name, t := range tables {
		for _, col := range c.primary[name] {
			if column, ok := t.Column(col); ok {
				column.Principal = true
			}
		}
		for _, col := range c.indexed[name] {
			if column, ok := t.Column(col); ok {
				column.Indexed = true
			}
		}
	}

	// keys last: both ends must exist
	for _, ck := range c.keys {
		t, ok := tables[ck.table]
		if !ok {
			continue
		}
		target, ok := tables[ck.refTable]
		if !ok {
			logger.Warn("skipping foreign key to a table outside the extracted set",
				zap.String("key", ck.name),
				zap.String("table", ck.table),
				zap.String("target", ck.refTable))
			continue
		}
		if _, err := t.NewForeignKey(ck.name, target, ck.pairs...); err != nil {
			logger.Warn("skipping invalid foreign key",
				zap.String("key", ck.name),
				zap.String("table", ck.table),
				zap.Error(err))
		}
	}

	logger.Debug("schema extracted",
		zap.String("schema", schemaName),
		zap.Int("tables", s.TableCount()),
		zap.Int("foreign_keys", len(c.keys)))
	return s, nil
}

// eachRow runs query and calls scan once per row. The rows are closed
// before it returns, so the next query can reuse the connection.
func eachRow(ctx context.Context, db *sql.DB, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
