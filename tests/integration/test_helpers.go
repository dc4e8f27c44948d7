//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/tordrt/tapmeta/internal/cursor"
	"github.com/tordrt/tapmeta/internal/metadata"
)

// starRows is the content of the star table created by every fixture.
var starRows = [][]any{
	{1, "Vega", 279.2347},
	{2, "Deneb", 310.3580},
	{3, "Altair", 297.6958},
}

// verifyTablesExist checks that exactly the expected tables are present
func verifyTablesExist(t *testing.T, s *metadata.Schema, expectedTables []string) {
	t.Helper()

	if s.TableCount() != len(expectedTables) {
		t.Errorf("Expected %d tables, got %d", len(expectedTables), s.TableCount())
	}
	for _, tableName := range expectedTables {
		if !s.HasTable(tableName) {
			t.Errorf("Expected table %s not found in schema", tableName)
		}
	}
}

// findTable fails the test when the table is missing
func findTable(t *testing.T, s *metadata.Schema, tableName string) *metadata.Table {
	t.Helper()

	table, ok := s.Table(tableName)
	if !ok {
		t.Fatalf("Table %s not found", tableName)
	}
	return table
}

// verifyColumns checks column names and order
func verifyColumns(t *testing.T, table *metadata.Table, expectedColumns []string) {
	t.Helper()

	cols := table.Columns()
	if len(cols) != len(expectedColumns) {
		t.Errorf("Expected %d columns in %s, got %d", len(expectedColumns), table, len(cols))
		return
	}
	for i, col := range cols {
		if col.ADQLName() != expectedColumns[i] {
			t.Errorf("Column %d of %s is %s, want %s", i, table, col.ADQLName(), expectedColumns[i])
		}
	}
}

// verifyColumnType checks the resolved type of a column
func verifyColumnType(t *testing.T, table *metadata.Table, columnName string, kind metadata.Kind) {
	t.Helper()

	col, ok := table.Column(columnName)
	if !ok {
		t.Fatalf("Column %s not found in table %s", columnName, table)
	}
	if col.DataType.Kind != kind {
		t.Errorf("Column %s has type %s, want %s", col.FullName(), col.DataType, kind)
	}
}

// verifyPrincipal checks that a column is flagged as primary key member
func verifyPrincipal(t *testing.T, table *metadata.Table, columnName string) {
	t.Helper()

	col, ok := table.Column(columnName)
	if !ok {
		t.Fatalf("Column %s not found in table %s", columnName, table)
	}
	if !col.Principal || !col.Indexed {
		t.Errorf("Expected %s to be principal and indexed", col.FullName())
	}
}

// verifyForeignKey checks that a foreign key links both columns
func verifyForeignKey(t *testing.T, s *metadata.Schema, tableName, sourceColumn, targetTable, targetColumn string) {
	t.Helper()

	table := findTable(t, s, tableName)
	for _, k := range table.ForeignKeys() {
		remote, ok := k.RemoteColumnName(sourceColumn)
		if !ok || k.To().ADQLName() != targetTable || remote != targetColumn {
			continue
		}
		target, _ := k.To().Column(targetColumn)
		if len(target.IncomingKeys()) == 0 {
			t.Errorf("Target column %s has no incoming key", target.FullName())
		}
		return
	}

	t.Errorf("Expected foreign key from %s.%s to %s.%s not found", tableName, sourceColumn, targetTable, targetColumn)
}

// readAll drains src through a cursor and returns the row and cell counts
func readAll(t *testing.T, src cursor.RowSource) (rows, cells int) {
	t.Helper()

	c, err := cursor.New(src)
	if err != nil {
		t.Fatalf("Failed to open cursor: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			t.Errorf("Failed to close cursor: %v", err)
		}
	}()

	for {
		ok, err := c.NextRow()
		if err != nil {
			t.Fatalf("Failed to read row: %v", err)
		}
		if !ok {
			return rows, cells
		}
		rows++
		for c.HasNextColumn() {
			if _, err := c.NextColumn(); err != nil {
				t.Fatalf("Failed to read column: %v", err)
			}
			cells++
		}
	}
}

// querier is the query side of every client
type querier interface {
	Query(ctx context.Context, query string, args ...any) (cursor.RowSource, error)
}

// verifyStarQuery reads the star fixture through the client's cursor
func verifyStarQuery(t *testing.T, ctx context.Context, q querier) {
	t.Helper()

	src, err := q.Query(ctx, "SELECT id, name, ra FROM star ORDER BY id")
	if err != nil {
		t.Fatalf("Failed to query star: %v", err)
	}
	rows, cells := readAll(t, src)
	if rows != len(starRows) || cells != 3*len(starRows) {
		t.Errorf("Read %d rows and %d cells, want %d and %d", rows, cells, len(starRows), 3*len(starRows))
	}
}
