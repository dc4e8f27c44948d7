package cursor

import (
	"database/sql"
	"fmt"
)

// SQLSource adapts *sql.Rows (MySQL, SQLite, or any database/sql driver).
type SQLSource struct {
	rows   *sql.Rows
	values []any
	dest   []any
	inRow  bool
}

// NewSQLSource wraps rows. The source takes ownership of rows.
func NewSQLSource(rows *sql.Rows) *SQLSource {
	return &SQLSource{rows: rows}
}

// Columns implements RowSource. It fails once rows are closed.
func (s *SQLSource) Columns() ([]ColumnInfo, error) {
	if s.rows == nil {
		return nil, fmt.Errorf("missing result set")
	}
	types, err := s.rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	infos := make([]ColumnInfo, len(types))
	for i, ct := range types {
		infos[i] = ColumnInfo{
			Name:         ct.Name(),
			DatabaseType: ct.DatabaseTypeName(),
		}
		if n, ok := ct.Length(); ok && n > 0 && n < 1<<31 {
			infos[i].Length = int(n)
		}
	}
	s.allocate(len(infos))
	return infos, nil
}

func (s *SQLSource) allocate(n int) {
	s.values = make([]any, n)
	s.dest = make([]any, n)
	for i := range s.values {
		s.dest[i] = &s.values[i]
	}
}

// Next implements RowSource.
func (s *SQLSource) Next() (bool, error) {
	s.inRow = false
	if !s.rows.Next() {
		return false, s.rows.Err()
	}
	if s.dest == nil {
		cols, err := s.rows.Columns()
		if err != nil {
			return false, err
		}
		s.allocate(len(cols))
	}
	if err := s.rows.Scan(s.dest...); err != nil {
		return false, err
	}
	s.inRow = true
	return true, nil
}

// Value implements RowSource.
func (s *SQLSource) Value(i int) (any, error) {
	if !s.inRow {
		return nil, fmt.Errorf("no current row")
	}
	if i < 0 || i >= len(s.values) {
		return nil, fmt.Errorf("column index %d out of range", i)
	}
	return s.values[i], nil
}

// Close implements RowSource.
func (s *SQLSource) Close() error {
	s.inRow = false
	if s.rows == nil {
		return nil
	}
	return s.rows.Close()
}
