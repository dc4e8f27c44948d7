package cursor

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// PgxSource adapts pgx.Rows. Type names come from the connection type map.
type PgxSource struct {
	rows   pgx.Rows
	values []any
	closed bool
}

// NewPgxSource wraps rows. The source takes ownership of rows.
func NewPgxSource(rows pgx.Rows) *PgxSource {
	return &PgxSource{rows: rows}
}

// Columns implements RowSource. It fails once rows are closed or fully
// read: pgx keeps the field descriptions of a closed result.
func (s *PgxSource) Columns() ([]ColumnInfo, error) {
	if s.rows == nil {
		return nil, fmt.Errorf("missing result set")
	}
	if err := s.rows.Err(); err != nil {
		return nil, err
	}
	if s.closed || s.rows.CommandTag().String() != "" {
		return nil, fmt.Errorf("result set is closed")
	}
	fields := s.rows.FieldDescriptions()
	if len(fields) == 0 {
		return nil, fmt.Errorf("statement returned no columns")
	}

	var typeMap *pgtype.Map
	if conn := s.rows.Conn(); conn != nil {
		typeMap = conn.TypeMap()
	}

	infos := make([]ColumnInfo, len(fields))
	for i, f := range fields {
		infos[i] = ColumnInfo{
			Name:   f.Name,
			Length: pgTypeLength(f.DataTypeOID, f.TypeModifier),
		}
		if typeMap != nil {
			if t, ok := typeMap.TypeForOID(f.DataTypeOID); ok {
				infos[i].DatabaseType = t.Name
			}
		}
	}
	return infos, nil
}

// pgTypeLength decodes the length carried by the type modifier of
// character types. The modifier includes a 4-byte header.
func pgTypeLength(oid uint32, typmod int32) int {
	switch oid {
	case pgtype.VarcharOID, pgtype.BPCharOID:
		if typmod > 4 {
			return int(typmod - 4)
		}
	}
	return 0
}

// Next implements RowSource.
func (s *PgxSource) Next() (bool, error) {
	s.values = nil
	if !s.rows.Next() {
		return false, s.rows.Err()
	}
	values, err := s.rows.Values()
	if err != nil {
		return false, err
	}
	s.values = values
	return true, nil
}

// Value implements RowSource.
func (s *PgxSource) Value(i int) (any, error) {
	if s.values == nil {
		return nil, fmt.Errorf("no current row")
	}
	if i < 0 || i >= len(s.values) {
		return nil, fmt.Errorf("column index %d out of range", i)
	}
	return s.values[i], nil
}

// Close implements RowSource.
func (s *PgxSource) Close() error {
	s.values = nil
	s.closed = true
	if s.rows == nil {
		return nil
	}
	s.rows.Close()
	return nil
}
