package cursor

// RowSource is the storage capability a TableCursor walks. Implementations
// wrap a live result set; a cursor owns its source exclusively.
type RowSource interface {
	// Columns reports the result columns in order. It fails if the source
	// is closed or otherwise unusable.
	Columns() ([]ColumnInfo, error)

	// Next fetches the next row. It returns false once the data is exhausted.
	Next() (bool, error)

	// Value returns cell i (0-based) of the current row.
	Value(i int) (any, error)

	// Close releases the underlying resource.
	Close() error
}

// ColumnInfo is the raw column description reported by a RowSource.
type ColumnInfo struct {
	Name         string
	DatabaseType string
	// Length is the declared length, or 0 when the engine does not report one.
	Length int
}
