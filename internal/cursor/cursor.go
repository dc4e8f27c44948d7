// Package cursor exposes a query result as a forward-only cursor over rows
// and, within a row, over columns. Column metadata is discovered when the
// cursor is built; rows are fetched one at a time and never buffered beyond
// the current one.
//
// A TableCursor is not safe for concurrent use. Callers must Close it on
// every exit path:
//
//	c, err := cursor.New(src)
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	for {
//		ok, err := c.NextRow()
//		if err != nil || !ok {
//			return err
//		}
//		for c.HasNextColumn() {
//			v, err := c.NextColumn()
//			...
//		}
//	}
package cursor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tordrt/tapmeta/internal/metadata"
)

// State is the position of a TableCursor in its lifecycle.
type State int

const (
	// StateReady: metadata known, no row fetched yet.
	StateReady State = iota
	// StateInRow: a row is current; some of its columns may have been read.
	StateInRow
	// StateExhausted: the source reported no further rows.
	StateExhausted
	// StateClosed: the source has been released.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateInRow:
		return "in-row"
	case StateExhausted:
		return "exhausted"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ColumnMeta describes one result column.
type ColumnMeta struct {
	Name string
	// Position is 1-based, in result order.
	Position int
	Type     metadata.DataType
	// DatabaseType is the type name reported by the engine.
	DatabaseType string
}

// TableCursor walks a RowSource row by row, column by column.
type TableCursor struct {
	src     RowSource
	columns []ColumnMeta
	state   State

	col  int // last column read in the current row, -1 before the first
	rows int
	err  error

	logger *zap.Logger
}

// Option configures a TableCursor.
type Option func(*TableCursor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *TableCursor) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a cursor over src and reads its column metadata. A nil source
// wraps metadata.ErrConfiguration; a source unable to describe its columns
// wraps ErrDataRead. On error the caller keeps ownership of src.
func New(src RowSource, opts ...Option) (*TableCursor, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: missing row source", metadata.ErrConfiguration)
	}

	c := &TableCursor{src: src, col: -1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	infos, err := src.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read column metadata: %w", ErrDataRead, err)
	}
	c.columns = discoverColumns(infos)

	c.logger.Debug("cursor opened", zap.Int("columns", len(c.columns)))
	return c, nil
}

// discoverColumns maps raw engine descriptions onto the metadata type vocabulary.
func discoverColumns(infos []ColumnInfo) []ColumnMeta {
	cols := make([]ColumnMeta, len(infos))
	for i, info := range infos {
		name := info.Name
		if name == "" {
			name = fmt.Sprintf("col%d", i+1)
		}
		cols[i] = ColumnMeta{
			Name:         name,
			Position:     i + 1,
			Type:         metadata.ResolveDBType(info.DatabaseType, info.Length),
			DatabaseType: info.DatabaseType,
		}
	}
	return cols
}

// Metadata returns the result columns in order.
func (c *TableCursor) Metadata() []ColumnMeta {
	return append([]ColumnMeta(nil), c.columns...)
}

// State returns the current state.
func (c *TableCursor) State() State { return c.state }

// RowCount returns the number of rows fetched so far.
func (c *TableCursor) RowCount() int { return c.rows }

// NextRow fetches the next row. It returns false, and moves to
// StateExhausted, when the source has no more rows. Calling it again after
// that returns ErrExhausted; after Close it returns ErrClosed.
func (c *TableCursor) NextRow() (bool, error) {
	if err := c.usable(); err != nil {
		return false, err
	}
	if c.state == StateExhausted {
		return false, ErrExhausted
	}

	ok, err := c.src.Next()
	if err != nil {
		return false, c.fail(fmt.Errorf("failed to fetch row %d: %w", c.rows+1, err))
	}
	if !ok {
		c.state = StateExhausted
		c.logger.Debug("cursor exhausted", zap.Int("rows", c.rows))
		return false, nil
	}

	c.rows++
	c.col = -1
	c.state = StateInRow
	return true, nil
}

// HasNextColumn reports whether the current row has columns left to read.
func (c *TableCursor) HasNextColumn() bool {
	return c.state == StateInRow && c.err == nil && c.col+1 < len(c.columns)
}

// NextColumn returns the value of the next column of the current row.
// Reading past the last column returns ErrNoMoreColumns.
func (c *TableCursor) NextColumn() (any, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	if c.state != StateInRow {
		return nil, fmt.Errorf("%w (state %s)", ErrNoRow, c.state)
	}
	if c.col+1 >= len(c.columns) {
		return nil, fmt.Errorf("%w: row %d has %d columns", ErrNoMoreColumns, c.rows, len(c.columns))
	}

	c.col++
	v, err := c.src.Value(c.col)
	if err != nil {
		return nil, c.fail(fmt.Errorf("failed to read column %q of row %d: %w", c.columns[c.col].Name, c.rows, err))
	}
	return v, nil
}

// ColumnType returns the type of the column last read by NextColumn. It
// keeps answering after the row or the whole result has been consumed.
func (c *TableCursor) ColumnType() (metadata.DataType, error) {
	if c.state == StateClosed {
		return metadata.DataType{}, ErrClosed
	}
	if c.col < 0 {
		return metadata.DataType{}, ErrNoColumn
	}
	return c.columns[c.col].Type, nil
}

// ColumnTypeAt returns the type of column i (0-based).
func (c *TableCursor) ColumnTypeAt(i int) (metadata.DataType, error) {
	if c.state == StateClosed {
		return metadata.DataType{}, ErrClosed
	}
	if i < 0 || i >= len(c.columns) {
		return metadata.DataType{}, fmt.Errorf("%w: index %d out of range [0,%d)", ErrNoColumn, i, len(c.columns))
	}
	return c.columns[i].Type, nil
}

// Close releases the row source. It may be called in any state; calls
// after the first do nothing.
func (c *TableCursor) Close() error {
	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed

	if err := c.src.Close(); err != nil {
		return fmt.Errorf("%w: failed to close row source: %w", ErrDataRead, err)
	}
	c.logger.Debug("cursor closed", zap.Int("rows", c.rows))
	return nil
}

func (c *TableCursor) usable() error {
	if c.state == StateClosed {
		return ErrClosed
	}
	return c.err
}

// fail records the first source failure; the cursor cannot recover from it.
func (c *TableCursor) fail(err error) error {
	c.err = fmt.Errorf("%w: %w", ErrDataRead, err)
	c.logger.Warn("cursor read failed", zap.Error(err))
	return c.err
}
