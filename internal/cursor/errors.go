package cursor

import "errors"

// Sentinel errors for the cursor package.
var (
	// ErrDataRead is returned when the row source cannot be read. It is fatal
	// to the cursor: every later read returns the same error.
	ErrDataRead = errors.New("cursor: data read failed")

	// ErrClosed is returned by reads on a closed cursor.
	ErrClosed = errors.New("cursor: used after close")

	// ErrExhausted is returned by NextRow once the source reported its last row.
	ErrExhausted = errors.New("cursor: no more rows")

	// ErrNoRow is returned by column reads when no row is current.
	ErrNoRow = errors.New("cursor: no current row")

	// ErrNoMoreColumns is returned when reading past the last column of a row.
	ErrNoMoreColumns = errors.New("cursor: no more columns in row")

	// ErrNoColumn is returned by type lookups when no column has been read.
	ErrNoColumn = errors.New("cursor: no current column")
)
