package cursor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/tapmeta/internal/metadata"
)

var errBroken = errors.New("broken pipe")

// fakeSource is an in-memory RowSource.
type fakeSource struct {
	cols   []ColumnInfo
	rows   [][]any
	pos    int
	closed int

	columnsErr error
	failAtRow  int // 1-based row whose fetch fails; 0 never fails
	failAtCell int // 0-based column whose read fails; -1 never fails
}

func newFakeSource(nRows, nCols int) *fakeSource {
	src := &fakeSource{pos: -1, failAtCell: -1}
	for j := 0; j < nCols; j++ {
		src.cols = append(src.cols, ColumnInfo{Name: fmt.Sprintf("c%d", j), DatabaseType: "integer"})
	}
	for i := 0; i < nRows; i++ {
		row := make([]any, nCols)
		for j := range row {
			row[j] = int64(i*nCols + j)
		}
		src.rows = append(src.rows, row)
	}
	return src
}

func (f *fakeSource) Columns() ([]ColumnInfo, error) {
	if f.columnsErr != nil {
		return nil, f.columnsErr
	}
	return f.cols, nil
}

func (f *fakeSource) Next() (bool, error) {
	if f.failAtRow > 0 && f.pos+2 == f.failAtRow {
		return false, errBroken
	}
	if f.pos+1 >= len(f.rows) {
		return false, nil
	}
	f.pos++
	return true, nil
}

func (f *fakeSource) Value(i int) (any, error) {
	if i == f.failAtCell {
		return nil, errBroken
	}
	return f.rows[f.pos][i], nil
}

func (f *fakeSource) Close() error {
	f.closed++
	return nil
}

func TestNewWithNilSource(t *testing.T) {
	c, err := New(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, metadata.ErrConfiguration)
	assert.Nil(t, c)
}

func TestNewWithUnusableSource(t *testing.T) {
	src := newFakeSource(1, 1)
	src.columnsErr = errors.New("sql: Rows are closed")

	c, err := New(src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataRead)
	assert.Nil(t, c)
}

func TestMetadataBeforeFirstRow(t *testing.T) {
	src := newFakeSource(0, 0)
	src.cols = []ColumnInfo{
		{Name: "id", DatabaseType: "bigint"},
		{Name: "name", DatabaseType: "varchar", Length: 32},
		{Name: "", DatabaseType: "mystery"},
	}

	c, err := New(src)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, []ColumnMeta{
		{Name: "id", Position: 1, Type: metadata.DataType{Kind: metadata.KindBigInt}, DatabaseType: "bigint"},
		{Name: "name", Position: 2, Type: metadata.DataType{Kind: metadata.KindVarChar, Length: 32}, DatabaseType: "varchar"},
		{Name: "col3", Position: 3, Type: metadata.DataType{}, DatabaseType: "mystery"},
	}, c.Metadata())

	dt, err := c.ColumnTypeAt(1)
	require.NoError(t, err)
	assert.Equal(t, "VARCHAR(32)", dt.String())

	_, err = c.ColumnType()
	assert.ErrorIs(t, err, ErrNoColumn)
}

func TestRowAndColumnCounts(t *testing.T) {
	tests := []struct {
		rows, cols int
	}{
		{rows: 10, cols: 4},
		{rows: 1, cols: 1},
		{rows: 3, cols: 0},
		{rows: 0, cols: 5},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.rows, tt.cols), func(t *testing.T) {
			src := newFakeSource(tt.rows, tt.cols)
			c, err := New(src)
			require.NoError(t, err)
			defer c.Close()

			countRows := 0
			for {
				ok, err := c.NextRow()
				require.NoError(t, err)
				if !ok {
					break
				}
				countRows++
				assert.Equal(t, StateInRow, c.State())

				countCols := 0
				for c.HasNextColumn() {
					v, err := c.NextColumn()
					require.NoError(t, err)
					assert.Equal(t, int64((countRows-1)*tt.cols+countCols), v)
					countCols++

					dt, err := c.ColumnType()
					require.NoError(t, err)
					assert.Equal(t, metadata.KindInteger, dt.Kind)
				}
				assert.Equal(t, tt.cols, countCols)

				_, err = c.NextColumn()
				assert.ErrorIs(t, err, ErrNoMoreColumns)
			}

			assert.Equal(t, tt.rows, countRows)
			assert.Equal(t, tt.rows, c.RowCount())
			assert.Equal(t, StateExhausted, c.State())
		})
	}
}

func TestNextRowAfterExhaustion(t *testing.T) {
	c, err := New(newFakeSource(1, 2))
	require.NoError(t, err)
	defer c.Close()

	ok, err := c.NextRow()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.NextRow()
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.NextRow()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrExhausted)

	_, err = c.NextColumn()
	assert.ErrorIs(t, err, ErrNoRow)
	assert.False(t, c.HasNextColumn())
}

func TestPartiallyReadRow(t *testing.T) {
	c, err := New(newFakeSource(2, 3))
	require.NoError(t, err)
	defer c.Close()

	ok, err := c.NextRow()
	require.NoError(t, err)
	require.True(t, ok)
	_, err = c.NextColumn()
	require.NoError(t, err)

	// skipping the rest of the row is allowed
	ok, err = c.NextRow()
	require.NoError(t, err)
	require.True(t, ok)

	v, err := c.NextColumn()
	require.NoError(t, err)
	assert.Equal(t, int64(3), v, "column cursor restarts at the first column")
}

func TestColumnReadBeforeFirstRow(t *testing.T) {
	c, err := New(newFakeSource(1, 1))
	require.NoError(t, err)
	defer c.Close()

	assert.False(t, c.HasNextColumn())
	_, err = c.NextColumn()
	assert.ErrorIs(t, err, ErrNoRow)
}

func TestCloseIsIdempotent(t *testing.T) {
	src := newFakeSource(3, 2)
	c, err := New(src)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, src.closed)
	assert.Equal(t, StateClosed, c.State())
}

func TestReadsAfterClose(t *testing.T) {
	c, err := New(newFakeSource(3, 2))
	require.NoError(t, err)

	ok, err := c.NextRow()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, c.Close())

	_, err = c.NextRow()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.NextColumn()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.ColumnType()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.ColumnTypeAt(0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, c.HasNextColumn())
}

func TestSourceFailureIsFatal(t *testing.T) {
	t.Run("row fetch", func(t *testing.T) {
		src := newFakeSource(5, 1)
		src.failAtRow = 2
		c, err := New(src)
		require.NoError(t, err)
		defer c.Close()

		ok, err := c.NextRow()
		require.NoError(t, err)
		require.True(t, ok)

		_, err = c.NextRow()
		assert.ErrorIs(t, err, ErrDataRead)
		assert.ErrorIs(t, err, errBroken)

		// no resumption
		_, err = c.NextRow()
		assert.ErrorIs(t, err, ErrDataRead)
		assert.Equal(t, 1, c.RowCount())
	})

	t.Run("cell read", func(t *testing.T) {
		src := newFakeSource(2, 3)
		src.failAtCell = 1
		c, err := New(src)
		require.NoError(t, err)
		defer c.Close()

		_, err = c.NextRow()
		require.NoError(t, err)
		_, err = c.NextColumn()
		require.NoError(t, err)
		_, err = c.NextColumn()
		assert.ErrorIs(t, err, ErrDataRead)
		assert.False(t, c.HasNextColumn())

		_, err = c.NextColumn()
		assert.ErrorIs(t, err, ErrDataRead)
	})
}

func TestColumnTypeSurvivesExhaustion(t *testing.T) {
	src := newFakeSource(1, 2)
	src.cols[1].DatabaseType = "text"
	c, err := New(src)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.NextRow()
	require.NoError(t, err)
	for c.HasNextColumn() {
		_, err := c.NextColumn()
		require.NoError(t, err)
	}
	ok, err := c.NextRow()
	require.NoError(t, err)
	require.False(t, ok)

	dt, err := c.ColumnType()
	require.NoError(t, err)
	assert.Equal(t, metadata.KindVarChar, dt.Kind)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "in-row", StateInRow.String())
	assert.Equal(t, "exhausted", StateExhausted.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
