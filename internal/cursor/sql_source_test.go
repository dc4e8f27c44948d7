package cursor

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/tordrt/tapmeta/internal/metadata"
)

// openGums creates a SQLite database with a 10-row "gums" table.
func openGums(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "gums.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE gums (id INTEGER PRIMARY KEY, ra REAL, dec REAL, gmag REAL)`)
	require.NoError(t, err)
	for i := 1; i <= 10; i++ {
		_, err := db.Exec(`INSERT INTO gums (id, ra, dec, gmag) VALUES (?, ?, ?, ?)`,
			i, float64(i)*1.5, float64(i)*-0.5, 12.0+float64(i)/10)
		require.NoError(t, err)
	}
	return db
}

func TestSQLSourceWithData(t *testing.T) {
	db := openGums(t)

	rows, err := db.QueryContext(context.Background(), `SELECT id, ra, dec, gmag FROM gums ORDER BY id LIMIT 10`)
	require.NoError(t, err)

	c, err := New(NewSQLSource(rows))
	require.NoError(t, err)
	defer c.Close()

	meta := c.Metadata()
	require.Len(t, meta, 4)
	for i, name := range []string{"id", "ra", "dec", "gmag"} {
		assert.Equal(t, name, meta[i].Name)
		assert.Equal(t, i+1, meta[i].Position)
	}
	assert.Equal(t, metadata.KindInteger, meta[0].Type.Kind)

	countLines := 0
	for {
		ok, err := c.NextRow()
		require.NoError(t, err)
		if !ok {
			break
		}
		countLines++

		countColumns := 0
		for c.HasNextColumn() {
			v, err := c.NextColumn()
			require.NoError(t, err)
			if countColumns == 0 {
				assert.EqualValues(t, countLines, v)
			}
			_, err = c.ColumnType()
			require.NoError(t, err)
			countColumns++
		}
		assert.Equal(t, 4, countColumns)
	}
	assert.Equal(t, 10, countLines)
}

func TestSQLSourceWithEmptySet(t *testing.T) {
	db := openGums(t)

	rows, err := db.Query(`SELECT * FROM gums WHERE id = 'foo'`)
	require.NoError(t, err)

	c, err := New(NewSQLSource(rows))
	require.NoError(t, err)
	defer c.Close()

	assert.Len(t, c.Metadata(), 4)
	ok, err := c.NextRow()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, c.RowCount())
}

func TestSQLSourceWithClosedSet(t *testing.T) {
	db := openGums(t)

	rows, err := db.Query(`SELECT * FROM gums WHERE id = 'foo'`)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	_, err = New(NewSQLSource(rows))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataRead)
}

func TestSQLSourceCloseReleasesConnection(t *testing.T) {
	db := openGums(t)

	for i := 0; i < 3; i++ {
		rows, err := db.Query(`SELECT id FROM gums`)
		require.NoError(t, err, fmt.Sprintf("query %d", i))

		c, err := New(NewSQLSource(rows))
		require.NoError(t, err)
		_, err = c.NextRow()
		require.NoError(t, err)
		// with a single connection the next query would block if Close leaked it
		require.NoError(t, c.Close())
	}
}

func TestNilSQLSource(t *testing.T) {
	_, err := New(NewSQLSource(nil))
	assert.ErrorIs(t, err, ErrDataRead)
}
