package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/tapmeta/internal/cursor"
	"github.com/tordrt/tapmeta/internal/metadata"
)

const catalogDDL = `
CREATE TABLE star (
	id INTEGER PRIMARY KEY,
	name VARCHAR(32) NOT NULL,
	ra DOUBLE,
	dec DOUBLE
);
CREATE TABLE obs (
	obs_id INTEGER PRIMARY KEY,
	star_id INTEGER NOT NULL REFERENCES star(id),
	epoch TIMESTAMP,
	mag REAL
);
CREATE INDEX idx_obs_epoch ON obs(epoch);
CREATE TABLE band (
	code CHAR(1) PRIMARY KEY
);
CREATE TABLE flux (
	star_id INTEGER,
	band CHAR(1) REFERENCES band,
	value REAL,
	FOREIGN KEY (star_id) REFERENCES star(id)
);
CREATE VIEW bright AS SELECT id, name FROM star;
`

func newTestSQLiteClient(t *testing.T) *SQLiteClient {
	t.Helper()

	client, err := NewSQLiteClient(context.Background(), filepath.Join(t.TempDir(), "catalog.db"), DriverSQLite)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.DB().Exec(catalogDDL)
	require.NoError(t, err)
	return client
}

func tableNames(s *metadata.Schema) []string {
	var names []string
	for _, t := range s.Tables() {
		names = append(names, t.ADQLName())
	}
	return names
}

func TestSQLiteExtractSchema(t *testing.T) {
	client := newTestSQLiteClient(t)

	s, err := NewSQLiteExtractor(client).ExtractSchema(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, SQLiteSchemaName, s.ADQLName())
	if diff := cmp.Diff([]string{"band", "bright", "flux", "obs", "star"}, tableNames(s)); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}

	bright, _ := s.Table("bright")
	assert.Equal(t, metadata.TableTypeView, bright.Type())
	star, _ := s.Table("star")
	assert.Equal(t, metadata.TableTypeTable, star.Type())

	t.Run("columns", func(t *testing.T) {
		var names []string
		for _, c := range star.Columns() {
			names = append(names, c.ADQLName())
		}
		assert.Equal(t, []string{"id", "name", "ra", "dec"}, names)

		name, _ := star.Column("name")
		assert.Equal(t, "VARCHAR(32)", name.DataType.String())
		ra, _ := star.Column("ra")
		assert.Equal(t, metadata.KindDouble, ra.DataType.Kind)
	})

	t.Run("flags", func(t *testing.T) {
		id, _ := star.Column("id")
		assert.True(t, id.Principal)
		assert.True(t, id.Indexed)

		obs, _ := s.Table("obs")
		epoch, _ := obs.Column("epoch")
		assert.False(t, epoch.Principal)
		assert.True(t, epoch.Indexed)
		mag, _ := obs.Column("mag")
		assert.False(t, mag.Indexed)
	})

	t.Run("foreign keys", func(t *testing.T) {
		obs, _ := s.Table("obs")
		require.Equal(t, 1, obs.ForeignKeyCount())
		fk := obs.ForeignKeys()[0]
		assert.Same(t, star, fk.To())
		assert.Equal(t, []metadata.ColumnPair{{Local: "star_id", Remote: "id"}}, fk.Pairs())

		id, _ := star.Column("id")
		assert.Len(t, id.IncomingKeys(), 2, "obs and flux reference star.id")

		flux, _ := s.Table("flux")
		assert.Equal(t, 2, flux.ForeignKeyCount())
		band, _ := flux.Column("band")
		require.Len(t, band.OutgoingKeys(), 1)
		remote, ok := band.OutgoingKeys()[0].RemoteColumnName("band")
		require.True(t, ok)
		assert.Equal(t, "code", remote, "implicit reference targets the primary key")
	})
}

func TestSQLiteExtractRequestedTables(t *testing.T) {
	client := newTestSQLiteClient(t)
	extractor := NewSQLiteExtractor(client)

	s, err := extractor.ExtractSchema(context.Background(), []string{"obs", "band"})
	require.NoError(t, err)
	assert.Equal(t, []string{"obs", "band"}, tableNames(s))

	obs, _ := s.Table("obs")
	assert.Zero(t, obs.ForeignKeyCount(), "star was not extracted")

	_, err = extractor.ExtractSchema(context.Background(), []string{"missing"})
	assert.Error(t, err)
}

func TestSQLiteClientQuery(t *testing.T) {
	client := newTestSQLiteClient(t)
	ctx := context.Background()

	_, err := client.DB().Exec(`INSERT INTO star (id, name, ra, dec) VALUES (1, 'Vega', 279.23, 38.78), (2, 'Deneb', 310.36, 45.28)`)
	require.NoError(t, err)

	src, err := client.Query(ctx, `SELECT id, name FROM star ORDER BY id`)
	require.NoError(t, err)
	c, err := cursor.New(src)
	require.NoError(t, err)

	var names []any
	for {
		ok, err := c.NextRow()
		require.NoError(t, err)
		if !ok {
			break
		}
		_, err = c.NextColumn()
		require.NoError(t, err)
		v, err := c.NextColumn()
		require.NoError(t, err)
		names = append(names, v)
	}
	require.NoError(t, c.Close())
	assert.Equal(t, []any{"Vega", "Deneb"}, names)

	// the single connection is free again
	_, err = NewSQLiteExtractor(client).ExtractSchema(ctx, []string{"star"})
	require.NoError(t, err)
}

func TestNewSQLiteClientRejectsUnknownDriver(t *testing.T) {
	_, err := NewSQLiteClient(context.Background(), ":memory:", "duckdb")
	assert.ErrorContains(t, err, "unsupported SQLite driver")
}

func TestSQLiteImplicitCompositeKeyReference(t *testing.T) {
	client, err := NewSQLiteClient(context.Background(), filepath.Join(t.TempDir(), "composite.db"), DriverSQLite)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.DB().Exec(`
		CREATE TABLE parent (a INTEGER, b INTEGER, PRIMARY KEY (b, a));
		CREATE TABLE child (x INTEGER, y INTEGER, FOREIGN KEY (x, y) REFERENCES parent);
	`)
	require.NoError(t, err)

	s, err := NewSQLiteExtractor(client).ExtractSchema(context.Background(), nil)
	require.NoError(t, err)

	child, ok := s.Table("child")
	require.True(t, ok)
	keys := child.ForeignKeys()
	require.Len(t, keys, 1)
	want := []metadata.ColumnPair{{Local: "x", Remote: "b"}, {Local: "y", Remote: "a"}}
	if diff := cmp.Diff(want, keys[0].Pairs()); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}

	parent, _ := s.Table("parent")
	for _, c := range parent.Columns() {
		assert.True(t, c.Principal, c.ADQLName())
	}
}
