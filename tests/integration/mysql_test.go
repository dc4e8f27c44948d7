//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/tordrt/tapmeta/internal/db"
	"github.com/tordrt/tapmeta/internal/metadata"
)

func newMySQLClient(t *testing.T, ctx context.Context) (*db.MySQLClient, string) {
	t.Helper()

	// Use environment variable if set, otherwise use default test connection string
	dsn := os.Getenv("MYSQL_TEST_URL")
	if dsn == "" {
		dsn = "testuser:testpassword@tcp(localhost:3306)/testdb?multiStatements=false"
	}
	database, err := db.ParseDatabaseName(dsn)
	if err != nil {
		t.Fatalf("Failed to parse DSN: %v", err)
	}

	client, err := db.NewMySQLClient(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to MySQL: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	drop := []string{`DROP VIEW IF EXISTS bright`, `DROP TABLE IF EXISTS obs`, `DROP TABLE IF EXISTS star`}
	stmts := append(append([]string{}, drop...),
		`CREATE TABLE star (id INT PRIMARY KEY, name VARCHAR(32) NOT NULL, ra DOUBLE COMMENT 'Right ascension') COMMENT 'Bright stars'`,
		`CREATE TABLE obs (obs_id BIGINT AUTO_INCREMENT PRIMARY KEY, star_id INT, epoch DATETIME, mag FLOAT,
			INDEX obs_epoch_idx (epoch), CONSTRAINT obs_star_fk FOREIGN KEY (star_id) REFERENCES star(id))`,
		`CREATE VIEW bright AS SELECT id, name FROM star`,
		`INSERT INTO star VALUES (1, 'Vega', 279.2347), (2, 'Deneb', 310.3580), (3, 'Altair', 297.6958)`,
	)
	for _, stmt := range stmts {
		if _, err := client.DB().ExecContext(ctx, stmt); err != nil {
			t.Fatalf("Failed to run %q: %v", stmt, err)
		}
	}
	t.Cleanup(func() {
		for _, stmt := range drop {
			_, _ = client.DB().Exec(stmt)
		}
	})
	return client, database
}

func TestMySQLExtraction(t *testing.T) {
	ctx := context.Background()
	client, database := newMySQLClient(t, ctx)

	s, err := db.NewMySQLExtractor(client, database).ExtractSchema(ctx, []string{"star", "obs", "bright"})
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}

	verifyTablesExist(t, s, []string{"star", "obs", "bright"})
	if s.ADQLName() != database {
		t.Errorf("schema name = %s, want %s", s.ADQLName(), database)
	}

	star := findTable(t, s, "star")
	if star.Description != "Bright stars" {
		t.Errorf("star description = %q", star.Description)
	}
	verifyColumns(t, star, []string{"id", "name", "ra"})
	verifyPrincipal(t, star, "id")
	verifyColumnType(t, star, "ra", metadata.KindDouble)
	if ra, _ := star.Column("ra"); ra.Description != "Right ascension" {
		t.Errorf("ra description = %q", ra.Description)
	}

	obs := findTable(t, s, "obs")
	verifyColumnType(t, obs, "obs_id", metadata.KindBigInt)
	verifyColumnType(t, obs, "epoch", metadata.KindTimestamp)
	verifyForeignKey(t, s, "obs", "star_id", "star", "id")

	bright := findTable(t, s, "bright")
	if bright.Type() != metadata.TableTypeView {
		t.Errorf("bright type = %s, want view", bright.Type())
	}
	if bright.Description != "" {
		t.Errorf("bright description = %q, want none", bright.Description)
	}
}

func TestMySQLCursor(t *testing.T) {
	ctx := context.Background()
	client, _ := newMySQLClient(t, ctx)

	verifyStarQuery(t, ctx, client)
}
