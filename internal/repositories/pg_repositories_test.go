//go:build integration

package repositories

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/require"
)

const pgSchema = `
CREATE TABLE %[1]s (
	building_id TEXT PRIMARY KEY,
	name        TEXT NOT NULL
);
CREATE TABLE %[2]s (
	unit_id     TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	building_id TEXT NOT NULL,
	residents   TEXT[] NOT NULL DEFAULT '{}',
	updated_at  BIGINT
);
CREATE INDEX ON %[2]s (building_id);
CREATE TABLE %[3]s (
	resident_id TEXT PRIMARY KEY,
	name        TEXT NOT NULL
);`

// Requires DB_URL pointing at a scratch database. Each run creates its own
// tables and drops them afterwards.
func TestPostgresRepositories(t *testing.T) {
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		t.Skip("DB_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.Connect(ctx, dbURL)
	require.NoError(t, err)
	defer pool.Close()

	runRepositoryContract(t, func(t *testing.T) *Repositories {
		suffix := strings.ReplaceAll(uuid.NewString()[:8], "-", "")
		tables := Tables{
			Buildings: "liszt-buildings-" + suffix,
			Units:     "liszt-units-" + suffix,
			Residents: "liszt-residents-" + suffix,
		}
		quoted := []string{
			pgx.Identifier{tables.Buildings}.Sanitize(),
			pgx.Identifier{tables.Units}.Sanitize(),
			pgx.Identifier{tables.Residents}.Sanitize(),
		}
		_, err := pool.Exec(ctx, fmt.Sprintf(pgSchema, quoted[0], quoted[1], quoted[2]))
		require.NoError(t, err)
		t.Cleanup(func() {
			_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+strings.Join(quoted, ", "))
		})

		repos := newPostgresRepositories(pool, tables)
		repos.ping = pool.Ping
		return repos
	})
}
