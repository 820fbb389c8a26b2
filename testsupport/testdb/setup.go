package testdb

import (
	"context"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/pacelock/pkg/db/sqlite"
	tcpg "github.com/mpapenbr/pacelock/testsupport/tcpostgres"
)

// InitTestDB returns a postgres pool with the schema applied and all tables
// cleared. TESTDB_URL selects an external database instead of a container.
func InitTestDB() *pgxpool.Pool {
	var pool *pgxpool.Pool

	if os.Getenv("TESTDB_URL") != "" {
		pool = tcpg.SetupExternalTestDB()
	} else {
		pool = tcpg.SetupTestDB()
	}
	if err := tcpg.ClearAllTables(pool); err != nil {
		log.Fatalf("initTestDb: %v\n", err)
	}
	return pool
}

// InitSqliteDB creates a migrated sqlite database in a temp dir of the test.
func InitSqliteDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(),
		filepath.Join(t.TempDir(), "pacelock-test.db"))
	if err != nil {
		t.Fatalf("InitSqliteDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
