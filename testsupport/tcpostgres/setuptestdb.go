package tcpostgres

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/pacelock/pkg/db/migrate"
	database "github.com/mpapenbr/pacelock/pkg/db/postgres"
)

// SetupTestDB returns a pool for a migrated database in a postgres
// container. The container is shared between test runs.
func SetupTestDB() *pgxpool.Pool {
	ctx := context.Background()
	container, err := StartContainer(ctx, "postgres", "password", "postgres",
		WithName("pacelock-test"))
	if err != nil {
		log.Fatal(err)
	}
	dbURL, err := container.ConnectionString(ctx)
	if err != nil {
		log.Fatal(err)
	}
	return setupPool(ctx, dbURL)
}

// SetupExternalTestDB uses the database referenced by TESTDB_URL
func SetupExternalTestDB() *pgxpool.Pool {
	return setupPool(context.Background(), os.Getenv("TESTDB_URL"))
}

func setupPool(ctx context.Context, dbURL string) *pgxpool.Pool {
	if err := migrate.MigrateDb(dbURL); err != nil {
		log.Fatal(err)
	}
	pool, err := database.InitWithURL(ctx, dbURL)
	if err != nil {
		log.Fatal(err)
	}
	return pool
}

func ClearLapTimesTable(pool *pgxpool.Pool) error {
	_, err := pool.Exec(context.Background(), "delete from lap_times")
	return err
}

func ClearSubsessionsTable(pool *pgxpool.Pool) error {
	_, err := pool.Exec(context.Background(), "delete from subsessions")
	return err
}

func ClearAllTables(pool *pgxpool.Pool) error {
	if err := ClearLapTimesTable(pool); err != nil {
		return err
	}
	return ClearSubsessionsTable(pool)
}
