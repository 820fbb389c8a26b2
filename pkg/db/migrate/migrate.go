package migrate

import (
	"embed"
	"errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// MigrateSqlite applies the schema to the sqlite database file at path.
func MigrateSqlite(path string) error {
	return up("migrations/sqlite", "sqlite://"+path)
}

// MigrateDb applies the schema to the postgres database at dbURI
// (postgresql://...).
func MigrateDb(dbURI string) error {
	target := dbURI
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(target, prefix) {
			target = "pgx5://" + strings.TrimPrefix(target, prefix)
			break
		}
	}
	return up("migrations/postgres", target)
}

func up(dir, dbURL string) error {
	source, err := iofs.New(migrations, dir)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}
