package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mpapenbr/pacelock/log"
	"github.com/mpapenbr/pacelock/pkg/db/migrate"
)

const dsnOptions = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// PathFromURL strips an optional sqlite:// scheme from a database setting.
func PathFromURL(dbURL string) string {
	return strings.TrimPrefix(strings.TrimSpace(dbURL), "sqlite://")
}

// Open opens the sqlite database file at path and applies the embedded
// migrations. The file is created if it does not exist. Databases holding
// the unversioned schema are upgraded, keeping their data.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	cleanPath := filepath.Clean(path)
	db, err := sql.Open("sqlite", cleanPath+"?"+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one connection per run
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrateDB(ctx, db, cleanPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", cleanPath, err)
	}
	return db, nil
}

func migrateDB(ctx context.Context, db *sql.DB, path string) error {
	legacy, err := isLegacy(ctx, db)
	if err != nil {
		return err
	}
	if !legacy {
		return migrate.MigrateSqlite(path)
	}
	log.Info("upgrading database schema", log.String("path", path))
	hasLaps, err := moveLegacyTables(ctx, db)
	if err != nil {
		return err
	}
	if err := migrate.MigrateSqlite(path); err != nil {
		return err
	}
	return restoreLegacyData(ctx, db, hasLaps)
}
